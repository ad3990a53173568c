package camera

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// ErrReadFailed is returned when the device delivers no frame.
var ErrReadFailed = errors.New("camera: read failed")

// Source delivers grayscale frames. The caller owns and must Close each Mat.
type Source interface {
	Read() (gocv.Mat, error)
	Close() error
}

// Capture reads frames from a webcam or video stream.
type Capture struct {
	logger *slog.Logger

	mu  sync.Mutex
	cfg Config
	vc  *gocv.VideoCapture

	frames   atomic.Int64
	failures atomic.Int64
}

// Open starts capturing from the configured device.
func Open(cfg Config, logger *slog.Logger) (*Capture, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid camera config: %v", errs)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Capture{logger: logger}
	if err := c.open(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Capture) open(cfg Config) error {
	vc, err := gocv.OpenVideoCapture(cfg.DeviceID())
	if err != nil {
		return fmt.Errorf("open camera %s: %w", cfg.Device, err)
	}
	applyProperties(vc, cfg)

	c.vc = vc
	c.cfg = cfg
	c.logger.Info("camera opened", "device", cfg.Device, "width", cfg.Width, "height", cfg.Height, "fps", cfg.Framerate)
	return nil
}

func applyProperties(vc *gocv.VideoCapture, cfg Config) {
	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	if cfg.Exposure > 0 {
		vc.Set(gocv.VideoCaptureExposure, cfg.Exposure)
	}
	if cfg.Brightness > 0 {
		vc.Set(gocv.VideoCaptureBrightness, cfg.Brightness)
	}
}

// Apply changes the capture settings, reopening the device if it changed.
// It is meant to be installed as Manager.OnConfigChange.
func (c *Capture) Apply(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg.Device == c.cfg.Device && c.vc != nil {
		applyProperties(c.vc, cfg)
		c.cfg = cfg
		return nil
	}

	old := c.vc
	if err := c.open(cfg); err != nil {
		return err
	}
	if old != nil {
		old.Close()
	}
	return nil
}

// Read grabs the next frame and converts it to grayscale.
func (c *Capture) Read() (gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return gocv.NewMat(), ErrReadFailed
	}

	img := gocv.NewMat()
	if ok := c.vc.Read(&img); !ok || img.Empty() {
		img.Close()
		c.failures.Add(1)
		return gocv.NewMat(), fmt.Errorf("%w: device %s", ErrReadFailed, c.cfg.Device)
	}
	defer img.Close()

	gray := gocv.NewMat()
	if img.Channels() == 1 {
		img.CopyTo(&gray)
	} else {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	}
	c.frames.Add(1)
	return gray, nil
}

// Stats returns frames delivered and failed reads.
func (c *Capture) Stats() (frames, failures int64) {
	return c.frames.Load(), c.failures.Load()
}

// Close releases the device.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.vc = nil
	return err
}

// StaticSource serves copies of a fixed frame. It stands in for a camera in
// tests and when replaying a still image.
type StaticSource struct {
	mu    sync.Mutex
	frame gocv.Mat
}

// NewStaticSource creates a source with no frame.
func NewStaticSource() *StaticSource {
	return &StaticSource{frame: gocv.NewMat()}
}

// SetFrame replaces the served frame with a copy of img.
func (s *StaticSource) SetFrame(img gocv.Mat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame.Close()
	s.frame = img.Clone()
}

// Read returns a copy of the current frame.
func (s *StaticSource) Read() (gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame.Empty() {
		return gocv.NewMat(), ErrReadFailed
	}
	return s.frame.Clone(), nil
}

// Close releases the frame.
func (s *StaticSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame.Close()
}
