package tracking

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-eyehelper/pkg/position"
)

// Tracker reports where the reference object is in a frame.
type Tracker interface {
	Track(frame gocv.Mat) (position.Measurement, error)
}

// TemplateTracker finds the object by normalized cross-correlation against
// a reference image, trying the template at several scales.
type TemplateTracker struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	template gocv.Mat
	smoother *Smoother

	frames  atomic.Int64
	matches atomic.Int64
}

// NewTemplateTracker creates a tracker without a template.
func NewTemplateTracker(cfg Config, logger *slog.Logger) (*TemplateTracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateTracker{
		cfg:      cfg,
		logger:   logger,
		template: gocv.NewMat(),
		smoother: NewSmoother(cfg.Smoothing, cfg.MaxMisses),
	}, nil
}

// LoadTemplate reads the reference image from disk.
func (t *TemplateTracker) LoadTemplate(path string) error {
	img := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer img.Close()
	if img.Empty() {
		return fmt.Errorf("read template %s: %w", path, ErrEmptyFrame)
	}
	return t.SetTemplate(img)
}

// DecodeTemplate sets the reference image from encoded bytes (PNG, JPEG).
func (t *TemplateTracker) DecodeTemplate(data []byte) error {
	img, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil {
		return fmt.Errorf("decode template: %w", err)
	}
	defer img.Close()
	return t.SetTemplate(img)
}

// SetTemplate replaces the reference image. The tracker keeps its own copy.
func (t *TemplateTracker) SetTemplate(img gocv.Mat) error {
	if img.Empty() {
		return ErrEmptyFrame
	}
	gray := toGray(img)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.template.Close()
	t.template = gray
	t.smoother.Reset()

	t.logger.Info("tracking template set", "width", gray.Cols(), "height", gray.Rows())
	return nil
}

// HasTemplate reports whether a reference image is loaded.
func (t *TemplateTracker) HasTemplate() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.template.Empty()
}

// Track searches the frame for the template.
func (t *TemplateTracker) Track(frame gocv.Mat) (position.Measurement, error) {
	if frame.Empty() {
		return position.NotFound(), ErrEmptyFrame
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.template.Empty() {
		return position.NotFound(), ErrNoTemplate
	}
	t.frames.Add(1)

	gray := toGray(frame)
	defer gray.Close()

	dets := t.detect(gray)
	best := SelectBest(dets, t.cfg.AreaWeight)
	if best == nil {
		return t.smoother.Apply(position.NotFound()), nil
	}
	t.matches.Add(1)

	fw, fh := float64(gray.Cols()), float64(gray.Rows())
	cx, cy := best.Center()
	m := position.Measurement{
		Found:       true,
		CenterX:     cx * fw,
		CenterY:     cy * fh,
		Width:       best.W * fw,
		Height:      best.H * fh,
		FrameWidth:  fw,
		FrameHeight: fh,
	}
	return t.smoother.Apply(m), nil
}

// detect runs the template at every configured scale and returns the
// matches above the threshold.
func (t *TemplateTracker) detect(gray gocv.Mat) []Detection {
	fw, fh := float64(gray.Cols()), float64(gray.Rows())

	var dets []Detection
	for _, scale := range t.cfg.Scales {
		tmpl := t.template
		if scale != 1 {
			scaled := gocv.NewMat()
			gocv.Resize(t.template, &scaled, image.Point{}, scale, scale, gocv.InterpolationLinear)
			defer scaled.Close()
			tmpl = scaled
		}
		if tmpl.Empty() || tmpl.Cols() > gray.Cols() || tmpl.Rows() > gray.Rows() {
			continue
		}

		result := gocv.NewMat()
		mask := gocv.NewMat()
		gocv.MatchTemplate(gray, tmpl, &result, gocv.TmCcoeffNormed, mask)
		_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
		result.Close()
		mask.Close()

		conf := float64(maxVal)
		if !(conf >= t.cfg.MatchThreshold) {
			continue
		}
		dets = append(dets, Detection{
			X:          float64(maxLoc.X) / fw,
			Y:          float64(maxLoc.Y) / fh,
			W:          float64(tmpl.Cols()) / fw,
			H:          float64(tmpl.Rows()) / fh,
			Confidence: conf,
		})
	}
	return dets
}

// Stats returns frames searched and frames with a match.
func (t *TemplateTracker) Stats() (frames, matches int64) {
	return t.frames.Load(), t.matches.Load()
}

// Close releases the template.
func (t *TemplateTracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.template.Close()
}

// toGray returns a single-channel copy of img.
func toGray(img gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	switch img.Channels() {
	case 3:
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(img, &gray, gocv.ColorBGRAToGray)
	default:
		img.CopyTo(&gray)
	}
	return gray
}
