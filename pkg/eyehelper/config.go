package eyehelper

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/teslashibe/go-eyehelper/pkg/audioio"
	"github.com/teslashibe/go-eyehelper/pkg/camera"
	"github.com/teslashibe/go-eyehelper/pkg/cue"
	"github.com/teslashibe/go-eyehelper/pkg/playback"
	"github.com/teslashibe/go-eyehelper/pkg/position"
	"github.com/teslashibe/go-eyehelper/pkg/sensors"
	"github.com/teslashibe/go-eyehelper/pkg/tracking"
	"github.com/teslashibe/go-eyehelper/pkg/web"
)

// Config gathers the settings of every component the app wires together.
type Config struct {
	Camera   camera.Config      `json:"camera"`
	Tracking tracking.Config    `json:"tracking"`
	Position position.Constants `json:"position"`
	Audio    audioio.Config     `json:"audio"`
	Playback playback.Config    `json:"playback"`
	Sensors  sensors.Config     `json:"sensors"`
	Synth    cue.SynthConfig    `json:"synth"`
	Web      web.Config         `json:"web"`

	// EnableWeb serves the dashboard.
	EnableWeb bool `json:"enable_web"`

	// CueDir holds recorded <cue id>.wav/.opus clips. Missing entries are
	// synthesized.
	CueDir string `json:"cue_dir"`

	// TemplatePath is the reference image of the tracked object, a file
	// path or an http(s) URL. It may be left empty and set from the dashboard.
	TemplatePath string `json:"template_path"`

	// SensorURL is a SensorServer websocket address on the phone.
	SensorURL string `json:"sensor_url"`
	// SensorSerial is a serial device streaming "A x y z" / "M x y z" lines.
	SensorSerial string              `json:"sensor_serial"`
	Serial       sensors.PortOptions `json:"serial"`
	// SensorIngest accepts readings pushed by the phone to /ws/sensors.
	SensorIngest bool `json:"sensor_ingest"`

	// FrameInterval paces the frame loop. Zero reads as fast as the camera
	// delivers.
	FrameInterval time.Duration `json:"frame_interval"`
	// StatusInterval is how often the dashboard status is pushed.
	StatusInterval time.Duration `json:"status_interval"`
	// PreviewInterval is how often a JPEG preview is pushed to camera
	// viewers. Zero disables the preview.
	PreviewInterval time.Duration `json:"preview_interval"`
}

// DefaultConfig returns settings for a webcam, ALSA/CoreAudio output and
// the dashboard on its default port with phone push ingest.
func DefaultConfig() Config {
	return Config{
		Camera:          camera.DefaultConfig(),
		Tracking:        tracking.DefaultConfig(),
		Position:        position.DefaultConstants(),
		Audio:           audioio.DefaultConfig(),
		Playback:        playback.DefaultConfig(),
		Sensors:         sensors.DefaultConfig(),
		Synth:           cue.DefaultSynthConfig(),
		Web:             web.DefaultConfig(),
		EnableWeb:       true,
		SensorIngest:    true,
		FrameInterval:   33 * time.Millisecond,
		StatusInterval:  250 * time.Millisecond,
		PreviewInterval: 200 * time.Millisecond,
	}
}

// Validate checks every component configuration and reports all problems.
func (c *Config) Validate() error {
	var err error
	if errs := c.Camera.Validate(); len(errs) > 0 {
		err = multierr.Append(err, fmt.Errorf("camera: %s", strings.Join(errs, "; ")))
	}
	err = multierr.Append(err, prefix("tracking", c.Tracking.Validate()))
	err = multierr.Append(err, prefix("position", c.Position.Validate()))
	err = multierr.Append(err, prefix("audio", c.Audio.Validate()))
	err = multierr.Append(err, prefix("playback", c.Playback.Validate()))
	err = multierr.Append(err, prefix("sensors", c.Sensors.Validate()))
	err = multierr.Append(err, prefix("synth", c.Synth.Validate()))
	if c.EnableWeb {
		err = multierr.Append(err, prefix("web", c.Web.Validate()))
	}

	if c.SensorIngest && !c.EnableWeb {
		err = multierr.Append(err, errors.New("sensor ingest requires the web dashboard"))
	}
	if c.SensorSerial != "" {
		if _, perr := c.Serial.Normalize(); perr != nil {
			err = multierr.Append(err, prefix("serial", perr))
		}
	}
	if c.FrameInterval < 0 {
		err = multierr.Append(err, fmt.Errorf("frame_interval must not be negative, got %v", c.FrameInterval))
	}
	if c.StatusInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("status_interval must be positive, got %v", c.StatusInterval))
	}
	if c.PreviewInterval < 0 {
		err = multierr.Append(err, fmt.Errorf("preview_interval must not be negative, got %v", c.PreviewInterval))
	}
	return err
}

func prefix(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}
