// Eyehelper - positional audio cues for a tracked object.
// Tracks a reference object in the camera image and every 500ms plays the
// binaural cue for its height and horizontal angle.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-eyehelper/internal/config"
	"github.com/teslashibe/go-eyehelper/internal/log"
	"github.com/teslashibe/go-eyehelper/pkg/audioio"
	"github.com/teslashibe/go-eyehelper/pkg/camera"
	"github.com/teslashibe/go-eyehelper/pkg/debug"
	"github.com/teslashibe/go-eyehelper/pkg/eyehelper"
	"github.com/teslashibe/go-eyehelper/pkg/tracking"
)

func main() {
	cfg, level := parseFlags()
	log.Init(level)
	if debug.Enabled {
		log.SetLevel("debug")
	}

	if err := cfg.Validate(); err != nil {
		fatal("configuration error", err)
	}

	app, err := eyehelper.New(cfg, eyehelper.Deps{}, log.Component("eyehelper"))
	if err != nil {
		fatal("initialization failed", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		fatal("runtime error", err)
	}
}

func fatal(msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

// parseFlags parses command line flags on top of the environment and
// returns the configuration and log level.
func parseFlags() (eyehelper.Config, string) {
	cfg := eyehelper.DefaultConfig()

	level := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	debugAll := flag.Bool("debug", false, "Enable verbose debug logging")
	debugCues := flag.Bool("debug-cues", false, "Log every cue the playback loop starts")
	debugTracking := flag.Bool("debug-tracking", false, "Log every frame's match result")

	device := flag.String("camera", config.CameraDevice(), "Camera index, device path or stream URL")
	preset := flag.String("camera-preset", "", "Camera preset: default, low, 720p, night")
	templatePath := flag.String("template", config.String(config.EnvTemplatePath, ""), "Reference image of the object (path or URL)")
	fastTrack := flag.Bool("fast-tracking", false, "Match the template at a single scale")
	threshold := flag.Float64("match-threshold", cfg.Tracking.MatchThreshold, "Minimum template match score")
	cueDir := flag.String("cues", config.String(config.EnvCueDir, ""), "Directory of recorded <cue>.wav/.opus clips")
	backend := flag.String("audio", config.String(config.EnvAudioBackend, ""), "Audio backend: alsa, coreaudio, mock (empty = auto)")
	audioDevice := flag.String("audio-device", "", "Output device passed to the player")
	sensorURL := flag.String("sensor-url", config.String(config.EnvSensorURL, ""), "SensorServer websocket address on the phone")
	sensorSerial := flag.String("sensor-serial", config.String(config.EnvSensorSerial, ""), "Serial device streaming A/M lines")
	baud := flag.Int("baud", 115200, "Serial baud rate")
	port := flag.String("port", config.WebPort(), "Dashboard port")
	static := flag.String("static", "", "Directory of dashboard static files")
	noWeb := flag.Bool("no-web", false, "Disable the dashboard and phone push ingest")
	interval := flag.Duration("interval", cfg.Playback.Interval, "Time between cues")
	flag.Parse()

	debug.Enabled, debug.Cues, debug.Tracking = *debugAll, *debugCues, *debugTracking
	if *debugAll {
		*level = "debug"
	}

	cfg.Camera.Device = *device
	if *preset != "" {
		p := camera.GetPreset(*preset)
		if p == nil {
			fatal("configuration error", fmt.Errorf("unknown camera preset %q", *preset))
		}
		cfg.Camera = *p
		cfg.Camera.Device = *device
	}
	cfg.TemplatePath = *templatePath
	if *fastTrack {
		cfg.Tracking = tracking.FastConfig()
	}
	cfg.Tracking.MatchThreshold = *threshold
	cfg.CueDir = *cueDir
	b, err := audioio.ParseBackend(*backend)
	if err != nil {
		fatal("configuration error", err)
	}
	cfg.Audio.Backend = b
	cfg.Audio.Device = *audioDevice
	cfg.SensorURL = *sensorURL
	cfg.SensorSerial = *sensorSerial
	cfg.Serial.BaudRate = *baud
	cfg.Web.Port = *port
	cfg.Web.StaticDir = *static
	cfg.Playback.Interval = *interval
	if *noWeb {
		cfg.EnableWeb = false
		cfg.SensorIngest = false
	}
	return cfg, *level
}
