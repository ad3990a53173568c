// Package eyehelper wires the camera, tracker, position and orientation
// estimators, sensor streams, cue registry and playback loop into one app.
//
// While active, a frame loop keeps the position estimate current and the
// playback loop plays the cue for that position every interval. Orientation
// is fused from the phone sensors and shown on the dashboard; it does not
// influence which cue plays.
package eyehelper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/teslashibe/go-eyehelper/pkg/audioio"
	"github.com/teslashibe/go-eyehelper/pkg/camera"
	"github.com/teslashibe/go-eyehelper/pkg/cue"
	"github.com/teslashibe/go-eyehelper/pkg/orientation"
	"github.com/teslashibe/go-eyehelper/pkg/playback"
	"github.com/teslashibe/go-eyehelper/pkg/position"
	"github.com/teslashibe/go-eyehelper/pkg/sensors"
	"github.com/teslashibe/go-eyehelper/pkg/tracking"
	"github.com/teslashibe/go-eyehelper/pkg/web"
)

// ErrClosed is returned by Activate after Shutdown.
var ErrClosed = errors.New("eyehelper: closed")

// Tracker finds the reference object and can be re-targeted at runtime.
type Tracker interface {
	tracking.Tracker
	SetTemplate(img gocv.Mat) error
	DecodeTemplate(data []byte) error
	HasTemplate() bool
}

// Deps overrides components New would otherwise build from Config.
type Deps struct {
	Source  camera.Source
	Tracker Tracker
	Sink    audioio.Sink
	Streams []sensors.Stream
	Clock   clock.Clock
}

// Stats is a snapshot of app activity.
type Stats struct {
	Active      bool           `json:"active"`
	SessionID   string         `json:"session_id,omitempty"`
	Frames      int64          `json:"frames"`
	FrameErrors int64          `json:"frame_errors"`
	Found       int64          `json:"found"`
	Clips       int            `json:"clips"`
	Playback    playback.Stats `json:"playback"`
	Sensors     sensors.Stats  `json:"sensors"`
}

// App is the running eyehelper.
type App struct {
	cfg    Config
	logger *slog.Logger

	source      camera.Source
	cameraMgr   *camera.Manager
	tracker     Tracker
	position    *position.Estimator
	orientation *orientation.Estimator
	sensors     *sensors.Manager
	registry    *cue.Registry
	table       *cue.Table
	sink        audioio.Sink
	loop        *playback.Loop
	web         *web.Server

	mu         sync.Mutex
	active     bool
	closed     bool
	sessionID  string
	cancel     context.CancelFunc
	frameDone  chan struct{}
	listenerID uint64

	frameMu   sync.Mutex
	lastFrame gocv.Mat

	frames      atomic.Int64
	frameErrors atomic.Int64
	found       atomic.Int64
	lastFound   atomic.Bool
}

// New builds every component. Components in deps are used as given; the
// rest are created from cfg.
func New(cfg Config, deps Deps, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		cfg:         cfg,
		logger:      logger,
		cameraMgr:   camera.NewManager(cfg.Camera),
		position:    position.NewEstimator(cfg.Position),
		orientation: orientation.NewEstimator(),
		registry:    cue.NewRegistry(),
		table:       cue.NewTable(),
		lastFrame:   gocv.NewMat(),
	}

	ok := false
	defer func() {
		if !ok {
			a.closeComponents()
		}
	}()

	if err := a.initCamera(deps.Source); err != nil {
		return nil, err
	}
	if err := a.initTracker(deps.Tracker); err != nil {
		return nil, err
	}
	if err := a.initCues(); err != nil {
		return nil, err
	}
	if err := a.initAudio(deps.Sink, deps.Clock); err != nil {
		return nil, err
	}
	if err := a.initWeb(); err != nil {
		return nil, err
	}
	if err := a.initSensors(deps.Streams); err != nil {
		return nil, err
	}

	ok = true
	return a, nil
}

func (a *App) component(name string) *slog.Logger {
	return a.logger.With("component", name)
}

func (a *App) initCamera(src camera.Source) error {
	if src != nil {
		a.source = src
		return nil
	}
	capture, err := camera.Open(a.cfg.Camera, a.component("camera"))
	if err != nil {
		return err
	}
	a.cameraMgr.OnConfigChange = capture.Apply
	a.source = capture
	return nil
}

func (a *App) initTracker(t Tracker) error {
	if t != nil {
		a.tracker = t
		return nil
	}
	tt, err := tracking.NewTemplateTracker(a.cfg.Tracking, a.component("tracking"))
	if err != nil {
		return err
	}
	a.tracker = tt
	return nil
}

func (a *App) initCues() error {
	loaded := 0
	if a.cfg.CueDir != "" {
		n, err := a.registry.LoadDir(a.cfg.CueDir)
		if err != nil {
			return fmt.Errorf("load cues: %w", err)
		}
		loaded = n
	}
	synthesized, err := a.registry.Synthesize(a.table, a.cfg.Synth)
	if err != nil {
		return fmt.Errorf("synthesize cues: %w", err)
	}
	a.logger.Info("cue registry ready", "loaded", loaded, "synthesized", synthesized, "total", a.registry.Count())
	return nil
}

func (a *App) initAudio(sink audioio.Sink, clk clock.Clock) error {
	if sink == nil {
		s, err := audioio.NewSink(a.cfg.Audio, a.component("audio"))
		if err != nil {
			return fmt.Errorf("audio sink: %w", err)
		}
		sink = s
	}
	a.sink = sink

	pcfg := a.cfg.Playback
	if clk != nil {
		pcfg.Clock = clk
	}
	player := playback.NewSinkPlayer(sink, a.component("player"))
	loop, err := playback.NewLoop(pcfg, a.position, a.registry, player, a.component("playback"))
	if err != nil {
		return err
	}
	a.loop = loop
	return nil
}

func (a *App) initWeb() error {
	if !a.cfg.EnableWeb {
		return nil
	}
	srv, err := web.NewServer(a.cfg.Web, a, a.component("web"))
	if err != nil {
		return err
	}
	srv.AttachCamera(a.cameraMgr)
	a.web = srv
	return nil
}

func (a *App) initSensors(extra []sensors.Stream) error {
	mgr, err := sensors.NewManager(a.cfg.Sensors, a.component("sensors"))
	if err != nil {
		return err
	}
	a.sensors = mgr

	if a.cfg.SensorURL != "" {
		ws, err := sensors.NewWebSocketStream(a.cfg.SensorURL, a.component("sensors"))
		if err != nil {
			return err
		}
		mgr.Add(ws)
	}
	if a.cfg.SensorSerial != "" {
		ss, err := sensors.NewSerialStream(a.cfg.SensorSerial, a.cfg.Serial, a.component("sensors"))
		if err != nil {
			return err
		}
		mgr.Add(ss)
	}
	if a.cfg.SensorIngest && a.web != nil {
		ingest := sensors.NewIngest(a.component("ingest"))
		ingest.RegisterRoutes(a.web.App())
		mgr.Add(ingest)
	}
	for _, s := range extra {
		mgr.Add(s)
	}
	return nil
}

// Activate starts a session: audio output, sensor streams, the frame loop
// and the playback loop. Activating an active app is a no-op.
func (a *App) Activate(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.active {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := a.sink.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("start audio: %w", err)
	}

	listenerID := a.sensors.Register(sensors.EstimatorListener(a.orientation))
	if err := a.sensors.Start(runCtx); err != nil {
		a.sensors.Deregister(listenerID)
		cancel()
		return multierr.Append(fmt.Errorf("start sensors: %w", err), a.sink.Stop())
	}

	if err := a.loop.Start(runCtx); err != nil {
		cancel()
		err = fmt.Errorf("start playback: %w", err)
		err = multierr.Append(err, a.sensors.Stop())
		a.sensors.Deregister(listenerID)
		return multierr.Append(err, a.sink.Stop())
	}

	session := uuid.NewString()
	done := make(chan struct{})
	go a.frameLoop(runCtx, session, done)

	a.active = true
	a.sessionID = session
	a.cancel = cancel
	a.frameDone = done
	a.listenerID = listenerID

	a.logger.Info("session activated", "session", session)
	if a.web != nil {
		a.web.UpdateStatus(func(s *web.Status) {
			s.Active = true
			s.SessionID = session
		})
		a.web.AddLog("session", "session "+session+" started")
	}
	return nil
}

// Deactivate ends the session: no cue plays, no sensor listener is called
// and the frame loop has exited once it returns. Deactivating an inactive
// app is a no-op.
func (a *App) Deactivate() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active {
		return nil
	}
	a.active = false
	session := a.sessionID
	a.sessionID = ""

	a.cancel()
	<-a.frameDone

	err := a.loop.Stop()
	err = multierr.Append(err, a.sensors.Stop())
	a.sensors.Deregister(a.listenerID)
	err = multierr.Append(err, a.sink.Stop())

	a.logger.Info("session deactivated", "session", session, "frames", a.frames.Load())
	if a.web != nil {
		a.web.UpdateStatus(func(s *web.Status) {
			s.Active = false
			s.SessionID = ""
		})
		a.web.AddLog("session", "session "+session+" ended")
	}
	return err
}

// Active reports whether a session is running.
func (a *App) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Run starts the dashboard, loads the configured template, activates and
// blocks until ctx is done. It then deactivates.
func (a *App) Run(ctx context.Context) error {
	if a.web != nil {
		a.web.StartAsync(ctx)
	}
	if a.cfg.TemplatePath != "" {
		if err := a.LoadTemplate(ctx, a.cfg.TemplatePath); err != nil {
			a.logger.Warn("tracking template not loaded", "path", a.cfg.TemplatePath, "error", err)
		}
	}
	if err := a.Activate(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return a.Deactivate()
}

// Shutdown deactivates and releases every component.
func (a *App) Shutdown() error {
	err := a.Deactivate()

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return err
	}
	a.closed = true
	a.mu.Unlock()

	return multierr.Append(err, a.closeComponents())
}

func (a *App) closeComponents() error {
	var err error
	if a.web != nil {
		err = multierr.Append(err, a.web.Shutdown())
	}
	if a.sink != nil {
		err = multierr.Append(err, a.sink.Close())
	}
	if c, ok := a.tracker.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	if a.source != nil {
		err = multierr.Append(err, a.source.Close())
	}

	a.frameMu.Lock()
	err = multierr.Append(err, a.lastFrame.Close())
	a.frameMu.Unlock()
	return err
}

// Position returns the latest position estimate.
func (a *App) Position() position.State {
	return a.position.Current()
}

// Orientation returns the latest fused orientation, if any.
func (a *App) Orientation() (orientation.Sample, bool) {
	return a.orientation.Current()
}

// Sensors exposes the sensor manager so callers can add streams or
// listeners before activating.
func (a *App) Sensors() *sensors.Manager {
	return a.sensors
}

// Web returns the dashboard server, or nil when disabled.
func (a *App) Web() *web.Server {
	return a.web
}

// Stats returns a snapshot of app activity.
func (a *App) Stats() Stats {
	a.mu.Lock()
	active, session := a.active, a.sessionID
	a.mu.Unlock()

	return Stats{
		Active:      active,
		SessionID:   session,
		Frames:      a.frames.Load(),
		FrameErrors: a.frameErrors.Load(),
		Found:       a.found.Load(),
		Clips:       a.registry.Count(),
		Playback:    a.loop.Stats(),
		Sensors:     a.sensors.Stats(),
	}
}
