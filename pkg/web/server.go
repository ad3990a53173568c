// Package web serves the eyehelper dashboard: live estimates, the cue table,
// activation controls and a camera preview.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-eyehelper/pkg/camera"
	"github.com/teslashibe/go-eyehelper/pkg/cue"
	"github.com/teslashibe/go-eyehelper/pkg/hub"
	"github.com/teslashibe/go-eyehelper/pkg/orientation"
	"github.com/teslashibe/go-eyehelper/pkg/playback"
	"github.com/teslashibe/go-eyehelper/pkg/position"
	"github.com/teslashibe/go-eyehelper/pkg/sensors"
)

// ErrInvalidRegion is returned for a retarget region outside the frame.
var ErrInvalidRegion = errors.New("web: invalid region")

// Status is the dashboard view of the running app.
type Status struct {
	Active           bool                `json:"active"`
	SessionID        string              `json:"session_id,omitempty"`
	Position         position.State      `json:"position"`
	Orientation      *orientation.Sample `json:"orientation,omitempty"`
	Readout          Readout             `json:"readout"`
	DistanceCategory string              `json:"distance_category"`
	Cue              cue.ID              `json:"cue"`
	Found            bool                `json:"found"`
	Playback         playback.Stats      `json:"playback"`
	Sensors          sensors.Stats       `json:"sensors"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// LogEntry is one line in the dashboard event log.
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, cue, session, error
	Message string `json:"message"`
}

// CueInfo describes one entry of the cue table.
type CueInfo struct {
	ID         cue.ID `json:"id"`
	HeightBand int    `json:"height_band"`
	AngleBand  int    `json:"angle_band"`
	Angle      int    `json:"angle"`
	Loaded     bool   `json:"loaded"`
	Source     string `json:"source,omitempty"` // clip file, or "synth"
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// Region is a normalized rectangle of the current frame, top-left origin.
type Region struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Validate checks that the region lies inside the unit square.
func (r Region) Validate() error {
	if !(r.W > 0 && r.H > 0 && r.X >= 0 && r.Y >= 0 && r.X+r.W <= 1 && r.Y+r.H <= 1) {
		return fmt.Errorf("%w: %+v", ErrInvalidRegion, r)
	}
	return nil
}

// Controller is what the dashboard drives.
type Controller interface {
	Activate(ctx context.Context) error
	Deactivate() error
	Cues() []CueInfo
	SetTemplate(data []byte) error
	Retarget(region Region) error
}

// Config holds dashboard settings.
type Config struct {
	Port      string `json:"port"`
	StaticDir string `json:"static_dir"` // empty disables static files
	LogBuffer int    `json:"log_buffer"`
}

// DefaultConfig returns the dashboard defaults.
func DefaultConfig() Config {
	return Config{
		Port:      "8181",
		LogBuffer: 500,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.LogBuffer <= 0 {
		return fmt.Errorf("log buffer must be positive, got %d", c.LogBuffer)
	}
	return nil
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg    Config
	app    *fiber.App
	ctrl   Controller
	logger *slog.Logger

	// ctx outlives requests; activation started from a handler uses it.
	ctx context.Context

	state   Status
	stateMu sync.RWMutex

	logs   []LogEntry
	logsMu sync.RWMutex

	cameraMu sync.RWMutex
	camera   *camera.Manager

	statusHub *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub
}

// NewServer builds the routes. ctrl may be nil, in which case the control
// endpoints answer 503.
func NewServer(cfg Config, ctrl Controller, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid web config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:       cfg,
		ctrl:      ctrl,
		logger:    logger,
		ctx:       context.Background(),
		logs:      make([]LogEntry, 0, cfg.LogBuffer),
		statusHub: hub.New("status", logger),
		logHub:    hub.New("logs", logger),
		cameraHub: hub.New("camera", logger),
	}
	s.state.Readout = NewReadout(position.InitialState(), orientation.Sample{}, false)
	s.state.Position = position.InitialState()
	s.state.Cue = cue.InitialCue()

	app := fiber.New(fiber.Config{
		AppName:               "Eyehelper Dashboard",
		DisableStartupMessage: true,
		BodyLimit:             8 * 1024 * 1024,
	})
	app.Use(cors.New())

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/cues", s.handleCues)
	api.Get("/logs", s.handleLogs)
	api.Post("/activate", s.handleActivate)
	api.Post("/deactivate", s.handleDeactivate)
	api.Post("/template", s.handleTemplate)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleSetCamera)
	api.Get("/camera/presets", s.handlePresets)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s, nil
}

// App exposes the fiber app so other components can mount routes.
func (s *Server) App() *fiber.App {
	return s.app
}

// AttachCamera enables the camera settings endpoints.
func (s *Server) AttachCamera(m *camera.Manager) {
	s.cameraMu.Lock()
	s.camera = m
	s.cameraMu.Unlock()
}

// Start runs the hubs until ctx is done and serves until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.ctx = ctx
	go s.statusHub.Run(ctx)
	go s.logHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	s.logger.Info("web dashboard listening", "url", "http://localhost:"+s.cfg.Port)
	return s.app.Listen(":" + s.cfg.Port)
}

// StartAsync runs Start in a goroutine and logs its error.
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("web server stopped", "error", err)
		}
	}()
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// UpdateStatus mutates the dashboard status and broadcasts it.
func (s *Server) UpdateStatus(update func(*Status)) {
	s.stateMu.Lock()
	update(&s.state)
	s.state.UpdatedAt = time.Now()
	state := s.state
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// Status returns a copy of the current dashboard status.
func (s *Server) Status() Status {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// AddLog appends to the event log and broadcasts the entry.
func (s *Server) AddLog(kind, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    kind,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > s.cfg.LogBuffer {
		s.logs = s.logs[len(s.logs)-s.cfg.LogBuffer:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// Logs returns a copy of the buffered event log.
func (s *Server) Logs() []LogEntry {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return append([]LogEntry(nil), s.logs...)
}

// SendCameraFrame broadcasts one JPEG preview frame.
func (s *Server) SendCameraFrame(jpeg []byte) {
	s.cameraHub.BroadcastBinary(jpeg)
}

// CameraViewers reports how many clients watch the preview.
func (s *Server) CameraViewers() int {
	return s.cameraHub.ClientCount()
}
