package sensors

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// ErrIngestBusy is returned when Run is called on an Ingest that is already
// delivering to a listener.
var ErrIngestBusy = errors.New("sensors: ingest already running")

// Ingest is a WebSocket endpoint where a phone pushes readings, as
// SensorServer JSON events or protocol lines, instead of being dialled.
type Ingest struct {
	logger *slog.Logger

	mu       sync.RWMutex
	listener Listener
	conns    int

	received atomic.Int64
	dropped  atomic.Int64
}

// NewIngest creates an ingest endpoint.
func NewIngest(logger *slog.Logger) *Ingest {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingest{logger: logger}
}

// RegisterRoutes mounts the endpoint at /ws/sensors on a Fiber app.
func (g *Ingest) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/sensors", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/sensors", websocket.New(g.handle))
}

// Name returns the stream name.
func (g *Ingest) Name() string {
	return "ingest"
}

// Run delivers pushed readings to l until ctx is done.
func (g *Ingest) Run(ctx context.Context, l Listener) error {
	g.mu.Lock()
	if g.listener != nil {
		g.mu.Unlock()
		return ErrIngestBusy
	}
	g.listener = l
	g.mu.Unlock()

	<-ctx.Done()

	g.mu.Lock()
	g.listener = nil
	g.mu.Unlock()
	return nil
}

func (g *Ingest) handle(c *websocket.Conn) {
	g.mu.Lock()
	g.conns++
	g.mu.Unlock()
	g.logger.Info("sensor pusher connected", "remote", c.RemoteAddr().String())

	defer func() {
		g.mu.Lock()
		g.conns--
		g.mu.Unlock()
		g.logger.Info("sensor pusher disconnected", "remote", c.RemoteAddr().String())
	}()

	fallback := c.Query("type")
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}

		r, err := parsePushed(data, fallback)
		if err != nil {
			g.dropped.Add(1)
			continue
		}

		g.mu.RLock()
		l := g.listener
		if l != nil {
			l.OnReading(r)
		}
		g.mu.RUnlock()

		if l != nil {
			g.received.Add(1)
		} else {
			g.dropped.Add(1)
		}
	}
}

// parsePushed accepts either a JSON event or a protocol line.
func parsePushed(data []byte, fallback string) (Reading, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return ParseSensorServer(trimmed, fallback)
	}
	return ParseLine(string(trimmed))
}

// Connections returns the number of connected pushers.
func (g *Ingest) Connections() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.conns
}

// Stats returns readings delivered and readings dropped.
func (g *Ingest) Stats() (received, dropped int64) {
	return g.received.Load(), g.dropped.Load()
}
