package sensors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketStream connects to the SensorServer Android app and receives
// accelerometer and magnetometer events over one multi-sensor socket.
type WebSocketStream struct {
	url     string
	logger  *slog.Logger
	dialer  websocket.Dialer
	timeout time.Duration

	received atomic.Int64
	dropped  atomic.Int64
}

// NewWebSocketStream creates a stream for a SensorServer address such as
// "ws://192.168.1.20:8080".
func NewWebSocketStream(address string, logger *slog.Logger) (*WebSocketStream, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("parse sensor url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("sensor url must be ws:// or wss://, got %q", address)
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = "/sensors/connect"
	}
	if u.Query().Get("types") == "" {
		types, _ := json.Marshal([]string{AndroidAccelerometer, AndroidMagneticField})
		q := u.Query()
		q.Set("types", string(types))
		u.RawQuery = q.Encode()
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketStream{
		url:     u.String(),
		logger:  logger,
		dialer:  websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		timeout: 30 * time.Second,
	}, nil
}

// Name returns the stream name.
func (s *WebSocketStream) Name() string {
	return "websocket"
}

// URL returns the full connection URL.
func (s *WebSocketStream) URL() string {
	return s.url
}

// Run reads events until ctx is done or the connection fails.
func (s *WebSocketStream) Run(ctx context.Context, l Listener) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.Close()

	s.logger.Info("sensor socket connected", "url", s.url)

	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for {
		conn.SetReadDeadline(time.Now().Add(s.timeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return errors.New("sensor socket closed by phone")
			}
			return fmt.Errorf("read sensor socket: %w", err)
		}

		r, err := ParseSensorServer(data, "")
		if err != nil {
			s.dropped.Add(1)
			s.logger.Debug("dropping sensor event", "error", err)
			continue
		}
		s.received.Add(1)
		l.OnReading(r)
	}
}

// Stats returns events delivered and events dropped as malformed.
func (s *WebSocketStream) Stats() (received, dropped int64) {
	return s.received.Load(), s.dropped.Load()
}
