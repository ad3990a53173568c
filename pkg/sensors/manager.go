package sensors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
)

// ErrAlreadyRunning is returned when starting a manager twice.
var ErrAlreadyRunning = errors.New("sensors: manager already running")

// Config holds stream supervision settings.
type Config struct {
	// RetryInterval is the wait before restarting a failed stream.
	RetryInterval time.Duration `json:"retry_interval"`

	// MaxRetries stops restarting a stream after this many consecutive
	// failures. 0 retries forever.
	MaxRetries int `json:"max_retries"`
}

// DefaultConfig returns the standard supervision settings.
func DefaultConfig() Config {
	return Config{
		RetryInterval: 2 * time.Second,
		MaxRetries:    0,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.RetryInterval <= 0 {
		return fmt.Errorf("retry_interval must be positive, got %v", c.RetryInterval)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	return nil
}

// Stats is a snapshot of manager activity.
type Stats struct {
	Running   bool  `json:"running"`
	Streams   int   `json:"streams"`
	Listeners int   `json:"listeners"`
	Readings  int64 `json:"readings"`
	Failures  int64 `json:"failures"`
}

// Manager runs streams and fans their readings out to listeners. Once
// Deregister or Stop returns, the affected listeners are never called again.
// Listeners must not call Register or Deregister from OnReading.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.RWMutex
	streams   []Stream
	listeners map[uint64]Listener
	nextID    uint64
	active    bool

	runMu   sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	errMu   sync.Mutex
	errs    []error
	running bool

	readings atomic.Int64
	failures atomic.Int64
}

// NewManager creates a manager with no streams.
func NewManager(cfg Config, logger *slog.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:       cfg,
		logger:    logger,
		listeners: make(map[uint64]Listener),
	}, nil
}

// Add attaches a stream. Streams added while running start on the next Start.
func (m *Manager) Add(s Stream) {
	m.mu.Lock()
	m.streams = append(m.streams, s)
	m.mu.Unlock()
}

// Register adds a listener and returns its handle.
func (m *Manager) Register(l Listener) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.listeners[m.nextID] = l
	return m.nextID
}

// Deregister removes a listener. Unknown handles are ignored.
func (m *Manager) Deregister(id uint64) {
	m.mu.Lock()
	delete(m.listeners, id)
	m.mu.Unlock()
}

// OnReading dispatches a reading to every registered listener.
func (m *Manager) OnReading(r Reading) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.active {
		return
	}
	m.readings.Add(1)
	for _, l := range m.listeners {
		l.OnReading(r)
	}
}

// Start runs every stream in its own goroutine, restarting failed streams.
func (m *Manager) Start(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.errMu.Lock()
	m.errs = nil
	m.errMu.Unlock()

	m.mu.Lock()
	m.active = true
	streams := append([]Stream(nil), m.streams...)
	m.mu.Unlock()

	for _, s := range streams {
		m.wg.Add(1)
		go m.supervise(ctx, s)
	}

	m.logger.Info("sensor streams started", "streams", len(streams))
	return nil
}

func (m *Manager) supervise(ctx context.Context, s Stream) {
	defer m.wg.Done()

	failures := 0
	for {
		err := s.Run(ctx, m)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.New("stream ended")
		}

		failures++
		m.failures.Add(1)
		m.logger.Warn("sensor stream failed", "stream", s.Name(), "attempt", failures, "error", err)

		if m.cfg.MaxRetries > 0 && failures > m.cfg.MaxRetries {
			m.errMu.Lock()
			m.errs = append(m.errs, fmt.Errorf("%s: %w", s.Name(), err))
			m.errMu.Unlock()
			m.logger.Error("sensor stream abandoned", "stream", s.Name())
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.RetryInterval):
		}
	}
}

// Stop cancels all streams and waits for them to exit. It returns the
// errors of streams that were abandoned after too many failures.
func (m *Manager) Stop() error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false

	m.mu.Lock()
	m.active = false
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()

	m.errMu.Lock()
	err := multierr.Combine(m.errs...)
	m.errMu.Unlock()

	m.logger.Info("sensor streams stopped", "readings", m.readings.Load())
	return err
}

// Stats returns a snapshot of manager activity.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Running:   m.active,
		Streams:   len(m.streams),
		Listeners: len(m.listeners),
		Readings:  m.readings.Load(),
		Failures:  m.failures.Load(),
	}
}
