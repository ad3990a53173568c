package audioio

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// MockSink is an audio sink for tests. It records every chunk written and,
// unless HoldFlush is set, treats buffered audio as played as soon as Flush
// is called.
type MockSink struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	running   bool
	closed    bool
	holdFlush bool
	cleared   chan struct{}
	buffered  []AudioChunk
	written   []AudioChunk

	chunksWritten  atomic.Int64
	samplesWritten atomic.Int64
	clears         atomic.Int64
}

// NewMockSink creates a new mock audio sink.
func NewMockSink(cfg Config, logger *slog.Logger) *MockSink {
	if logger == nil {
		logger = slog.Default()
	}

	return &MockSink{
		cfg:     cfg,
		logger:  logger,
		cleared: make(chan struct{}),
	}
}

// HoldFlush makes Flush block until Clear is called or its context ends,
// simulating a clip that is still playing.
func (m *MockSink) HoldFlush(hold bool) {
	m.mu.Lock()
	m.holdFlush = hold
	m.mu.Unlock()
}

// Start begins accepting audio.
func (m *MockSink) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}

	m.running = true
	m.logger.Debug("mock audio sink started")
	return nil
}

// Stop halts audio acceptance.
func (m *MockSink) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = false
	return nil
}

// Write records an audio chunk after converting it to the sink format.
func (m *MockSink) Write(ctx context.Context, chunk AudioChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}
	if !m.running {
		return ErrNotRunning
	}

	chunk = Conform(chunk, m.cfg)
	m.buffered = append(m.buffered, chunk)
	m.written = append(m.written, chunk)

	m.chunksWritten.Add(1)
	m.samplesWritten.Add(int64(len(chunk.Samples)))
	return nil
}

// Flush marks buffered audio as played.
func (m *MockSink) Flush(ctx context.Context) error {
	m.mu.Lock()
	if !m.holdFlush {
		m.buffered = m.buffered[:0]
		m.mu.Unlock()
		return nil
	}
	cleared := m.cleared
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-cleared:
		return ErrCleared
	}
}

// Clear discards buffered audio and wakes any held Flush.
func (m *MockSink) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buffered = m.buffered[:0]
	close(m.cleared)
	m.cleared = make(chan struct{})
	m.clears.Add(1)
	return nil
}

// Written returns a copy of every chunk written since creation.
func (m *MockSink) Written() []AudioChunk {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]AudioChunk, len(m.written))
	copy(out, m.written)
	return out
}

// Config returns the audio configuration.
func (m *MockSink) Config() Config {
	return m.cfg
}

// Name returns "mock".
func (m *MockSink) Name() string {
	return "mock"
}

// Close releases resources.
func (m *MockSink) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	return m.Stop()
}

// Stats returns sink statistics.
func (m *MockSink) Stats() SinkStats {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()

	return SinkStats{
		ChunksWritten:  m.chunksWritten.Load(),
		SamplesWritten: m.samplesWritten.Load(),
		Clears:         m.clears.Load(),
		Running:        running,
		Backend:        "mock",
	}
}

var _ Sink = (*MockSink)(nil)
