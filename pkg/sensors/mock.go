package sensors

import (
	"context"
	"sync"
	"sync/atomic"
)

// MockStream delivers readings pushed by a test.
type MockStream struct {
	name string
	ch   chan Reading

	mu       sync.Mutex
	failNext []error

	runs atomic.Int32
}

// NewMockStream creates a mock stream.
func NewMockStream(name string) *MockStream {
	return &MockStream{name: name, ch: make(chan Reading)}
}

// Name returns the stream name.
func (s *MockStream) Name() string {
	return s.name
}

// Push hands r to the running stream. It returns false if ctx ends first.
func (s *MockStream) Push(ctx context.Context, r Reading) bool {
	select {
	case s.ch <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// FailNext makes the next Run return err immediately.
func (s *MockStream) FailNext(err error) {
	s.mu.Lock()
	s.failNext = append(s.failNext, err)
	s.mu.Unlock()
}

// Runs returns how many times Run was called.
func (s *MockStream) Runs() int {
	return int(s.runs.Load())
}

// Run delivers pushed readings until ctx is done.
func (s *MockStream) Run(ctx context.Context, l Listener) error {
	s.runs.Add(1)

	s.mu.Lock()
	if len(s.failNext) > 0 {
		err := s.failNext[0]
		s.failNext = s.failNext[1:]
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-s.ch:
			l.OnReading(r)
		}
	}
}
