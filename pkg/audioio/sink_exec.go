package audioio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// CommandSink plays audio by piping raw PCM16 into a command-line player
// (aplay on Linux, sox's play on macOS). Clear kills the player so that
// audio already queued in the device buffer stops immediately.
type CommandSink struct {
	cfg     Config
	logger  *slog.Logger
	backend Backend
	program string
	args    []string

	mu        sync.Mutex
	running   bool
	closed    bool
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	gen       uint64
	playUntil time.Time
	cleared   chan struct{}

	chunksWritten  atomic.Int64
	samplesWritten atomic.Int64
	clears         atomic.Int64
}

// playerCommand returns the player program and arguments for a backend.
func playerCommand(backend Backend, cfg Config) (string, []string, error) {
	rate := strconv.Itoa(cfg.SampleRate)
	channels := strconv.Itoa(cfg.Channels)

	switch backend {
	case BackendALSA:
		args := []string{"-q", "-t", "raw", "-f", "S16_LE", "-r", rate, "-c", channels}
		if cfg.Device != "" {
			args = append(args, "-D", cfg.Device)
		}
		return "aplay", append(args, "-"), nil
	case BackendCoreAudio:
		return "play", []string{"-q", "-t", "raw", "-e", "signed-integer", "-b", "16", "-L",
			"-r", rate, "-c", channels, "-"}, nil
	default:
		return "", nil, fmt.Errorf("no player command for backend %s", backend)
	}
}

func newCommandSink(backend Backend, cfg Config, logger *slog.Logger) (*CommandSink, error) {
	program, args, err := playerCommand(backend, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(program); err != nil {
		return nil, fmt.Errorf("%s backend needs %s: %w", backend, program, err)
	}

	return &CommandSink{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		program: program,
		args:    args,
		cleared: make(chan struct{}),
	}, nil
}

// Start launches the player process.
func (s *CommandSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}
	if err := s.spawnLocked(); err != nil {
		return err
	}
	s.running = true
	s.logger.Info("audio sink started", "backend", s.backend, "program", s.program)
	return nil
}

func (s *CommandSink) spawnLocked() error {
	cmd := exec.Command(s.program, s.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("player stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.program, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			s.logger.Debug("player exited", "program", s.program, "error", err)
		}
	}()
	s.cmd = cmd
	s.stdin = stdin
	return nil
}

func (s *CommandSink) killLocked() {
	if s.stdin != nil {
		s.stdin.Close()
		s.stdin = nil
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd = nil
}

// Stop terminates the player process.
func (s *CommandSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false
	s.killLocked()
	s.playUntil = time.Time{}
	s.logger.Info("audio sink stopped", "backend", s.backend)
	return nil
}

// Write streams the chunk to the player one buffer at a time.
func (s *CommandSink) Write(ctx context.Context, chunk AudioChunk) error {
	chunk = Conform(chunk, s.cfg)

	for _, piece := range chunk.Split(s.cfg.BufferSize()) {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			return ErrNotRunning
		}
		w, gen := s.stdin, s.gen
		s.mu.Unlock()

		if _, err := w.Write(piece.Bytes()); err != nil {
			s.mu.Lock()
			clearedMeanwhile := s.gen != gen
			s.mu.Unlock()
			if clearedMeanwhile {
				return ErrCleared
			}
			return fmt.Errorf("write to %s: %w", s.program, err)
		}

		s.mu.Lock()
		if s.gen == gen {
			now := time.Now()
			if s.playUntil.Before(now) {
				s.playUntil = now
			}
			s.playUntil = s.playUntil.Add(piece.Duration())
		}
		s.mu.Unlock()

		s.chunksWritten.Add(1)
		s.samplesWritten.Add(int64(len(piece.Samples)))
	}
	return nil
}

// Flush waits until the audio written so far has had time to play.
func (s *CommandSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	wait := time.Until(s.playUntil)
	cleared := s.cleared
	s.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-cleared:
		return ErrCleared
	case <-timer.C:
		return nil
	}
}

// Clear drops queued audio by restarting the player.
func (s *CommandSink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.playUntil = time.Time{}
	close(s.cleared)
	s.cleared = make(chan struct{})
	s.clears.Add(1)

	if !s.running {
		return nil
	}
	s.killLocked()
	if err := s.spawnLocked(); err != nil {
		s.running = false
		return errors.Join(ErrNotRunning, err)
	}
	return nil
}

// Config returns the audio configuration.
func (s *CommandSink) Config() Config {
	return s.cfg
}

// Name returns the backend name.
func (s *CommandSink) Name() string {
	return string(s.backend)
}

// Close stops the player. The sink cannot be restarted.
func (s *CommandSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.Stop()
}

// Stats returns sink statistics.
func (s *CommandSink) Stats() SinkStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return SinkStats{
		ChunksWritten:  s.chunksWritten.Load(),
		SamplesWritten: s.samplesWritten.Load(),
		Clears:         s.clears.Load(),
		Running:        running,
		Backend:        string(s.backend),
	}
}

var _ Sink = (*CommandSink)(nil)
