package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/teslashibe/go-eyehelper/pkg/cue"
	"github.com/teslashibe/go-eyehelper/pkg/debug"
	"github.com/teslashibe/go-eyehelper/pkg/position"
)

// DefaultInterval is the time between cue plays.
const DefaultInterval = 500 * time.Millisecond

// PositionSource reports the latest object position.
type PositionSource interface {
	Current() position.State
}

// ClipSource resolves cue identifiers to clips.
type ClipSource interface {
	Get(id cue.ID) (*cue.Clip, error)
}

// Config holds loop settings.
type Config struct {
	// Interval between plays. Default: 500ms
	Interval time.Duration `json:"interval"`

	// Clock drives the loop. Nil means the wall clock.
	Clock clock.Clock `json:"-"`
}

// DefaultConfig returns the standard loop configuration.
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", c.Interval)
	}
	return nil
}

// Stats is a snapshot of loop activity.
type Stats struct {
	Running     bool   `json:"running"`
	Ticks       int64  `json:"ticks"`
	Plays       int64  `json:"plays"`
	Failures    int64  `json:"failures"`
	Releases    int64  `json:"releases"`
	Completions int64  `json:"completions"`
	CurrentCue  cue.ID `json:"current_cue"`
	Generation  uint64 `json:"generation"`
}

// Loop plays the cue for the current position on every tick. Each tick
// releases the previous clip before starting the next one.
type Loop struct {
	cfg       Config
	clock     clock.Clock
	selector  *cue.Selector
	positions PositionSource
	clips     ClipSource
	player    Player
	logger    *slog.Logger

	// playMu serializes every Release with the tick that acquires and
	// starts the next clip. mu only guards state.
	playMu sync.Mutex

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	held    Resource
	gen     uint64
	current cue.ID

	ticks       atomic.Int64
	plays       atomic.Int64
	failures    atomic.Int64
	releases    atomic.Int64
	completions atomic.Int64
}

// NewLoop creates a playback loop.
func NewLoop(cfg Config, positions PositionSource, clips ClipSource, player Player, logger *slog.Logger) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	return &Loop{
		cfg:       cfg,
		clock:     clk,
		selector:  cue.NewSelector(),
		positions: positions,
		clips:     clips,
		player:    player,
		logger:    logger,
	}, nil
}

// Start launches the loop. The first cue plays one interval after Start.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	ticker := l.clock.Ticker(l.cfg.Interval)
	l.running = true
	l.cancel = cancel
	l.done = make(chan struct{})

	go l.run(ctx, ticker, l.done)

	l.logger.Info("playback loop started", "interval", l.cfg.Interval)
	return nil
}

func (l *Loop) run(ctx context.Context, ticker *clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			l.tick(ctx)
		}
	}
}

// Stop halts the loop, waits for any in-flight tick and releases the
// clip that is still held. No tick runs after Stop returns.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done

	l.playMu.Lock()
	defer l.playMu.Unlock()

	l.mu.Lock()
	res := l.held
	l.held = nil
	l.gen++
	l.mu.Unlock()

	var err error
	if res != nil {
		err = l.release(res)
	}
	l.logger.Info("playback loop stopped", "plays", l.plays.Load())
	return err
}

func (l *Loop) tick(ctx context.Context) {
	defer l.ticks.Add(1)

	l.playMu.Lock()
	defer l.playMu.Unlock()

	l.mu.Lock()
	prev := l.held
	l.held = nil
	l.mu.Unlock()
	if prev != nil {
		l.release(prev)
	}

	id := l.selector.Select(l.positions.Current())
	clip, err := l.clips.Get(id)
	if err != nil {
		l.failures.Add(1)
		l.logger.Warn("cue unavailable", "cue", id, "error", err)
		return
	}

	res, err := l.player.Acquire(clip)
	if err != nil {
		l.failures.Add(1)
		l.logger.Warn("cue acquisition failed", "cue", id, "error", err)
		return
	}

	l.mu.Lock()
	if ctx.Err() != nil {
		l.mu.Unlock()
		l.release(res)
		return
	}
	l.gen++
	gen := l.gen
	l.held = res
	l.current = id
	l.mu.Unlock()

	if err := res.Start(func() { l.complete(gen) }); err != nil {
		l.failures.Add(1)
		l.logger.Warn("cue start failed", "cue", id, "error", err)
		l.releaseHeld(gen)
		return
	}
	l.plays.Add(1)
	debug.CueLog(l.logger, "cue playing", "cue", id, "generation", gen)
}

func (l *Loop) complete(gen uint64) {
	if l.releaseIfCurrent(gen) {
		l.completions.Add(1)
	}
}

// releaseIfCurrent releases the held resource only if it belongs to gen.
func (l *Loop) releaseIfCurrent(gen uint64) bool {
	l.playMu.Lock()
	defer l.playMu.Unlock()
	return l.releaseHeld(gen)
}

// releaseHeld is releaseIfCurrent for callers holding playMu.
func (l *Loop) releaseHeld(gen uint64) bool {
	l.mu.Lock()
	if gen != l.gen || l.held == nil {
		l.mu.Unlock()
		return false
	}
	res := l.held
	l.held = nil
	l.mu.Unlock()

	l.release(res)
	return true
}

func (l *Loop) release(res Resource) error {
	l.releases.Add(1)
	if err := res.Release(); err != nil {
		l.logger.Warn("cue release failed", "error", err)
		return err
	}
	return nil
}

// Running reports whether the loop is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Stats returns a snapshot of loop activity.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	running, current, gen := l.running, l.current, l.gen
	l.mu.Unlock()

	return Stats{
		Running:     running,
		Ticks:       l.ticks.Load(),
		Plays:       l.plays.Load(),
		Failures:    l.failures.Load(),
		Releases:    l.releases.Load(),
		Completions: l.completions.Load(),
		CurrentCue:  current,
		Generation:  gen,
	}
}
