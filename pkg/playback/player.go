// Package playback repeatedly plays the cue matching the tracked object's
// position, interrupting whatever cue is still sounding.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-eyehelper/pkg/audioio"
	"github.com/teslashibe/go-eyehelper/pkg/cue"
)

// Player hands out playback resources for clips.
type Player interface {
	Acquire(clip *cue.Clip) (Resource, error)
}

// Resource is one acquired clip. Start begins playback and calls onComplete
// once if the clip finishes on its own. Release stops playback and frees the
// resource; it may be called any number of times. Start after Release
// returns ErrReleased.
type Resource interface {
	Start(onComplete func()) error
	Release() error
}

// SinkPlayer plays clips through an audio sink. Only one resource should be
// playing at a time since releasing clears the whole sink.
type SinkPlayer struct {
	sink   audioio.Sink
	logger *slog.Logger
}

// NewSinkPlayer creates a player on a started sink.
func NewSinkPlayer(sink audioio.Sink, logger *slog.Logger) *SinkPlayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SinkPlayer{sink: sink, logger: logger}
}

// Acquire prepares a clip for playback.
func (p *SinkPlayer) Acquire(clip *cue.Clip) (Resource, error) {
	if clip == nil || len(clip.Samples) == 0 {
		return nil, ErrNoClip
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &sinkResource{
		player: p,
		clip:   clip,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}, nil
}

type sinkResource struct {
	player *SinkPlayer
	clip   *cue.Clip
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	started  bool
	released bool
	drained  bool
	once     sync.Once
	err      error
}

func (r *sinkResource) Start(onComplete func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	if r.started {
		return nil
	}
	r.started = true

	go r.play(onComplete)
	return nil
}

func (r *sinkResource) play(onComplete func()) {
	sink := r.player.sink
	err := sink.Write(r.ctx, r.clip.Chunk())
	if err == nil {
		err = sink.Flush(r.ctx)
	}
	r.drained = err == nil
	close(r.done)

	switch {
	case err == nil:
		if r.ctx.Err() == nil && onComplete != nil {
			onComplete()
		}
	case errors.Is(err, context.Canceled), errors.Is(err, audioio.ErrCleared):
	default:
		r.player.logger.Warn("cue playback failed", "cue", r.clip.ID, "error", err)
	}
}

func (r *sinkResource) Release() error {
	r.once.Do(func() {
		r.mu.Lock()
		r.released = true
		started := r.started
		r.mu.Unlock()

		r.cancel()
		if !started {
			return
		}
		<-r.done
		if r.drained {
			return
		}
		r.err = r.player.sink.Clear()
	})
	return r.err
}
