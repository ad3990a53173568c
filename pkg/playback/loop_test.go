package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/teslashibe/go-eyehelper/pkg/cue"
	"github.com/teslashibe/go-eyehelper/pkg/position"
)

type fakePosition struct {
	mu    sync.Mutex
	state position.State
}

func (f *fakePosition) Current() position.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakePosition) set(s position.State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

type fakeClips struct {
	missing map[cue.ID]bool
}

func (f *fakeClips) Get(id cue.ID) (*cue.Clip, error) {
	if f.missing[id] {
		return nil, cue.ErrNotFound
	}
	return &cue.Clip{ID: id, Samples: make([]int16, 2), SampleRate: 22050, Channels: 2}, nil
}

type fakeResource struct {
	id         cue.ID
	mu         sync.Mutex
	onComplete func()
	starts     int
	releases   int
}

func (r *fakeResource) Start(onComplete func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	r.onComplete = onComplete
	return nil
}

func (r *fakeResource) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releases++
	return nil
}

func (r *fakeResource) complete() {
	r.mu.Lock()
	cb := r.onComplete
	r.mu.Unlock()
	cb()
}

func (r *fakeResource) releaseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.releases
}

type fakePlayer struct {
	mu        sync.Mutex
	resources []*fakeResource
	failNext  bool
}

func (p *fakePlayer) Acquire(clip *cue.Clip) (Resource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext {
		p.failNext = false
		return nil, errors.New("device busy")
	}
	r := &fakeResource{id: clip.ID}
	p.resources = append(p.resources, r)
	return r, nil
}

func (p *fakePlayer) all() []*fakeResource {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*fakeResource, len(p.resources))
	copy(out, p.resources)
	return out
}

func (p *fakePlayer) failOnce() {
	p.mu.Lock()
	p.failNext = true
	p.mu.Unlock()
}

type harness struct {
	clock  *clock.Mock
	pos    *fakePosition
	clips  *fakeClips
	player *fakePlayer
	loop   *Loop
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:  clock.NewMock(),
		pos:    &fakePosition{state: position.InitialState()},
		clips:  &fakeClips{missing: map[cue.ID]bool{}},
		player: &fakePlayer{},
	}
	cfg := DefaultConfig()
	cfg.Clock = h.clock

	loop, err := NewLoop(cfg, h.pos, h.clips, h.player, nil)
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}
	h.loop = loop
	if err := loop.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { loop.Stop() })
	return h
}

// step advances one interval and waits until the loop has handled the tick.
func (h *harness) step(t *testing.T) {
	t.Helper()
	want := h.loop.Stats().Ticks + 1
	h.clock.Add(DefaultInterval)
	waitFor(t, func() bool { return h.loop.Stats().Ticks >= want })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLoop_NoPlayBeforeFirstInterval(t *testing.T) {
	h := newHarness(t)

	h.clock.Add(DefaultInterval - time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	if n := len(h.player.all()); n != 0 {
		t.Errorf("acquired %d clips before the first interval", n)
	}
}

func TestLoop_PlaysCueForPosition(t *testing.T) {
	h := newHarness(t)
	h.pos.set(position.State{Distance: 500, Angle: 42, Height: 3.5})

	h.step(t)

	res := h.player.all()
	if len(res) != 1 {
		t.Fatalf("acquired %d clips, want 1", len(res))
	}
	if want := cue.NewID(3, 13); res[0].id != want {
		t.Errorf("played %s, want %s", res[0].id, want)
	}
	if got := h.loop.Stats().CurrentCue; got != res[0].id {
		t.Errorf("CurrentCue = %s, want %s", got, res[0].id)
	}
}

func TestLoop_InterruptAndReplace(t *testing.T) {
	h := newHarness(t)

	h.step(t)
	h.pos.set(position.State{Distance: 500, Angle: -60, Height: 6})
	h.step(t)

	res := h.player.all()
	if len(res) != 2 {
		t.Fatalf("acquired %d clips, want 2", len(res))
	}
	if res[0].releaseCount() != 1 {
		t.Errorf("first clip released %d times, want 1", res[0].releaseCount())
	}
	if res[1].releaseCount() != 0 {
		t.Errorf("second clip released while playing")
	}
	if res[1].id != cue.NewID(6, 2) {
		t.Errorf("second clip = %s, want %s", res[1].id, cue.NewID(6, 2))
	}
}

func TestLoop_CompletionReleasesOnce(t *testing.T) {
	h := newHarness(t)

	h.step(t)
	first := h.player.all()[0]
	first.complete()

	if first.releaseCount() != 1 {
		t.Fatalf("completed clip released %d times, want 1", first.releaseCount())
	}

	// The next tick finds nothing held, so no second release.
	h.step(t)
	if first.releaseCount() != 1 {
		t.Errorf("completed clip released again by tick: %d", first.releaseCount())
	}
	if h.loop.Stats().Completions != 1 {
		t.Errorf("Completions = %d, want 1", h.loop.Stats().Completions)
	}
}

func TestLoop_StaleCompletionIsNoop(t *testing.T) {
	h := newHarness(t)

	h.step(t)
	h.step(t)
	res := h.player.all()

	// First clip was interrupted, its late completion must not touch the second.
	res[0].complete()

	if res[0].releaseCount() != 1 {
		t.Errorf("stale clip released %d times, want 1", res[0].releaseCount())
	}
	if res[1].releaseCount() != 0 {
		t.Errorf("stale completion released the current clip")
	}
	if h.loop.Stats().Completions != 0 {
		t.Errorf("stale completion counted")
	}
}

func TestLoop_FailuresDoNotStopLoop(t *testing.T) {
	h := newHarness(t)

	h.player.failOnce()
	h.step(t)
	if n := len(h.player.all()); n != 0 {
		t.Fatalf("acquired %d clips after failure", n)
	}

	h.clips.missing[cue.NewID(0, 8)] = true
	h.step(t)
	delete(h.clips.missing, cue.NewID(0, 8))

	h.step(t)
	if n := len(h.player.all()); n != 1 {
		t.Fatalf("acquired %d clips after recovery, want 1", n)
	}
	if f := h.loop.Stats().Failures; f != 2 {
		t.Errorf("Failures = %d, want 2", f)
	}
}

func TestLoop_StopReleasesHeldExactlyOnce(t *testing.T) {
	h := newHarness(t)

	h.step(t)
	if err := h.loop.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := h.loop.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}

	res := h.player.all()[0]
	if res.releaseCount() != 1 {
		t.Errorf("held clip released %d times, want 1", res.releaseCount())
	}

	// A completion arriving after Stop is stale.
	res.complete()
	if res.releaseCount() != 1 {
		t.Errorf("completion after Stop released again")
	}
}

func TestLoop_NoTickAfterStop(t *testing.T) {
	h := newHarness(t)

	h.step(t)
	h.loop.Stop()
	ticks := h.loop.Stats().Ticks

	h.clock.Add(10 * DefaultInterval)
	time.Sleep(10 * time.Millisecond)

	if got := h.loop.Stats().Ticks; got != ticks {
		t.Errorf("ticks after Stop: %d -> %d", ticks, got)
	}
	if n := len(h.player.all()); n != 1 {
		t.Errorf("acquired %d clips, want 1", n)
	}
	if h.loop.Running() {
		t.Error("loop still running after Stop")
	}
}

func TestLoop_StartTwice(t *testing.T) {
	h := newHarness(t)
	if err := h.loop.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}
}

func TestLoop_ContextCancelStopsTicks(t *testing.T) {
	mock := clock.NewMock()
	cfg := DefaultConfig()
	cfg.Clock = mock
	player := &fakePlayer{}

	loop, err := NewLoop(cfg, &fakePosition{}, &fakeClips{}, player, nil)
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	loop.Start(ctx)
	cancel()
	time.Sleep(10 * time.Millisecond)

	mock.Add(3 * DefaultInterval)
	time.Sleep(10 * time.Millisecond)
	if n := len(player.all()); n != 0 {
		t.Errorf("acquired %d clips after cancel", n)
	}
	loop.Stop()
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("zero interval accepted")
	}
	if _, err := NewLoop(cfg, nil, nil, nil, nil); err == nil {
		t.Error("NewLoop accepted zero interval")
	}
}
