package audioio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockSink_WriteFlushClear(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	defer sink.Close()

	ctx := context.Background()
	if err := sink.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	chunk := AudioChunk{Samples: make([]int16, 441), SampleRate: 22050, Channels: 2}
	if err := sink.Write(ctx, chunk); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := sink.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if err := sink.Write(ctx, chunk); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := sink.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	stats := sink.Stats()
	if stats.ChunksWritten != 2 {
		t.Errorf("ChunksWritten = %d, want 2", stats.ChunksWritten)
	}
	if stats.Clears != 1 {
		t.Errorf("Clears = %d, want 1", stats.Clears)
	}
	if len(sink.Written()) != 2 {
		t.Errorf("Written() = %d chunks, want 2", len(sink.Written()))
	}
}

func TestMockSink_ConformsWrites(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	defer sink.Close()
	sink.Start(context.Background())

	mono := AudioChunk{Samples: make([]int16, 4410), SampleRate: 44100, Channels: 1}
	if err := sink.Write(context.Background(), mono); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got := sink.Written()[0]
	if got.Channels != 2 || got.SampleRate != 22050 || got.Frames() != 2205 {
		t.Errorf("written chunk = %d ch @ %d Hz, %d frames", got.Channels, got.SampleRate, got.Frames())
	}
}

func TestMockSink_NotRunning(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	defer sink.Close()

	chunk := AudioChunk{Samples: make([]int16, 480), SampleRate: 22050, Channels: 2}
	if err := sink.Write(context.Background(), chunk); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Write before Start = %v, want ErrNotRunning", err)
	}
}

func TestMockSink_HeldFlushEndsOnClear(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	defer sink.Close()
	sink.Start(context.Background())
	sink.HoldFlush(true)

	done := make(chan error, 1)
	go func() { done <- sink.Flush(context.Background()) }()

	select {
	case err := <-done:
		t.Fatalf("held Flush returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	sink.Clear()

	select {
	case err := <-done:
		if !errors.Is(err, ErrCleared) {
			t.Errorf("Flush = %v, want ErrCleared", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Flush did not return after Clear")
	}
}

func TestMockSink_HeldFlushHonoursContext(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	defer sink.Close()
	sink.HoldFlush(true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := sink.Flush(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Flush = %v, want deadline exceeded", err)
	}
}

func TestAudioChunk(t *testing.T) {
	chunk := AudioChunk{Samples: make([]int16, 2*441), SampleRate: 22050, Channels: 2}

	if chunk.Frames() != 441 {
		t.Errorf("Frames = %d, want 441", chunk.Frames())
	}
	if chunk.Duration() != 20*time.Millisecond {
		t.Errorf("Duration = %v, want 20ms", chunk.Duration())
	}

	parts := chunk.Split(200)
	if len(parts) != 3 {
		t.Fatalf("Split produced %d parts, want 3", len(parts))
	}
	if parts[0].Frames() != 200 || parts[2].Frames() != 41 {
		t.Errorf("Split frames = %d..%d", parts[0].Frames(), parts[2].Frames())
	}

	var decoded AudioChunk
	decoded.FromBytes(chunk.Bytes(), 22050, 2)
	if len(decoded.Samples) != len(chunk.Samples) {
		t.Errorf("FromBytes length = %d, want %d", len(decoded.Samples), len(chunk.Samples))
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := []func(*Config){
		func(c *Config) { c.SampleRate = 0 },
		func(c *Config) { c.Channels = 3 },
		func(c *Config) { c.BufferDuration = 0 },
		func(c *Config) { c.Backend = "pulse" },
	}
	for i, mutate := range bad {
		c := DefaultConfig()
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: Validate accepted %+v", i, c)
		}
	}
}

func TestNewSink_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendMock

	sink, err := NewSink(cfg, nil)
	if err != nil {
		t.Fatalf("NewSink failed: %v", err)
	}
	defer sink.Close()

	if sink.Name() != "mock" {
		t.Errorf("Name = %q, want mock", sink.Name())
	}
}

func TestPlayerCommand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = "plughw:1,0"

	program, args, err := playerCommand(BackendALSA, cfg)
	if err != nil {
		t.Fatalf("playerCommand failed: %v", err)
	}
	if program != "aplay" {
		t.Errorf("program = %q, want aplay", program)
	}
	joined := ""
	for _, a := range args {
		joined += a + " "
	}
	if joined != "-q -t raw -f S16_LE -r 22050 -c 2 -D plughw:1,0 - " {
		t.Errorf("args = %q", joined)
	}

	if _, _, err := playerCommand(BackendMock, cfg); err == nil {
		t.Error("playerCommand accepted mock backend")
	}
}
