package cue

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRegistry_RegisterGet(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Get("height0angle5"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	r.Register(&Clip{ID: "height0angle5", SampleRate: 100, Channels: 1, Samples: make([]int16, 50)})
	clip, err := r.Get("height0angle5")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if clip.Duration() != 500*time.Millisecond {
		t.Errorf("Duration = %v, want 500ms", clip.Duration())
	}

	r.Unregister("height0angle5")
	if r.Count() != 0 {
		t.Errorf("Count = %d after unregister, want 0", r.Count())
	}
}

func TestRegistry_SynthesizeFillsTable(t *testing.T) {
	r := NewRegistry()
	table := NewTable()

	recorded := &Clip{ID: "height3angle25", SampleRate: 8000, Channels: 2, Samples: make([]int16, 16), Source: "recorded"}
	r.Register(recorded)

	cfg := DefaultSynthConfig()
	cfg.Duration = 20 * time.Millisecond

	n, err := r.Synthesize(table, cfg)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if n != HeightBands*AngleBands-1 {
		t.Errorf("Synthesized %d clips, want %d", n, HeightBands*AngleBands-1)
	}
	if missing := r.Missing(table); len(missing) != 0 {
		t.Errorf("Still missing %v", missing)
	}

	got, _ := r.Get("height3angle25")
	if got != recorded {
		t.Error("Synthesize replaced a recorded clip")
	}

	ids := r.List()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("List not sorted at %d: %s >= %s", i, ids[i-1], ids[i])
		}
	}
}

func TestSynthesize_PansByAngle(t *testing.T) {
	cfg := DefaultSynthConfig()

	left, err := Synthesize(NewID(0, 0), cfg)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	right, err := Synthesize(NewID(0, AngleBands-1), cfg)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	l0, r0 := channelEnergy(left)
	l1, r1 := channelEnergy(right)
	if l0 <= r0 {
		t.Errorf("Leftmost cue not louder on the left: L=%v R=%v", l0, r0)
	}
	if r1 <= l1 {
		t.Errorf("Rightmost cue not louder on the right: L=%v R=%v", l1, r1)
	}

	if left.Channels != 2 || left.SampleRate != cfg.SampleRate {
		t.Errorf("Unexpected format: %d ch @ %d Hz", left.Channels, left.SampleRate)
	}
}

func TestSynthesize_HeightRaisesPitch(t *testing.T) {
	cfg := DefaultSynthConfig()
	if cfg.Frequency(7) <= cfg.Frequency(0) {
		t.Errorf("Frequency(7)=%v not above Frequency(0)=%v", cfg.Frequency(7), cfg.Frequency(0))
	}
}

func TestSynthesize_InvalidID(t *testing.T) {
	if _, err := Synthesize("bogus", DefaultSynthConfig()); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}
}

func TestLoadDir_WAV(t *testing.T) {
	dir := t.TempDir()

	clip, err := Synthesize("height2angle_35", DefaultSynthConfig())
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	f, err := os.Create(filepath.Join(dir, "height2angle_35.wav"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := WriteWAV(f, clip); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	f.Close()

	// Files that are not cue clips are ignored.
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("cues"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "intro.wav"), []byte("not a cue"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	n, err := r.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Loaded %d clips, want 1", n)
	}

	got, err := r.Get("height2angle_35")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Channels != 2 || got.SampleRate != clip.SampleRate {
		t.Errorf("Format = %d ch @ %d Hz, want 2 ch @ %d Hz", got.Channels, got.SampleRate, clip.SampleRate)
	}
	if len(got.Samples) != len(clip.Samples) {
		t.Errorf("Loaded %d samples, want %d", len(got.Samples), len(clip.Samples))
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "height0angle5.wav")
	if err := os.WriteFile(bad, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(bad); !errors.Is(err, ErrInvalidClip) {
		t.Errorf("Expected ErrInvalidClip, got %v", err)
	}

	mp3 := filepath.Join(dir, "height0angle5.mp3")
	if err := os.WriteFile(mp3, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(mp3); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}

	if _, err := LoadFromFile(filepath.Join(dir, "notacue.wav")); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}
}

func channelEnergy(c *Clip) (left, right float64) {
	for i := 0; i+1 < len(c.Samples); i += 2 {
		l, r := float64(c.Samples[i]), float64(c.Samples[i+1])
		left += l * l
		right += r * r
	}
	return left, right
}
