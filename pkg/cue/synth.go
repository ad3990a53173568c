package cue

import (
	"fmt"
	"math"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/transforms"
)

// SynthConfig controls the generated placeholder cues used when no recorded
// clip exists for a table entry. Height raises the pitch, angle pans the tone
// between the ears.
type SynthConfig struct {
	SampleRate       int           `json:"sample_rate"`
	Duration         time.Duration `json:"duration"`
	BaseFrequency    float64       `json:"base_frequency"`     // Hz at height band 0
	SemitonesPerBand float64       `json:"semitones_per_band"` // pitch step between height bands
	Amplitude        float64       `json:"amplitude"`          // 0-1 peak level
	Fade             time.Duration `json:"fade"`               // attack and release ramp
}

// DefaultSynthConfig returns short, clearly separated tones.
func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		SampleRate:       22050,
		Duration:         350 * time.Millisecond,
		BaseFrequency:    330,
		SemitonesPerBand: 2,
		Amplitude:        0.6,
		Fade:             20 * time.Millisecond,
	}
}

// Validate checks that the configuration is usable.
func (c *SynthConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", c.Duration)
	}
	if c.BaseFrequency <= 0 {
		return fmt.Errorf("base_frequency must be positive, got %v", c.BaseFrequency)
	}
	if c.Amplitude <= 0 || c.Amplitude > 1 {
		return fmt.Errorf("amplitude must be in (0, 1], got %v", c.Amplitude)
	}
	return nil
}

// Frequency returns the tone frequency for a height band.
func (c *SynthConfig) Frequency(heightBand int) float64 {
	return c.BaseFrequency * math.Pow(2, float64(heightBand)*c.SemitonesPerBand/12)
}

// Pan returns the stereo balance for an angle band: 0 full left, 1 full right.
func Pan(angleBand int) float64 {
	return (float64(BandCenter(angleBand)) + 90) / 180
}

// Synthesize renders the placeholder stereo clip for a cue.
func Synthesize(id ID, cfg SynthConfig) (*Clip, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h, a, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	frames := int(cfg.Duration.Seconds() * float64(cfg.SampleRate))
	fade := int(cfg.Fade.Seconds() * float64(cfg.SampleRate))
	freq := cfg.Frequency(h)

	buf := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: cfg.SampleRate},
		Data:   make([]float64, frames*2),
	}
	for i := 0; i < frames; i++ {
		v := math.Sin(2 * math.Pi * freq * float64(i) / float64(cfg.SampleRate))
		v *= envelope(i, frames, fade)
		buf.Data[2*i] = v
		buf.Data[2*i+1] = v
	}

	if err := transforms.StereoPan(buf, Pan(a)); err != nil {
		return nil, fmt.Errorf("pan %s: %w", id, err)
	}
	transforms.NormalizeMax(buf)

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v * cfg.Amplitude * math.MaxInt16)
	}

	return &Clip{
		ID:         id,
		Samples:    samples,
		SampleRate: cfg.SampleRate,
		Channels:   2,
		Source:     "synth",
	}, nil
}

// envelope is a linear attack/release ramp.
func envelope(i, frames, fade int) float64 {
	if fade <= 0 {
		return 1
	}
	if i < fade {
		return float64(i) / float64(fade)
	}
	if tail := frames - 1 - i; tail < fade {
		return float64(tail) / float64(fade)
	}
	return 1
}
