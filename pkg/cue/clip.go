package cue

import (
	"time"

	"github.com/teslashibe/go-eyehelper/pkg/audioio"
)

// Clip is a decoded cue ready for playback. Samples are interleaved PCM16.
type Clip struct {
	ID         ID
	Samples    []int16
	SampleRate int
	Channels   int
	Source     string // file path, or "synth" for generated clips
}

// Duration returns the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	frames := len(c.Samples) / c.Channels
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// Chunk returns the clip as an audio chunk.
func (c *Clip) Chunk() audioio.AudioChunk {
	return audioio.AudioChunk{
		Samples:    c.Samples,
		SampleRate: c.SampleRate,
		Channels:   c.Channels,
	}
}
