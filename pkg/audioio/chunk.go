package audioio

import "time"

// AudioChunk represents a chunk of interleaved PCM16 audio.
type AudioChunk struct {
	// Samples contains interleaved PCM16 samples.
	Samples []int16

	// SampleRate is the sample rate of this chunk.
	SampleRate int

	// Channels is the number of channels in this chunk.
	Channels int
}

// Bytes returns the chunk as little-endian PCM16 bytes.
func (c *AudioChunk) Bytes() []byte {
	return SamplesToBytes(c.Samples)
}

// FromBytes populates the chunk from raw PCM16 bytes.
func (c *AudioChunk) FromBytes(data []byte, sampleRate, channels int) {
	c.SampleRate = sampleRate
	c.Channels = channels
	c.Samples = BytesToSamples(data)
}

// Frames returns the number of sample frames in the chunk.
func (c *AudioChunk) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the playback length of this chunk.
func (c *AudioChunk) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Split cuts the chunk into pieces of at most frames frames each.
func (c *AudioChunk) Split(frames int) []AudioChunk {
	if frames <= 0 || c.Channels <= 0 {
		return []AudioChunk{*c}
	}
	step := frames * c.Channels
	var out []AudioChunk
	for i := 0; i < len(c.Samples); i += step {
		end := min(i+step, len(c.Samples))
		out = append(out, AudioChunk{
			Samples:    c.Samples[i:end],
			SampleRate: c.SampleRate,
			Channels:   c.Channels,
		})
	}
	return out
}
