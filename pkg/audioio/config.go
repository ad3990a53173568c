// Package audioio plays cue audio through the host's sound system by piping
// raw PCM16 into a player process: aplay on Linux (ALSA), sox's play on macOS
// (CoreAudio). A mock backend records audio for tests.
package audioio

import (
	"fmt"
	"time"
)

// Backend names an output implementation.
type Backend string

// Backends. Auto picks the platform player when it is installed and falls
// back to mock.
const (
	BackendAuto      Backend = "auto"
	BackendALSA      Backend = "alsa"
	BackendCoreAudio Backend = "coreaudio"
	BackendMock      Backend = "mock"
)

// ParseBackend converts a backend name to a Backend. Empty means auto.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(name); b {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendALSA, BackendCoreAudio, BackendMock:
		return b, nil
	default:
		return "", fmt.Errorf("unknown audio backend %q", name)
	}
}

// Config describes the output stream. Clips in other formats are converted
// before they reach the device.
type Config struct {
	Backend        Backend       `json:"backend"`
	SampleRate     int           `json:"sample_rate"`     // Hz
	Channels       int           `json:"channels"`        // 1 or 2; cues are panned, so 2
	BufferDuration time.Duration `json:"buffer_duration"` // audio per write to the player
	Device         string        `json:"device"`          // ALSA device such as "plughw:1,0"; ignored elsewhere
}

// DefaultConfig returns stereo 22.05 kHz output on the platform backend.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     22050,
		Channels:       2,
		BufferDuration: 20 * time.Millisecond,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	case c.Channels != 1 && c.Channels != 2:
		return fmt.Errorf("channels must be 1 or 2, got %d", c.Channels)
	case c.BufferDuration <= 0:
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	return nil
}

// BufferSize returns the frames per write.
func (c *Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

