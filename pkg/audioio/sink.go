package audioio

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrCleared is returned by Flush when Clear dropped the audio it was
	// waiting for.
	ErrCleared = errors.New("audioio: buffered audio cleared")

	// ErrNotRunning is returned by Write before Start or after Stop.
	ErrNotRunning = errors.New("audioio: sink not running")
)

// Sink is an audio output. Start and Stop may alternate; Close is final.
//
// A cue is played as Write followed by Flush. Clear interrupts it: the
// queued audio is dropped and a pending Flush returns ErrCleared.
type Sink interface {
	Start(ctx context.Context) error
	Stop() error

	// Write queues a chunk, converting it to the sink format if needed.
	Write(ctx context.Context, chunk AudioChunk) error
	// Flush blocks until queued audio has played.
	Flush(ctx context.Context) error
	// Clear drops queued audio.
	Clear() error

	Config() Config
	Name() string
	Stats() SinkStats
	io.Closer
}

// SinkStats counts sink activity.
type SinkStats struct {
	ChunksWritten  int64  `json:"chunks_written"`
	SamplesWritten int64  `json:"samples_written"`
	Clears         int64  `json:"clears"`
	Running        bool   `json:"running"`
	Backend        string `json:"backend"`
}
