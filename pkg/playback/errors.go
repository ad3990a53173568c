package playback

import "errors"

var (
	// ErrReleased is returned when starting a resource that was already released.
	ErrReleased = errors.New("playback: resource released")

	// ErrAlreadyRunning is returned when starting a loop twice.
	ErrAlreadyRunning = errors.New("playback: loop already running")

	// ErrNoClip is returned when acquiring a nil or empty clip.
	ErrNoClip = errors.New("playback: no clip")
)
