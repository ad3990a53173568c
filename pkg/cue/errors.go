package cue

import "errors"

var (
	// ErrNotFound is returned when a cue has no registered clip.
	ErrNotFound = errors.New("cue not found")

	// ErrInvalidID is returned for identifiers outside the cue table.
	ErrInvalidID = errors.New("invalid cue id")

	// ErrInvalidClip is returned when a clip file cannot be decoded.
	ErrInvalidClip = errors.New("invalid cue clip")

	// ErrUnsupportedFormat is returned for clip files with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported clip format")
)
