package tracking

import "errors"

var (
	// ErrNoTemplate is returned when tracking before a template is set.
	ErrNoTemplate = errors.New("tracking: no template")

	// ErrEmptyFrame is returned for empty frames or templates.
	ErrEmptyFrame = errors.New("tracking: empty image")
)
