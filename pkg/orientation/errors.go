package orientation

import "errors"

var (
	// ErrDegenerate is returned when gravity and geomagnetic vectors cannot
	// form a rotation matrix (zero length, parallel, or non-finite).
	ErrDegenerate = errors.New("degenerate sensor vectors")

	// ErrUnknownKind is returned for a vector kind the estimator does not track.
	ErrUnknownKind = errors.New("unknown vector kind")
)
