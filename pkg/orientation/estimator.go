package orientation

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Estimator keeps the latest vector of each kind and the last good fused
// orientation. Update may be called from any number of sensor goroutines;
// Current is lock-free.
type Estimator struct {
	mu          sync.Mutex
	gravity     *Vector
	geomagnetic *Vector

	latest   atomic.Pointer[Sample]
	updates  atomic.Int64
	rejected atomic.Int64
}

// NewEstimator creates an estimator with no orientation yet.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Update records v as the latest vector of the given kind and re-fuses using
// the most recent value of each kind. Degenerate pairs keep the previous
// orientation and return ErrDegenerate. Until both kinds have been seen it
// returns nil and Current stays absent.
func (e *Estimator) Update(kind Kind, v Vector) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	vec := v
	switch kind {
	case KindAcceleration:
		e.gravity = &vec
	case KindMagnetic:
		e.geomagnetic = &vec
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
	e.updates.Add(1)

	if e.gravity == nil || e.geomagnetic == nil {
		return nil
	}

	sample, err := Fuse(*e.gravity, *e.geomagnetic)
	if err != nil {
		e.rejected.Add(1)
		return err
	}
	e.latest.Store(&sample)
	return nil
}

// Current returns the last good orientation, or false if none has been
// computed yet.
func (e *Estimator) Current() (Sample, bool) {
	s := e.latest.Load()
	if s == nil {
		return Sample{}, false
	}
	return *s, true
}

// Stats returns how many vectors were recorded and how many fusions were
// rejected as degenerate.
func (e *Estimator) Stats() (updates, rejected int64) {
	return e.updates.Load(), e.rejected.Load()
}
