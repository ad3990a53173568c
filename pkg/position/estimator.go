package position

import (
	"sync/atomic"
)

// Estimator holds the last known position. A measurement that cannot be
// estimated leaves the previous state in place; the state is never reset.
type Estimator struct {
	constants Constants
	state     atomic.Pointer[State]

	accepted atomic.Int64
	retained atomic.Int64
}

// NewEstimator creates an estimator starting at InitialState.
func NewEstimator(c Constants) *Estimator {
	e := &Estimator{constants: c}
	initial := InitialState()
	e.state.Store(&initial)
	return e
}

// Update estimates a new position from m. It returns the state now current
// and whether it was recomputed.
func (e *Estimator) Update(m Measurement) (State, bool) {
	next, ok := Estimate(m, e.constants)
	if !ok {
		e.retained.Add(1)
		return *e.state.Load(), false
	}
	e.state.Store(&next)
	e.accepted.Add(1)
	return next, true
}

// Current returns the last known position.
func (e *Estimator) Current() State {
	return *e.state.Load()
}

// Constants returns the camera constants in use.
func (e *Estimator) Constants() Constants {
	return e.constants
}

// Stats returns how many measurements were accepted and how many left the
// state unchanged.
func (e *Estimator) Stats() (accepted, retained int64) {
	return e.accepted.Load(), e.retained.Load()
}
