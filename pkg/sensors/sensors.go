// Package sensors delivers raw accelerometer and magnetometer vectors from
// phones, serial IMUs and test fixtures to registered listeners.
package sensors

import (
	"context"
	"errors"
	"time"

	"github.com/teslashibe/go-eyehelper/pkg/orientation"
)

// ErrMalformed is returned for readings that cannot be parsed.
var ErrMalformed = errors.New("sensors: malformed reading")

// Reading is one raw vector from one sensor.
type Reading struct {
	Kind      orientation.Kind   `json:"kind"`
	Values    orientation.Vector `json:"values"`
	Timestamp time.Time          `json:"timestamp"`
}

// Listener receives readings. Calls may come from several goroutines.
type Listener interface {
	OnReading(r Reading)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(r Reading)

// OnReading calls f(r).
func (f ListenerFunc) OnReading(r Reading) { f(r) }

// Stream is a source of readings. Run delivers readings to l until ctx is
// done or the source fails, and returns nil only when ctx ended it.
type Stream interface {
	Name() string
	Run(ctx context.Context, l Listener) error
}

// EstimatorListener feeds readings into an orientation estimator.
func EstimatorListener(est *orientation.Estimator) Listener {
	return ListenerFunc(func(r Reading) {
		est.Update(r.Kind, r.Values)
	})
}
