// Package orientation fuses accelerometer and magnetometer vectors into a
// device orientation (azimuth, pitch, roll).
//
// The fusion follows the usual rotation-matrix construction: gravity defines
// "down", the magnetic field with its gravity-aligned component removed
// defines the horizontal reference, and the resulting world-to-device matrix
// is decomposed into Euler angles.
package orientation

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// StandardGravity is Earth gravity in m/s².
const StandardGravity = 9.80665

const (
	// minHorizontalNorm rejects magnetic/gravity pairs that are nearly
	// parallel (free fall, magnetic pole, zero field).
	minHorizontalNorm = 0.1

	// minGravityNormSq rejects accelerometer readings below 10% of g
	// (squared norm under 0.01·g²), the device being in free fall.
	minGravityNormSq = 0.01 * StandardGravity * StandardGravity
)

// Kind tags a raw vector with the sensor it came from.
type Kind int

const (
	// KindAcceleration is a gravity-like vector (accelerometer).
	KindAcceleration Kind = iota
	// KindMagnetic is a geomagnetic vector (magnetometer).
	KindMagnetic
)

// String returns the kind name used in logs and wire formats.
func (k Kind) String() string {
	switch k {
	case KindAcceleration:
		return "acceleration"
	case KindMagnetic:
		return "magnetic"
	default:
		return "unknown"
	}
}

// Vector is a raw 3-axis sensor reading in device coordinates.
type Vector = r3.Vec

// Sample is a fused orientation. All angles are radians.
type Sample struct {
	Azimuth float64 `json:"azimuth"`
	Pitch   float64 `json:"pitch"`
	Roll    float64 `json:"roll"`
}

// AzimuthDegrees returns the azimuth in degrees.
func (s Sample) AzimuthDegrees() float64 { return s.Azimuth * 180 / math.Pi }

// PitchDegrees returns the pitch in degrees.
func (s Sample) PitchDegrees() float64 { return s.Pitch * 180 / math.Pi }

// RollDegrees returns the roll in degrees.
func (s Sample) RollDegrees() float64 { return s.Roll * 180 / math.Pi }

// RotationMatrix computes the rotation matrix that maps device coordinates to
// world coordinates (X east, Y magnetic north, Z up) from a gravity and a
// geomagnetic vector. It returns false when the inputs are degenerate.
func RotationMatrix(gravity, geomagnetic Vector) (*mat.Dense, bool) {
	if !finite(gravity) || !finite(geomagnetic) {
		return nil, false
	}
	if r3.Norm2(gravity) < minGravityNormSq {
		return nil, false
	}

	h := r3.Cross(geomagnetic, gravity)
	normH := r3.Norm(h)
	if normH < minHorizontalNorm {
		return nil, false
	}

	h = r3.Scale(1/normH, h)
	a := r3.Unit(gravity)
	m := r3.Cross(a, h)

	return mat.NewDense(3, 3, []float64{
		h.X, h.Y, h.Z,
		m.X, m.Y, m.Z,
		a.X, a.Y, a.Z,
	}), true
}

// Decompose extracts azimuth, pitch and roll from a rotation matrix built by
// RotationMatrix.
func Decompose(r mat.Matrix) Sample {
	return Sample{
		Azimuth: math.Atan2(r.At(0, 1), r.At(1, 1)),
		Pitch:   math.Asin(clamp(-r.At(2, 1), -1, 1)),
		Roll:    math.Atan2(-r.At(2, 0), r.At(2, 2)),
	}
}

// Fuse combines a gravity and geomagnetic vector into an orientation sample.
func Fuse(gravity, geomagnetic Vector) (Sample, error) {
	r, ok := RotationMatrix(gravity, geomagnetic)
	if !ok {
		return Sample{}, ErrDegenerate
	}
	return Decompose(r), nil
}

func finite(v Vector) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
