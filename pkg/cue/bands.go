// Package cue maps a position to one of the pre-rendered binaural audio cues
// and keeps the registry of playable cue clips.
//
// Positions are discretised into 8 height bands and 18 angle bands. The angle
// band is chosen by an ordered scan over ascending thresholds with "≤"
// semantics, so a value exactly on a threshold belongs to the band below it.
package cue

import "math"

const (
	// HeightBands is the number of height bands: [0,1) … [6,7) and [7,∞).
	HeightBands = 8

	// AngleBands is the number of angle bands: 17 bounded bands of 10° plus
	// the open band above the last threshold.
	AngleBands = 18

	maxHeightBand = HeightBands - 1
)

// AngleThresholds are the inclusive upper bounds of the bounded angle bands,
// in scan order.
var AngleThresholds = func() [AngleBands - 1]float64 {
	var t [AngleBands - 1]float64
	for i := range t {
		t[i] = -80 + 10*float64(i)
	}
	return t
}()

// HeightBand returns floor(clamp(h, 0, 7)). Negative heights map to band 0.
// Anything at or above 7 maps to band 7, and so does NaN, which fails every
// lower bound.
func HeightBand(h float64) int {
	if h < 0 {
		return 0
	}
	if math.IsNaN(h) || h >= maxHeightBand {
		return maxHeightBand
	}
	return int(math.Floor(h))
}

// AngleBand returns the first band whose threshold the angle does not
// exceed, or the open top band when it exceeds all of them.
func AngleBand(a float64) int {
	for i, t := range AngleThresholds {
		if a <= t {
			return i
		}
	}
	return AngleBands - 1
}

// BandCenter returns the nominal angle of an angle band: -85, -75 … 85.
func BandCenter(band int) int {
	return -85 + 10*band
}
