package web

import (
	"fmt"

	"github.com/teslashibe/go-eyehelper/pkg/orientation"
	"github.com/teslashibe/go-eyehelper/pkg/position"
)

// unknown is shown for orientation fields before the first fused sample.
const unknown = "--"

// Readout is the text the dashboard shows for the current estimates.
// Distance, angle and height use one decimal. Azimuth and roll are shown
// in degrees, pitch stays in radians, all with two decimals.
type Readout struct {
	Distance string `json:"distance"`
	Angle    string `json:"angle"`
	Height   string `json:"height"`
	Azimuth  string `json:"azimuth"`
	Pitch    string `json:"pitch"`
	Roll     string `json:"roll"`
}

// NewReadout formats a position and an optional orientation sample.
func NewReadout(p position.State, o orientation.Sample, haveOrientation bool) Readout {
	r := Readout{
		Distance: fmt.Sprintf("%.1f", p.Distance),
		Angle:    fmt.Sprintf("%.1f", p.Angle),
		Height:   fmt.Sprintf("%.1f", p.Height),
		Azimuth:  unknown,
		Pitch:    unknown,
		Roll:     unknown,
	}
	if haveOrientation {
		r.Azimuth = fmt.Sprintf("%.2f", o.AzimuthDegrees())
		r.Pitch = fmt.Sprintf("%.2f", o.Pitch)
		r.Roll = fmt.Sprintf("%.2f", o.RollDegrees())
	}
	return r
}
