// Package position converts a tracked object's image-plane measurement into a
// physical position (distance, horizontal angle, vertical height) relative to
// the camera.
package position

import (
	"fmt"
	"math"
)

// Constants are the fixed camera and object parameters supplied at startup.
// Lengths share one unit (millimetres in the default configuration); the
// distance is reported in that unit.
type Constants struct {
	FocalLength          float64 `json:"focal_length"`           // lens focal length
	RealObjectWidth      float64 `json:"real_object_width"`      // physical size of the tracked object
	ImageHeightPixels    float64 `json:"image_height_pixels"`    // reference image height
	SensorPhysicalHeight float64 `json:"sensor_physical_height"` // sensor height

	HorizontalFOV float64 `json:"horizontal_fov"` // degrees
	VerticalFOV   float64 `json:"vertical_fov"`   // degrees
	HeightLevels  float64 `json:"height_levels"`  // levels spanned by the vertical FOV
}

// DefaultConstants returns the calibration of the reference headset camera.
func DefaultConstants() Constants {
	return Constants{
		FocalLength:          2.8,
		RealObjectWidth:      127,
		ImageHeightPixels:    512,
		SensorPhysicalHeight: 4,
		HorizontalFOV:        60,
		VerticalFOV:          45,
		HeightLevels:         8,
	}
}

// Validate checks that the constants describe a usable camera.
func (c *Constants) Validate() error {
	if c.FocalLength <= 0 {
		return fmt.Errorf("focal_length must be positive, got %v", c.FocalLength)
	}
	if c.RealObjectWidth <= 0 {
		return fmt.Errorf("real_object_width must be positive, got %v", c.RealObjectWidth)
	}
	if c.ImageHeightPixels <= 0 {
		return fmt.Errorf("image_height_pixels must be positive, got %v", c.ImageHeightPixels)
	}
	if c.SensorPhysicalHeight <= 0 {
		return fmt.Errorf("sensor_physical_height must be positive, got %v", c.SensorPhysicalHeight)
	}
	if c.HorizontalFOV <= 0 || c.HorizontalFOV >= 180 {
		return fmt.Errorf("horizontal_fov must be in (0, 180), got %v", c.HorizontalFOV)
	}
	if c.VerticalFOV <= 0 || c.VerticalFOV >= 180 {
		return fmt.Errorf("vertical_fov must be in (0, 180), got %v", c.VerticalFOV)
	}
	if c.HeightLevels <= 0 {
		return fmt.Errorf("height_levels must be positive, got %v", c.HeightLevels)
	}
	return nil
}

// Measurement is what the tracker reports for one frame. Coordinates are
// pixels with the origin at the top-left corner.
type Measurement struct {
	Found       bool    `json:"found"`
	CenterX     float64 `json:"center_x"`
	CenterY     float64 `json:"center_y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	FrameWidth  float64 `json:"frame_width"`
	FrameHeight float64 `json:"frame_height"`
}

// NotFound returns the measurement for a frame without the object.
func NotFound() Measurement {
	return Measurement{}
}

// State is the estimated object position.
type State struct {
	Distance float64 `json:"distance"` // same unit as Constants lengths
	Angle    float64 `json:"angle"`    // degrees, right of centre positive
	Height   float64 `json:"height"`   // levels above the bottom of the view
}

// InitialState is the position assumed before the first measurement.
func InitialState() State {
	return State{Distance: 100, Angle: 0, Height: 0}
}

// Distance applies the pinhole similar-triangles relation to an apparent
// object height in pixels. It returns false for non-positive pixel heights.
func Distance(pixelHeight float64, c Constants) (float64, bool) {
	if !(pixelHeight > 0) {
		return 0, false
	}
	d := (c.RealObjectWidth * c.FocalLength * c.ImageHeightPixels) /
		(pixelHeight * c.SensorPhysicalHeight)
	return d, isFinite(d)
}

// Angle maps a horizontal pixel position to degrees off the optical axis.
func Angle(centerX, frameWidth, fovDegrees float64) float64 {
	half := frameWidth / 2
	offset := (centerX - half) / half
	return degrees(math.Atan(offset * math.Tan(radians(fovDegrees)/2)))
}

// Elevation maps a vertical pixel position to degrees above the optical axis.
func Elevation(centerY, frameHeight, fovDegrees float64) float64 {
	half := frameHeight / 2
	offset := (half - centerY) / half
	return degrees(math.Atan(offset * math.Tan(radians(fovDegrees)/2)))
}

// Estimate computes a position from a measurement. It returns false when the
// object was not found or the measurement cannot produce finite values.
func Estimate(m Measurement, c Constants) (State, bool) {
	if !m.Found || m.FrameWidth <= 0 || m.FrameHeight <= 0 {
		return State{}, false
	}

	distance, ok := Distance(m.Height, c)
	if !ok {
		return State{}, false
	}

	angle := Angle(m.CenterX, m.FrameWidth, c.HorizontalFOV)
	elevation := Elevation(m.CenterY, m.FrameHeight, c.VerticalFOV)
	height := (elevation + c.VerticalFOV/2) / c.VerticalFOV * c.HeightLevels

	if !isFinite(angle) || !isFinite(height) {
		return State{}, false
	}

	return State{Distance: distance, Angle: angle, Height: height}, true
}

// DistanceCategory returns a human-readable distance category for a distance
// in millimetres.
func DistanceCategory(distance float64) string {
	if distance <= 0 {
		return "unknown"
	}
	if distance < 300 {
		return "very close"
	}
	if distance < 1000 {
		return "close"
	}
	if distance < 2000 {
		return "nearby"
	}
	if distance < 3000 {
		return "moderate"
	}
	return "far"
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
