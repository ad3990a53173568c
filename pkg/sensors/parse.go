package sensors

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/teslashibe/go-eyehelper/pkg/orientation"
)

// Android sensor type names used by the SensorServer app.
const (
	AndroidAccelerometer = "android.sensor.accelerometer"
	AndroidMagneticField = "android.sensor.magnetic_field"
	AndroidGravity       = "android.sensor.gravity"
)

// sensorServerMessage is one event from the SensorServer Android app.
type sensorServerMessage struct {
	Type      string    `json:"type"`
	Values    []float64 `json:"values"`
	Timestamp int64     `json:"timestamp"` // nanoseconds since boot
	Accuracy  int       `json:"accuracy"`
}

// kindForAndroid maps an Android sensor type to a reading kind.
func kindForAndroid(sensorType string) (orientation.Kind, bool) {
	switch sensorType {
	case AndroidAccelerometer, AndroidGravity:
		return orientation.KindAcceleration, true
	case AndroidMagneticField:
		return orientation.KindMagnetic, true
	default:
		return 0, false
	}
}

// ParseSensorServer decodes a SensorServer JSON event. Single-sensor
// connections omit "type"; fallback is used for them.
func ParseSensorServer(data []byte, fallback string) (Reading, error) {
	var msg sensorServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg.Type == "" {
		msg.Type = fallback
	}
	kind, ok := kindForAndroid(msg.Type)
	if !ok {
		return Reading{}, fmt.Errorf("%w: unsupported sensor %q", ErrMalformed, msg.Type)
	}
	if len(msg.Values) < 3 {
		return Reading{}, fmt.Errorf("%w: %d values", ErrMalformed, len(msg.Values))
	}
	return newReading(kind, msg.Values[0], msg.Values[1], msg.Values[2])
}

// ParseLine decodes the serial line protocol: "A x y z" for acceleration,
// "M x y z" for the magnetic field. Fields are separated by spaces or commas.
func ParseLine(line string) (Reading, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(line), func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	if len(fields) != 4 {
		return Reading{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}

	var kind orientation.Kind
	switch strings.ToUpper(fields[0]) {
	case "A":
		kind = orientation.KindAcceleration
	case "M":
		kind = orientation.KindMagnetic
	default:
		return Reading{}, fmt.Errorf("%w: unknown tag %q", ErrMalformed, fields[0])
	}

	var v [3]float64
	for i := range v {
		f, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return Reading{}, fmt.Errorf("%w: %q", ErrMalformed, line)
		}
		v[i] = f
	}
	return newReading(kind, v[0], v[1], v[2])
}

// FormatLine encodes a reading in the serial line protocol.
func FormatLine(r Reading) string {
	tag := "A"
	if r.Kind == orientation.KindMagnetic {
		tag = "M"
	}
	return fmt.Sprintf("%s %g %g %g", tag, r.Values.X, r.Values.Y, r.Values.Z)
}

func newReading(kind orientation.Kind, x, y, z float64) (Reading, error) {
	for _, f := range []float64{x, y, z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Reading{}, fmt.Errorf("%w: non-finite value", ErrMalformed)
		}
	}
	return Reading{
		Kind:      kind,
		Values:    orientation.Vector{X: x, Y: y, Z: z},
		Timestamp: time.Now(),
	}, nil
}
