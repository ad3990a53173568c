package sensors

import (
	"errors"
	"testing"

	"github.com/teslashibe/go-eyehelper/pkg/orientation"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		kind orientation.Kind
		want orientation.Vector
	}{
		{"A 0.1 0.2 9.8", orientation.KindAcceleration, orientation.Vector{X: 0.1, Y: 0.2, Z: 9.8}},
		{"M,22.5,-4,-40.25", orientation.KindMagnetic, orientation.Vector{X: 22.5, Y: -4, Z: -40.25}},
		{"  a\t1 2 3  ", orientation.KindAcceleration, orientation.Vector{X: 1, Y: 2, Z: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			r, err := ParseLine(tt.line)
			if err != nil {
				t.Fatalf("ParseLine failed: %v", err)
			}
			if r.Kind != tt.kind || r.Values != tt.want {
				t.Errorf("ParseLine = %v %+v, want %v %+v", r.Kind, r.Values, tt.kind, tt.want)
			}
		})
	}
}

func TestParseLine_Malformed(t *testing.T) {
	for _, line := range []string{
		"",
		"A 1 2",
		"A 1 2 3 4",
		"G 1 2 3",
		"A x 2 3",
		"M NaN 0 0",
		"M 1 +Inf 0",
	} {
		if _, err := ParseLine(line); !errors.Is(err, ErrMalformed) {
			t.Errorf("ParseLine(%q) = %v, want ErrMalformed", line, err)
		}
	}
}

func TestFormatLine_RoundTrip(t *testing.T) {
	in := Reading{Kind: orientation.KindMagnetic, Values: orientation.Vector{X: 1.5, Y: -2, Z: 40}}
	out, err := ParseLine(FormatLine(in))
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}
	if out.Kind != in.Kind || out.Values != in.Values {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestParseSensorServer(t *testing.T) {
	r, err := ParseSensorServer([]byte(`{"type":"android.sensor.accelerometer","values":[0.5,0.1,9.7],"timestamp":123,"accuracy":3}`), "")
	if err != nil {
		t.Fatalf("ParseSensorServer failed: %v", err)
	}
	if r.Kind != orientation.KindAcceleration || r.Values.Z != 9.7 {
		t.Errorf("reading = %+v", r)
	}

	r, err = ParseSensorServer([]byte(`{"values":[20,0,-40]}`), AndroidMagneticField)
	if err != nil {
		t.Fatalf("ParseSensorServer with fallback failed: %v", err)
	}
	if r.Kind != orientation.KindMagnetic {
		t.Errorf("kind = %v, want magnetic", r.Kind)
	}
}

func TestParseSensorServer_Malformed(t *testing.T) {
	for _, data := range []string{
		`not json`,
		`{"type":"android.sensor.gyroscope","values":[1,2,3]}`,
		`{"type":"android.sensor.accelerometer","values":[1,2]}`,
		`{"values":[1,2,3]}`,
	} {
		if _, err := ParseSensorServer([]byte(data), ""); !errors.Is(err, ErrMalformed) {
			t.Errorf("ParseSensorServer(%s) = %v, want ErrMalformed", data, err)
		}
	}
}

func TestParsePushed(t *testing.T) {
	if r, err := parsePushed([]byte(" M 1 2 3\n"), ""); err != nil || r.Kind != orientation.KindMagnetic {
		t.Errorf("line: %+v, %v", r, err)
	}
	if r, err := parsePushed([]byte(`{"type":"android.sensor.gravity","values":[0,0,9.8]}`), ""); err != nil || r.Kind != orientation.KindAcceleration {
		t.Errorf("json: %+v, %v", r, err)
	}
}

func TestPortOptions(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if opts.BaudRate != 115200 || opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Errorf("defaults = %+v", opts)
	}

	mode, err := PortOptions{BaudRate: 9600, StopBits: 2, Parity: "even"}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode failed: %v", err)
	}
	if mode.BaudRate != 9600 {
		t.Errorf("BaudRate = %d, want 9600", mode.BaudRate)
	}

	for _, bad := range []PortOptions{{DataBits: 9}, {StopBits: 3}, {Parity: "mark"}} {
		if _, err := bad.Normalize(); err == nil {
			t.Errorf("Normalize accepted %+v", bad)
		}
	}
}
