package cue

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/teslashibe/go-eyehelper/pkg/position"
)

func TestHeightBand(t *testing.T) {
	tests := []struct {
		h    float64
		want int
	}{
		{0, 0},
		{0.999, 0},
		{1, 1},
		{3.5, 3},
		{6.999, 6},
		{7.0, 7},
		{1e9, 7},
		{math.Inf(1), 7},
		{-0.5, 0},
		{math.NaN(), 7},
	}

	for _, tt := range tests {
		if got := HeightBand(tt.h); got != tt.want {
			t.Errorf("HeightBand(%v) = %d, want %d", tt.h, got, tt.want)
		}
	}
}

func TestAngleBand_Boundaries(t *testing.T) {
	tests := []struct {
		a          float64
		wantCenter int
	}{
		{-90, -85},
		{-80, -85},
		{-79.999, -75},
		{-0.001, -5},
		{0, -5},
		{0.001, 5},
		{10, 5},
		{10.001, 15},
		{80, 75},
		{80.001, 85},
		{179, 85},
	}

	for _, tt := range tests {
		if got := BandCenter(AngleBand(tt.a)); got != tt.wantCenter {
			t.Errorf("AngleBand(%v) centre = %d, want %d", tt.a, got, tt.wantCenter)
		}
	}
}

func TestAngleBand_Monotonic(t *testing.T) {
	prev := AngleBand(-200)
	for a := -200.0; a <= 200; a += 0.25 {
		b := AngleBand(a)
		if b < prev {
			t.Fatalf("AngleBand not monotonic at %v: %d after %d", a, b, prev)
		}
		if b < 0 || b >= AngleBands {
			t.Fatalf("AngleBand(%v) = %d out of range", a, b)
		}
		prev = b
	}
}

// ladder is the decision rule written out as an explicit ordered scan for
// one height band, the shape the table replaces.
func ladder(angle float64) int {
	switch {
	case angle <= -80:
		return 0
	case angle <= -70:
		return 1
	case angle <= -60:
		return 2
	case angle <= -50:
		return 3
	case angle <= -40:
		return 4
	case angle <= -30:
		return 5
	case angle <= -20:
		return 6
	case angle <= -10:
		return 7
	case angle <= 0:
		return 8
	case angle <= 10:
		return 9
	case angle <= 20:
		return 10
	case angle <= 30:
		return 11
	case angle <= 40:
		return 12
	case angle <= 50:
		return 13
	case angle <= 60:
		return 14
	case angle <= 70:
		return 15
	case angle <= 80:
		return 16
	default:
		return 17
	}
}

func TestTable_ParityWithThresholdRule(t *testing.T) {
	table := NewTable()

	var probes []float64
	for _, th := range AngleThresholds {
		probes = append(probes, th-1e-6, th, th+1e-6)
	}
	probes = append(probes, -1000, -90, 90, 1000)

	heights := []float64{0, 0.5, 1, 2.25, 3, 4.75, 5, 6.999, 7, 12}

	for _, h := range heights {
		for _, a := range probes {
			want := NewID(HeightBand(h), ladder(a))
			if got := table.Lookup(h, a); got != want {
				t.Errorf("Lookup(%v, %v) = %s, want %s", h, a, got, want)
			}
		}
	}
}

func TestTable_AllDistinct(t *testing.T) {
	table := NewTable()
	all := table.All()

	if len(all) != HeightBands*AngleBands {
		t.Fatalf("Expected %d ids, got %d", HeightBands*AngleBands, len(all))
	}

	seen := make(map[ID]bool, len(all))
	for _, id := range all {
		if seen[id] {
			t.Errorf("Duplicate id %s", id)
		}
		seen[id] = true
	}

	wantRow0 := []ID{
		"height0angle_85", "height0angle_75", "height0angle_65", "height0angle_55",
		"height0angle_45", "height0angle_35", "height0angle_25", "height0angle_15",
		"height0angle_5", "height0angle5", "height0angle15", "height0angle25",
		"height0angle35", "height0angle45", "height0angle55", "height0angle65",
		"height0angle75", "height0angle85",
	}
	if diff := cmp.Diff(wantRow0, all[:AngleBands]); diff != "" {
		t.Errorf("Height 0 row mismatch (-want +got):\n%s", diff)
	}
	if all[len(all)-1] != "height7angle85" {
		t.Errorf("Last id = %s, want height7angle85", all[len(all)-1])
	}
}

func TestSelector_BoundaryAtTen(t *testing.T) {
	s := NewSelector()

	atZero := s.Select(position.State{Height: 0, Angle: 0})
	atTen := s.Select(position.State{Height: 0, Angle: 10})
	if atZero == atTen {
		t.Errorf("Angles 0 and 10 both map to %s", atZero)
	}
	if atZero != "height0angle_5" || atTen != "height0angle5" {
		t.Errorf("Got %s and %s, want height0angle_5 and height0angle5", atZero, atTen)
	}
}

func TestSelector_IgnoresDistance(t *testing.T) {
	s := NewSelector()
	near := s.Select(position.State{Distance: 10, Height: 2, Angle: 33})
	far := s.Select(position.State{Distance: 9000, Height: 2, Angle: 33})
	if near != far {
		t.Errorf("Distance changed the cue: %s vs %s", near, far)
	}
}

func TestSelector_SweepVisitsEveryAngleBandInOrder(t *testing.T) {
	s := NewSelector()

	var seq []ID
	for a := -90.0; a <= 90.0; a += 0.5 {
		id := s.Select(position.State{Height: 0, Angle: a})
		if len(seq) == 0 || seq[len(seq)-1] != id {
			seq = append(seq, id)
		}
	}

	want := NewTable()[0][:]
	if diff := cmp.Diff(want, seq); diff != "" {
		t.Errorf("Sweep sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestInitialCue(t *testing.T) {
	if InitialCue() != "height0angle_85" {
		t.Errorf("InitialCue = %s, want height0angle_85", InitialCue())
	}
}
