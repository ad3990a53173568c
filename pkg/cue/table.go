package cue

import (
	"github.com/teslashibe/go-eyehelper/pkg/position"
)

// Table binds every (height band, angle band) pair to a cue id.
type Table [HeightBands][AngleBands]ID

// NewTable generates the full 8×18 table.
func NewTable() *Table {
	var t Table
	for h := 0; h < HeightBands; h++ {
		for a := 0; a < AngleBands; a++ {
			t[h][a] = NewID(h, a)
		}
	}
	return &t
}

// Lookup returns the cue for a continuous height and angle.
func (t *Table) Lookup(height, angle float64) ID {
	return t[HeightBand(height)][AngleBand(angle)]
}

// All returns all ids, height-major.
func (t *Table) All() []ID {
	ids := make([]ID, 0, HeightBands*AngleBands)
	for h := range t {
		for a := range t[h] {
			ids = append(ids, t[h][a])
		}
	}
	return ids
}

// Selector resolves positions to cues. It is safe for concurrent use; the
// table is never mutated after construction.
type Selector struct {
	table *Table
}

// NewSelector creates a selector over the generated table.
func NewSelector() *Selector {
	return &Selector{table: NewTable()}
}

// Select returns the cue for a position. Every position maps to exactly one
// cue; distance does not take part.
func (s *Selector) Select(p position.State) ID {
	return s.table.Lookup(p.Height, p.Angle)
}

// Table returns the selector's table.
func (s *Selector) Table() *Table {
	return s.table
}

// InitialCue is the cue assumed before any position has been estimated.
func InitialCue() ID {
	return NewID(0, 0)
}
