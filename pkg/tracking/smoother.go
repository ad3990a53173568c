package tracking

import "github.com/teslashibe/go-eyehelper/pkg/position"

// Smoother exponentially smooths consecutive measurements to damp
// frame-to-frame jitter of the match location.
type Smoother struct {
	factor    float64
	maxMisses int

	last   position.Measurement
	has    bool
	misses int
}

// NewSmoother creates a smoother. factor is the weight of the newest reading.
func NewSmoother(factor float64, maxMisses int) *Smoother {
	return &Smoother{factor: factor, maxMisses: maxMisses}
}

// Apply returns the smoothed measurement. Misses pass through unchanged and
// enough of them in a row forget the history.
func (s *Smoother) Apply(m position.Measurement) position.Measurement {
	if !m.Found {
		s.misses++
		if s.misses > s.maxMisses {
			s.has = false
		}
		return m
	}
	s.misses = 0

	if s.has && s.last.FrameWidth == m.FrameWidth && s.last.FrameHeight == m.FrameHeight {
		m.CenterX = s.blend(m.CenterX, s.last.CenterX)
		m.CenterY = s.blend(m.CenterY, s.last.CenterY)
		m.Width = s.blend(m.Width, s.last.Width)
		m.Height = s.blend(m.Height, s.last.Height)
	}
	s.last = m
	s.has = true
	return m
}

func (s *Smoother) blend(current, previous float64) float64 {
	return s.factor*current + (1-s.factor)*previous
}

// ConsecutiveMisses returns how many frames in a row had no match.
func (s *Smoother) ConsecutiveMisses() int {
	return s.misses
}

// Reset forgets all history.
func (s *Smoother) Reset() {
	s.has = false
	s.misses = 0
}
