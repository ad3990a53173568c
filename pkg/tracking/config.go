// Package tracking locates the reference object in camera frames and reports
// its image-plane measurement.
package tracking

import "fmt"

// Config holds tunable parameters for template tracking.
type Config struct {
	// MatchThreshold is the minimum normalized correlation for a match.
	MatchThreshold float64 `json:"match_threshold"`

	// Scales are the template sizes tried on every frame, relative to the
	// reference image. More scales follow the object over a wider distance
	// range at a higher cost per frame.
	Scales []float64 `json:"scales"`

	// AreaWeight is how much a larger match is preferred over a more
	// confident one when several scales match (0-1).
	AreaWeight float64 `json:"area_weight"`

	// Smoothing is the weight of the newest measurement (0-1, 1 = off).
	Smoothing float64 `json:"smoothing"`

	// MaxMisses resets smoothing after this many frames without a match.
	MaxMisses int `json:"max_misses"`
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		MatchThreshold: 0.6,
		Scales:         []float64{0.5, 0.7, 1.0, 1.4, 2.0},
		AreaWeight:     0.1,
		Smoothing:      0.6,
		MaxMisses:      5,
	}
}

// FastConfig matches at a single scale. Distance estimates only hold while
// the object stays near the distance the template was captured at.
func FastConfig() Config {
	cfg := DefaultConfig()
	cfg.Scales = []float64{1.0}
	cfg.Smoothing = 0.8
	return cfg
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("match_threshold must be in (0, 1], got %v", c.MatchThreshold)
	}
	if len(c.Scales) == 0 {
		return fmt.Errorf("scales must not be empty")
	}
	for _, s := range c.Scales {
		if s <= 0 {
			return fmt.Errorf("scales must be positive, got %v", s)
		}
	}
	if c.AreaWeight < 0 || c.AreaWeight > 1 {
		return fmt.Errorf("area_weight must be in [0, 1], got %v", c.AreaWeight)
	}
	if c.Smoothing <= 0 || c.Smoothing > 1 {
		return fmt.Errorf("smoothing must be in (0, 1], got %v", c.Smoothing)
	}
	if c.MaxMisses < 0 {
		return fmt.Errorf("max_misses must not be negative, got %d", c.MaxMisses)
	}
	return nil
}
