package cue

import (
	"fmt"
	"strconv"
	"strings"
)

// ID identifies one pre-rendered cue, e.g. "height0angle_85" for height band
// 0 and the band centred on -85°. Negative angles use "_" instead of "-".
type ID string

// NewID builds the identifier for a (height band, angle band) pair.
func NewID(heightBand, angleBand int) ID {
	center := BandCenter(angleBand)
	label := strconv.Itoa(center)
	if center < 0 {
		label = "_" + strconv.Itoa(-center)
	}
	return ID(fmt.Sprintf("height%dangle%s", heightBand, label))
}

// ParseID returns the band pair encoded in id.
func ParseID(id ID) (heightBand, angleBand int, err error) {
	s := string(id)
	if !strings.HasPrefix(s, "height") {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	rest := strings.TrimPrefix(s, "height")

	hs, as, ok := strings.Cut(rest, "angle")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	heightBand, err = strconv.Atoi(hs)
	if err != nil || heightBand < 0 || heightBand >= HeightBands {
		return 0, 0, fmt.Errorf("%w: height in %q", ErrInvalidID, s)
	}

	sign := 1
	if strings.HasPrefix(as, "_") {
		sign = -1
		as = as[1:]
	}
	center, err := strconv.Atoi(as)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: angle in %q", ErrInvalidID, s)
	}
	center *= sign

	if (center+85)%10 != 0 {
		return 0, 0, fmt.Errorf("%w: angle in %q", ErrInvalidID, s)
	}
	angleBand = (center + 85) / 10
	if angleBand < 0 || angleBand >= AngleBands {
		return 0, 0, fmt.Errorf("%w: angle in %q", ErrInvalidID, s)
	}

	return heightBand, angleBand, nil
}

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }
