package tracking

// Detection is one candidate match. Coordinates are normalized to 0-1 with
// X, Y at the top-left corner of the box.
type Detection struct {
	X, Y       float64
	W, H       float64
	Confidence float64
}

// Center returns the center point of the detection.
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box.
func (d Detection) Area() float64 {
	return d.W * d.H
}

// SelectBest picks the best detection, scoring
// confidence*(1-areaWeight) + relativeArea*areaWeight.
func SelectBest(dets []Detection, areaWeight float64) *Detection {
	if len(dets) == 0 {
		return nil
	}
	if len(dets) == 1 {
		return &dets[0]
	}

	maxArea := 0.0
	for _, d := range dets {
		if d.Area() > maxArea {
			maxArea = d.Area()
		}
	}

	bestScore := -1.0
	var best *Detection
	for i := range dets {
		rel := 0.0
		if maxArea > 0 {
			rel = dets[i].Area() / maxArea
		}
		score := dets[i].Confidence*(1-areaWeight) + rel*areaWeight
		if score > bestScore {
			bestScore = score
			best = &dets[i]
		}
	}
	return best
}
