package geo

import "math"

// Segment is a straight piece between two route points. P1 is the origin
// used for projection, so order matters.
type Segment struct {
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
}

// NewSegment creates a segment from p1 to p2
func NewSegment(p1, p2 Point) Segment {
	return Segment{P1: p1, P2: p2}
}

// SquaredLength returns the squared distance between the endpoints. Zero
// means the segment is degenerate.
func (s Segment) SquaredLength() float64 {
	dx := s.P1.X - s.P2.X
	dy := s.P1.Y - s.P2.Y
	return dx*dx + dy*dy
}

// Length returns the distance between the endpoints
func (s Segment) Length() float64 {
	return math.Sqrt(s.SquaredLength())
}

// DistanceToPoint returns the distance from point to the nearest location
// on the segment. Projections falling before P1 or past P2 are clamped to
// that endpoint; a degenerate segment behaves as the single point P1.
func (s Segment) DistanceToPoint(point Point) float64 {
	v := point.Sub(s.P1)
	lengthSq := s.SquaredLength()
	if lengthSq == 0 {
		return v.Magnitude()
	}

	proj := v.Dot(s.P2.Sub(s.P1).Unit())

	switch {
	case proj <= 0:
		// Nearest P1
		return v.Magnitude()
	case proj*proj >= lengthSq:
		// Nearest P2
		return point.Sub(s.P2).Magnitude()
	}

	// Right triangle p1, point, foot of the projection
	perpSq := v.Dot(v) - proj*proj
	if perpSq < 0 {
		// rounding on nearly collinear points
		return 0
	}
	return math.Sqrt(perpSq)
}

// LegacyDistanceToPoint reproduces the distance used by the PHP GIS-Cup
// route scorer so historical scores can be compared. It is not a true
// distance: the within-segment branch subtracts a squared length from a
// length, the nearest-P1 result is always overwritten, and the result is
// square-rooted once more. Values may be NaN.
func (s Segment) LegacyDistanceToPoint(point Point) float64 {
	v := point.Sub(s.P1)
	proj := v.Dot(s.P2.Sub(s.P1).Unit())

	var distance float64
	if proj*proj >= s.SquaredLength() {
		distance = point.Sub(s.P2).Magnitude()
	} else {
		distance = v.Magnitude() - proj*proj
	}
	return math.Sqrt(distance)
}
