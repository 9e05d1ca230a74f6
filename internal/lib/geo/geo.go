package geo

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/golang/geo/r2"
)

// Route is an ordered polyline. Segment i joins point i and point i+1.
// Routes are read-only after construction and safe for concurrent use.
type Route struct {
	points []Point
}

// NewRoute builds a route from raw (x, y) pairs
func NewRoute(coords [][2]float64) Route {
	points := make([]Point, len(coords))
	for i, c := range coords {
		points[i] = Point{X: c[0], Y: c[1]}
	}
	return Route{points: points}
}

// NewRouteFromPoints builds a route from a copy of points
func NewRouteFromPoints(points []Point) Route {
	cp := make([]Point, len(points))
	copy(cp, points)
	return Route{points: cp}
}

// Size returns the number of points
func (r Route) Size() int {
	return len(r.points)
}

// PointAt returns the point at index
func (r Route) PointAt(index int) (Point, error) {
	if index < 0 || index >= len(r.points) {
		return Point{}, errors.Mark(
			errors.Newf("point index %d outside route of %d points", index, len(r.points)),
			ErrIndexOutOfRange,
		)
	}
	return r.points[index], nil
}

// Points returns a copy of the route's points
func (r Route) Points() []Point {
	cp := make([]Point, len(r.points))
	copy(cp, r.points)
	return cp
}

// Segments returns the segments joining consecutive points
func (r Route) Segments() []Segment {
	if len(r.points) < 2 {
		return nil
	}
	segments := make([]Segment, 0, len(r.points)-1)
	for i := 0; i < len(r.points)-1; i++ {
		segments = append(segments, NewSegment(r.points[i], r.points[i+1]))
	}
	return segments
}

// Length returns the summed length of all segments
func (r Route) Length() float64 {
	total := 0.0
	for i := 0; i < len(r.points)-1; i++ {
		total += NewSegment(r.points[i], r.points[i+1]).Length()
	}
	return total
}

// Bounds returns the bounding rectangle of the route, empty for a route
// without points.
func (r Route) Bounds() r2.Rect {
	rect := r2.EmptyRect()
	for _, p := range r.points {
		rect = rect.AddPoint(p.R2())
	}
	return rect
}

// AverageDistanceTo averages, over every point of r, the distance to the
// closest segment of other. The measure is one-directional:
// a.AverageDistanceTo(b) generally differs from b.AverageDistanceTo(a).
func (r Route) AverageDistanceTo(other Route) (float64, error) {
	return r.AverageDistanceUsing(other, Clamped)
}

// AverageDistanceUsing is AverageDistanceTo with a custom segment distance
func (r Route) AverageDistanceUsing(other Route, dist DistanceFunc) (float64, error) {
	if len(r.points) < 1 {
		return 0, errors.WithHint(
			errors.Mark(errors.New("route has no points to average over"), ErrInvalidArgument),
			"the measured route needs at least 1 point",
		)
	}
	if len(other.points) < 2 {
		return 0, errors.WithHint(
			errors.Mark(
				errors.Newf("other route has %d points and no segments", len(other.points)),
				ErrInvalidArgument,
			),
			"the route measured against needs at least 2 points",
		)
	}

	sum := 0.0
	for _, p := range r.points {
		minDist := dist(NewSegment(other.points[0], other.points[1]), p)
		for j := 1; j < len(other.points)-1; j++ {
			d := dist(NewSegment(other.points[j], other.points[j+1]), p)
			// Legacy distances may be NaN; a NaN never stays the minimum
			// while a real value exists
			if d < minDist || math.IsNaN(minDist) {
				minDist = d
			}
		}
		sum += minDist
	}

	return sum / float64(len(r.points)), nil
}
