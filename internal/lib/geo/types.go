package geo

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/golang/geo/r2"
)

var (
	// ErrIndexOutOfRange is returned when a point index falls outside a route
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidArgument is returned when a route is too short for a distance query
	ErrInvalidArgument = errors.New("invalid argument")
)

// Point is a planar coordinate. Latitude/longitude inputs are used as X/Y
// without projection.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint creates a Point from raw coordinates
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Dot returns the dot product of p and other
func (p Point) Dot(other Point) float64 {
	return p.X*other.X + p.Y*other.Y
}

// Magnitude returns the Euclidean length of p treated as a vector
func (p Point) Magnitude() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y)
}

// Unit returns p scaled to length 1. The zero vector maps to itself.
func (p Point) Unit() Point {
	m := p.Magnitude()
	if m == 0 {
		return Point{}
	}
	return Point{X: p.X / m, Y: p.Y / m}
}

// Sub returns p - other
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Add returns p + other
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Scale returns p scaled by k
func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// R2 converts p to an r2.Point
func (p Point) R2() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// DistanceFunc measures the distance from a point to a segment
type DistanceFunc func(s Segment, p Point) float64

// Clamped is the endpoint-clamped perpendicular distance
func Clamped(s Segment, p Point) float64 {
	return s.DistanceToPoint(p)
}

// Legacy reproduces the historical route-distance formula, see
// Segment.LegacyDistanceToPoint
func Legacy(s Segment, p Point) float64 {
	return s.LegacyDistanceToPoint(p)
}
