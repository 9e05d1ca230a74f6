package geo

import (
	"math"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func TestPoint_Dot(t *testing.T) {
	assert.Equal(t, 11.0, NewPoint(1, 2).Dot(NewPoint(3, 4)))
	assert.Equal(t, 0.0, NewPoint(1, 0).Dot(NewPoint(0, 7)), "orthogonal vectors")
	assert.Equal(t, -5.0, NewPoint(-1, 2).Dot(NewPoint(1, -2)))
}

func TestPoint_Magnitude(t *testing.T) {
	assert.Equal(t, 5.0, NewPoint(3, 4).Magnitude())
	assert.Equal(t, 5.0, NewPoint(-3, -4).Magnitude())
	assert.Equal(t, 0.0, Point{}.Magnitude())
}

func TestPoint_Unit(t *testing.T) {
	u := NewPoint(3, 4).Unit()
	assert.InDelta(t, 0.6, u.X, epsilon)
	assert.InDelta(t, 0.8, u.Y, epsilon)
	assert.InDelta(t, 1.0, u.Magnitude(), epsilon)

	// Zero vector has no direction and stays zero instead of dividing by 0
	assert.Equal(t, Point{}, Point{}.Unit())
}

func TestPoint_Arithmetic(t *testing.T) {
	p := NewPoint(1, 2)
	q := NewPoint(4, 6)

	assert.Equal(t, NewPoint(3, 4), q.Sub(p))
	assert.Equal(t, NewPoint(5, 8), q.Add(p))
	assert.Equal(t, NewPoint(2, 4), p.Scale(2))
	assert.Equal(t, 4.0, q.R2().X)
	assert.Equal(t, 6.0, q.R2().Y)
}

func TestSegment_SquaredLength(t *testing.T) {
	s := NewSegment(NewPoint(1, 1), NewPoint(4, 5))
	assert.Equal(t, 25.0, s.SquaredLength())
	assert.Equal(t, 5.0, s.Length())

	degenerate := NewSegment(NewPoint(2, 2), NewPoint(2, 2))
	assert.Equal(t, 0.0, degenerate.SquaredLength())
}

func TestSegment_DistanceToPoint(t *testing.T) {
	s := NewSegment(NewPoint(0, 0), NewPoint(10, 0))

	// Above the middle of the segment: perpendicular distance
	assert.InDelta(t, 5.0, s.DistanceToPoint(NewPoint(5, 5)), epsilon)

	// Behind P1: distance to P1
	assert.InDelta(t, 3.0, s.DistanceToPoint(NewPoint(-3, 0)), epsilon)
	assert.InDelta(t, 5.0, s.DistanceToPoint(NewPoint(-3, 4)), epsilon)

	// Past P2: distance to P2
	assert.InDelta(t, 3.0, s.DistanceToPoint(NewPoint(13, 0)), epsilon)
	assert.InDelta(t, 5.0, s.DistanceToPoint(NewPoint(13, -4)), epsilon)

	// Below the segment
	assert.InDelta(t, 2.5, s.DistanceToPoint(NewPoint(7.5, -2.5)), epsilon)
}

func TestSegment_DistanceToPointOnSegment(t *testing.T) {
	s := NewSegment(NewPoint(1, 1), NewPoint(7, 9))

	for _, tt := range []float64{0, 0.1, 0.25, 0.5, 0.9, 1} {
		onSegment := s.P1.Add(s.P2.Sub(s.P1).Scale(tt))
		assert.InDelta(t, 0.0, s.DistanceToPoint(onSegment), 1e-6, "t=%v", tt)
	}
}

func TestSegment_DistanceToPointDiagonal(t *testing.T) {
	s := NewSegment(NewPoint(0, 0), NewPoint(4, 4))

	// (0,4) projects onto (2,2), distance sqrt(8)
	assert.InDelta(t, math.Sqrt(8), s.DistanceToPoint(NewPoint(0, 4)), epsilon)

	// Reversing the segment does not change the distance
	reversed := NewSegment(s.P2, s.P1)
	assert.InDelta(t, math.Sqrt(8), reversed.DistanceToPoint(NewPoint(0, 4)), epsilon)
}

func TestSegment_DistanceToPointDegenerate(t *testing.T) {
	s := NewSegment(NewPoint(2, 3), NewPoint(2, 3))

	assert.InDelta(t, 5.0, s.DistanceToPoint(NewPoint(5, 7)), epsilon)
	assert.Equal(t, 0.0, s.DistanceToPoint(NewPoint(2, 3)))
}

func TestSegment_DistanceToPointNonNegative(t *testing.T) {
	segments := []Segment{
		NewSegment(NewPoint(0, 0), NewPoint(10, 0)),
		NewSegment(NewPoint(-3, 7), NewPoint(2, -1)),
		NewSegment(NewPoint(1e6, 1e6), NewPoint(1e6+1e-3, 1e6)),
		NewSegment(NewPoint(5, 5), NewPoint(5, 5)),
	}
	points := []Point{
		{0, 0}, {5, 5}, {-100, 3}, {1e6, 1e6 + 1}, {2, -1}, {0.5, 3.5},
	}

	for _, s := range segments {
		for _, p := range points {
			d := s.DistanceToPoint(p)
			assert.False(t, math.IsNaN(d), "segment %v point %v", s, p)
			assert.GreaterOrEqual(t, d, 0.0, "segment %v point %v", s, p)
		}
	}
}

func TestSegment_LegacyDistanceToPoint(t *testing.T) {
	s := NewSegment(NewPoint(0, 0), NewPoint(10, 0))

	// Past P2 the legacy value is the square root of the endpoint distance
	assert.InDelta(t, math.Sqrt(3), s.LegacyDistanceToPoint(NewPoint(13, 0)), epsilon)

	// Within the segment it takes sqrt(h - proj²)
	want := math.Sqrt(math.Sqrt(1.25) - 0.25)
	assert.InDelta(t, want, s.LegacyDistanceToPoint(NewPoint(0.5, 1)), epsilon)

	// h - proj² goes negative for most points, giving NaN
	assert.True(t, math.IsNaN(s.LegacyDistanceToPoint(NewPoint(5, 5))))

	// Behind P1 the within-segment branch still runs
	assert.True(t, math.IsNaN(s.LegacyDistanceToPoint(NewPoint(-3, 0))))
}

func TestRoute_SizeAndPointAt(t *testing.T) {
	route := NewRoute([][2]float64{{0, 0}, {1, 2}, {3, 4}})
	assert.Equal(t, 3, route.Size())

	p, err := route.PointAt(1)
	require.NoError(t, err)
	assert.Equal(t, NewPoint(1, 2), p)

	p, err = route.PointAt(2)
	require.NoError(t, err)
	assert.Equal(t, NewPoint(3, 4), p)

	_, err = route.PointAt(3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = route.PointAt(-1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = NewRoute(nil).PointAt(0)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestRoute_Immutable(t *testing.T) {
	points := []Point{{0, 0}, {1, 1}}
	route := NewRouteFromPoints(points)

	points[0] = NewPoint(99, 99)
	p, err := route.PointAt(0)
	require.NoError(t, err)
	assert.Equal(t, NewPoint(0, 0), p, "route keeps its own copy of the input")

	out := route.Points()
	out[1] = NewPoint(42, 42)
	p, err = route.PointAt(1)
	require.NoError(t, err)
	assert.Equal(t, NewPoint(1, 1), p, "Points returns a copy")
}

func TestRoute_Segments(t *testing.T) {
	route := NewRoute([][2]float64{{0, 0}, {3, 4}, {3, 10}})

	segments := route.Segments()
	require.Len(t, segments, 2)
	assert.Equal(t, NewSegment(NewPoint(0, 0), NewPoint(3, 4)), segments[0])
	assert.Equal(t, NewSegment(NewPoint(3, 4), NewPoint(3, 10)), segments[1])
	assert.Equal(t, 11.0, route.Length())

	assert.Nil(t, NewRoute([][2]float64{{1, 1}}).Segments())
	assert.Equal(t, 0.0, NewRoute(nil).Length())
}

func TestRoute_Bounds(t *testing.T) {
	route := NewRoute([][2]float64{{2, -1}, {-3, 4}, {5, 0}})

	bounds := route.Bounds()
	assert.Equal(t, -3.0, bounds.Lo().X)
	assert.Equal(t, -1.0, bounds.Lo().Y)
	assert.Equal(t, 5.0, bounds.Hi().X)
	assert.Equal(t, 4.0, bounds.Hi().Y)

	assert.True(t, NewRoute(nil).Bounds().IsEmpty())
}

func TestRoute_AverageDistanceToSelf(t *testing.T) {
	route := NewRoute([][2]float64{{0, 0}, {4, 3}, {10, 1}, {12, 8}})

	d, err := route.AverageDistanceTo(route)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, d, epsilon)
}

func TestRoute_AverageDistanceTo(t *testing.T) {
	reference := NewRoute([][2]float64{{0, 0}, {10, 0}})

	// Points at heights 0, 2 and 4 above the reference line
	candidate := NewRoute([][2]float64{{1, 0}, {5, 2}, {9, 4}})

	d, err := candidate.AverageDistanceTo(reference)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, d, epsilon)

	// Nearest segment is chosen per point
	corner := NewRoute([][2]float64{{0, 0}, {10, 0}, {10, 10}})
	probe := NewRoute([][2]float64{{5, 1}, {9, 5}})
	d, err = probe.AverageDistanceTo(corner)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d, epsilon)
}

func TestRoute_AverageDistanceAsymmetric(t *testing.T) {
	a := NewRoute([][2]float64{{0, 0}, {10, 0}})
	b := NewRoute([][2]float64{{0, 0}, {10, 0}, {10, 10}})

	ab, err := a.AverageDistanceTo(b)
	require.NoError(t, err)
	ba, err := b.AverageDistanceTo(a)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, ab, epsilon)
	assert.InDelta(t, 10.0/3.0, ba, epsilon)
	assert.NotEqual(t, ab, ba)
}

func TestRoute_AverageDistanceScaleAndTranslate(t *testing.T) {
	a := [][2]float64{{0, 0}, {4, 3}, {10, 1}, {7, -6}}
	b := [][2]float64{{1, 1}, {5, 5}, {9, -2}, {12, 0}}

	base, err := NewRoute(a).AverageDistanceTo(NewRoute(b))
	require.NoError(t, err)
	require.Greater(t, base, 0.0)

	transform := func(coords [][2]float64, k, dx, dy float64) Route {
		out := make([][2]float64, len(coords))
		for i, c := range coords {
			out[i] = [2]float64{c[0]*k + dx, c[1]*k + dy}
		}
		return NewRoute(out)
	}

	for _, k := range []float64{0.5, 2, 37.25} {
		scaled, err := transform(a, k, 0, 0).AverageDistanceTo(transform(b, k, 0, 0))
		require.NoError(t, err)
		assert.InDelta(t, base*k, scaled, 1e-7, "scale %v", k)
	}

	for _, offset := range [][2]float64{{100, -50}, {-3.5, 8}, {-122.4, 37.7}} {
		moved, err := transform(a, 1, offset[0], offset[1]).AverageDistanceTo(transform(b, 1, offset[0], offset[1]))
		require.NoError(t, err)
		assert.InDelta(t, base, moved, 1e-7, "offset %v", offset)
	}
}

func TestRoute_AverageDistanceInvalidArgument(t *testing.T) {
	valid := NewRoute([][2]float64{{0, 0}, {1, 1}})

	// Other route without a segment
	_, err := valid.AverageDistanceTo(NewRoute([][2]float64{{0, 0}}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.NotEmpty(t, errors.GetAllHints(err))

	_, err = valid.AverageDistanceTo(NewRoute(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	// Empty measured route
	_, err = NewRoute(nil).AverageDistanceTo(valid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.False(t, errors.Is(err, ErrIndexOutOfRange))

	// A single point may be measured against a route
	d, err := NewRoute([][2]float64{{0, 3}}).AverageDistanceTo(valid)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(5), d, epsilon, "projection runs past P2")
}

func TestRoute_AverageDistanceDegenerateSegments(t *testing.T) {
	// Repeated points produce zero-length segments that act as points
	other := NewRoute([][2]float64{{0, 0}, {0, 0}, {0, 0}})
	route := NewRoute([][2]float64{{3, 4}})

	d, err := route.AverageDistanceTo(other)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, epsilon)
}

func TestRoute_AverageDistanceUsingLegacy(t *testing.T) {
	reference := NewRoute([][2]float64{{0, 0}, {10, 0}, {20, 0}})

	// (13,0): first segment gives sqrt(3), second segment gives
	// sqrt(sqrt(9)-9) = NaN, which never replaces a real minimum
	route := NewRoute([][2]float64{{13, 0}})
	d, err := route.AverageDistanceUsing(reference, Legacy)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(3), d, epsilon)

	clamped, err := route.AverageDistanceUsing(reference, Clamped)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, clamped, epsilon)
}

func TestRoute_ConcurrentReads(t *testing.T) {
	a := NewRoute([][2]float64{{0, 0}, {10, 0}, {10, 10}})
	b := NewRoute([][2]float64{{0, 1}, {10, 1}})

	want, err := b.AverageDistanceTo(a)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = b.AverageDistanceTo(a)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
