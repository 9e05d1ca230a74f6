package trace

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/twpayne/go-polyline"

	"github.com/dpup/routescore/internal/lib/geo"
)

// DecodePolyline decodes a Google encoded polyline into a route
func DecodePolyline(encoded string) (geo.Route, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return geo.Route{}, errors.New("encoded polyline string is empty")
	}

	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return geo.Route{}, errors.Wrap(err, "failed to decode polyline")
	}
	if len(rest) > 0 {
		return geo.Route{}, errors.Newf("failed to decode polyline: %d trailing bytes", len(rest))
	}

	points := make([]geo.Point, len(coords))
	for i, coord := range coords {
		points[i] = geo.NewPoint(coord[0], coord[1])
	}
	return geo.NewRouteFromPoints(points), nil
}

// EncodePolyline encodes a route as a Google encoded polyline (5 decimal
// places of precision)
func EncodePolyline(route geo.Route) string {
	points := route.Points()
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.X, p.Y}
	}
	return string(polyline.EncodeCoords(coords))
}
