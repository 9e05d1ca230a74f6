package trace

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/dpup/routescore/internal/lib/geo"
)

// ReadGeoJSON loads every LineString and MultiPoint feature of a GeoJSON
// FeatureCollection as a route. Features are named by their "name"
// property, falling back to feature-<index>. Other geometry types are
// skipped.
func ReadGeoJSON(r io.Reader) ([]NamedRoute, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read GeoJSON")
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse GeoJSON feature collection")
	}

	var routes []NamedRoute
	for i, feature := range fc.Features {
		var coords []orb.Point
		switch g := feature.Geometry.(type) {
		case orb.LineString:
			coords = g
		case orb.MultiPoint:
			coords = g
		default:
			continue
		}

		routes = append(routes, NamedRoute{
			Name:  featureName(feature, i),
			Route: routeFromOrb(coords),
		})
	}

	if len(routes) == 0 {
		return nil, errors.New("GeoJSON contains no LineString or MultiPoint features")
	}
	return routes, nil
}

// WriteGeoJSON writes routes as a FeatureCollection of LineStrings
func WriteGeoJSON(w io.Writer, routes ...NamedRoute) error {
	fc := geojson.NewFeatureCollection()
	for _, r := range routes {
		feature := geojson.NewFeature(routeToOrb(r.Route))
		feature.Properties["name"] = r.Name
		fc.Append(feature)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "failed to encode GeoJSON")
	}
	_, err = w.Write(data)
	return err
}

func featureName(f *geojson.Feature, index int) string {
	if name, ok := f.Properties["name"].(string); ok && name != "" {
		return name
	}
	if id, ok := f.ID.(string); ok && id != "" {
		return id
	}
	return fmt.Sprintf("feature-%d", index)
}

// GeoJSON positions are (lon, lat)
func routeFromOrb(coords []orb.Point) geo.Route {
	points := make([]geo.Point, len(coords))
	for i, c := range coords {
		points[i] = geo.NewPoint(c.Lat(), c.Lon())
	}
	return geo.NewRouteFromPoints(points)
}

func routeToOrb(route geo.Route) orb.LineString {
	points := route.Points()
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = orb.Point{p.Y, p.X}
	}
	return ls
}
