package trace

import (
	"io"

	"github.com/twpayne/go-kml"
)

// WriteKML writes routes as one LineString placemark each, for viewing a
// candidate against its reference in Google Earth or QGIS
func WriteKML(w io.Writer, title string, routes ...NamedRoute) error {
	doc := kml.Document(kml.Name(title))

	for _, r := range routes {
		points := r.Route.Points()
		coords := make([]kml.Coordinate, len(points))
		for i, p := range points {
			coords[i] = kml.Coordinate{Lon: p.Y, Lat: p.X}
		}

		doc.Add(kml.Placemark(
			kml.Name(r.Name),
			kml.LineString(kml.Coordinates(coords...)),
		))
	}

	return kml.KML(doc).WriteIndent(w, "", "  ")
}
