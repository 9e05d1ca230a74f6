// Package trace loads and writes routes in the file formats the scoring
// tool consumes: Google encoded polylines, GeoJSON, GIS-Cup edge geometry
// and KML. Latitude is mapped to X and longitude to Y throughout.
package trace

import (
	"github.com/dpup/routescore/internal/lib/geo"
)

// NamedRoute is a route with the label it was loaded under
type NamedRoute struct {
	Name  string    `json:"name"`
	Route geo.Route `json:"-"`
}

// EdgeRoute is the geometry of one road network edge
type EdgeRoute struct {
	EdgeID uint64    `json:"edge_id"`
	Route  geo.Route `json:"-"`
}
