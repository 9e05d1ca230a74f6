package trace

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// Supported input formats
const (
	FormatAuto     = "auto"
	FormatPolyline = "polyline"
	FormatGeoJSON  = "geojson"
	FormatEdges    = "edges"
)

// Load reads routes from a file. With FormatAuto the format follows the
// extension: .geojson/.json are GeoJSON, .edges is edge geometry and
// anything else holds one encoded polyline per line.
func Load(path, format string) ([]NamedRoute, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	if format == "" || format == FormatAuto {
		format = detectFormat(path)
	}

	switch format {
	case FormatGeoJSON:
		return ReadGeoJSON(bytes.NewReader(data))
	case FormatEdges:
		edges, err := ReadEdgeGeometry(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if len(edges) == 0 {
			return nil, errors.Newf("%s contains no edges", path)
		}
		routes := make([]NamedRoute, len(edges))
		for i, e := range edges {
			routes[i] = NamedRoute{Name: fmt.Sprintf("edge-%d", e.EdgeID), Route: e.Route}
		}
		return routes, nil
	case FormatPolyline:
		return readPolylines(path, string(data))
	default:
		return nil, errors.Newf("unknown route format %q", format)
	}
}

func detectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return FormatGeoJSON
	case ".edges":
		return FormatEdges
	default:
		return FormatPolyline
	}
}

func readPolylines(path, contents string) ([]NamedRoute, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var routes []NamedRoute
	for i, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		route, err := DecodePolyline(line)
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", path, i+1)
		}
		routes = append(routes, NamedRoute{Name: fmt.Sprintf("%s-%d", base, len(routes)), Route: route})
	}

	if len(routes) == 0 {
		return nil, errors.Newf("%s contains no polylines", path)
	}
	return routes, nil
}
