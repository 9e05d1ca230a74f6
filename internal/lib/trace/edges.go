package trace

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dpup/routescore/internal/lib/geo"
)

const (
	edgeHeaderFields = 4
	maxEdgeLine      = 1 << 20
)

// ReadEdgeGeometry parses a road network edge geometry file as published
// for the ACM SIGSPATIAL GIS Cup. Each line holds
//
//	edgeID^name^type^length^lat^lon^lat^lon...
//
// Only the edge ID and the coordinate pairs are kept. Blank lines are
// skipped.
func ReadEdgeGeometry(r io.Reader) ([]EdgeRoute, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEdgeLine)

	var edges []EdgeRoute
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		edge, err := parseEdgeLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "edge geometry line %d", lineNo)
		}
		edges = append(edges, edge)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read edge geometry")
	}

	return edges, nil
}

func parseEdgeLine(line string) (EdgeRoute, error) {
	fields := strings.Split(strings.TrimSuffix(line, "^"), "^")
	if len(fields) < edgeHeaderFields {
		return EdgeRoute{}, errors.Newf("expected at least %d fields, got %d", edgeHeaderFields, len(fields))
	}

	edgeID, err := strconv.ParseUint(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return EdgeRoute{}, errors.Wrapf(err, "invalid edge id %q", fields[0])
	}

	coords := fields[edgeHeaderFields:]
	if len(coords)%2 != 0 {
		return EdgeRoute{}, errors.Newf("edge %d has an unpaired coordinate", edgeID)
	}

	points := make([]geo.Point, 0, len(coords)/2)
	for i := 0; i < len(coords); i += 2 {
		lat, err := strconv.ParseFloat(strings.TrimSpace(coords[i]), 64)
		if err != nil {
			return EdgeRoute{}, errors.Wrapf(err, "edge %d: invalid latitude %q", edgeID, coords[i])
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(coords[i+1]), 64)
		if err != nil {
			return EdgeRoute{}, errors.Wrapf(err, "edge %d: invalid longitude %q", edgeID, coords[i+1])
		}
		points = append(points, geo.NewPoint(lat, lon))
	}

	return EdgeRoute{EdgeID: edgeID, Route: geo.NewRouteFromPoints(points)}, nil
}
