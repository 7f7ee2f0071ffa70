package basin

import (
	"encoding/json"
	"fmt"
)

// point is a WGS-84 coordinate.
type point struct {
	Lat float64
	Lon float64
}

// polygon is a GeoJSON-convention ring set: the first ring is the exterior,
// any further rings are holes. The bbox is a cheap prefilter for
// containment tests.
type polygon struct {
	rings [][]point
	bbox  [4]float64 // minLon, minLat, maxLon, maxLat
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type geoJSONFeature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   geoJSONGeometry `json:"geometry"`
}

type geoJSONCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

// parsePolygons decodes a Polygon or MultiPolygon geometry into ring lists.
func parsePolygons(g geoJSONGeometry) ([]polygon, error) {
	switch g.Type {
	case "Polygon":
		var coords [][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decode polygon coordinates: %w", err)
		}
		return []polygon{newPolygon(coords)}, nil
	case "MultiPolygon":
		var coords [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
			return nil, fmt.Errorf("decode multipolygon coordinates: %w", err)
		}
		polys := make([]polygon, 0, len(coords))
		for _, part := range coords {
			polys = append(polys, newPolygon(part))
		}
		return polys, nil
	}
	return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
}

func newPolygon(coords [][][]float64) polygon {
	var p polygon
	for _, ring := range coords {
		pts := make([]point, 0, len(ring))
		for _, c := range ring {
			if len(c) < 2 {
				continue
			}
			pts = append(pts, point{Lon: c[0], Lat: c[1]})
		}
		p.rings = append(p.rings, pts)
	}
	p.bbox = computeBBox(p)
	return p
}

func computeBBox(p polygon) [4]float64 {
	b := [4]float64{180, 90, -180, -90}
	for _, ring := range p.rings {
		for _, pt := range ring {
			if pt.Lon < b[0] {
				b[0] = pt.Lon
			}
			if pt.Lat < b[1] {
				b[1] = pt.Lat
			}
			if pt.Lon > b[2] {
				b[2] = pt.Lon
			}
			if pt.Lat > b[3] {
				b[3] = pt.Lat
			}
		}
	}
	return b
}

// property reads a string property, tolerating absent keys.
func (f geoJSONFeature) property(key string) string {
	if v, ok := f.Properties[key].(string); ok {
		return v
	}
	return ""
}
