// Package basin holds the static HUC10 reference catalog: basin metadata,
// polygon geometry for point containment queries, and derived areas for
// unit conversion. The catalog is loaded once at startup and never mutated
// at request time.
package basin

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
)

// Catalog is the in-memory basin polygon catalog.
type Catalog struct {
	basins []domain.Basin
	byID   map[string]int
	polys  map[string][]polygon
}

// Load reads a GeoJSON FeatureCollection whose features carry "location",
// "group" and "name" properties with Polygon or MultiPolygon geometry.
// Basin areas are derived from the geometry once and cached.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read basin catalog: %w", err)
	}
	var fc geoJSONCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("decode basin catalog: %w", err)
	}

	c := &Catalog{
		byID:  make(map[string]int, len(fc.Features)),
		polys: make(map[string][]polygon, len(fc.Features)),
	}
	for i, f := range fc.Features {
		loc := f.property("location")
		if loc == "" {
			return nil, fmt.Errorf("basin catalog feature %d has no location property", i)
		}
		polys, err := parsePolygons(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("basin %s: %w", loc, err)
		}
		c.byID[loc] = len(c.basins)
		c.polys[loc] = polys
		c.basins = append(c.basins, domain.Basin{
			Location: loc,
			Group:    f.property("group"),
			Name:     f.property("name"),
			AreaM2:   areaM2(polys),
		})
	}
	sort.Slice(c.basins, func(i, j int) bool { return c.basins[i].Location < c.basins[j].Location })
	for i, b := range c.basins {
		c.byID[b.Location] = i
	}
	return c, nil
}

// Len returns the number of catalogued basins.
func (c *Catalog) Len() int { return len(c.basins) }

// All returns every basin, sorted by location.
func (c *Catalog) All() []domain.Basin { return c.basins }

// Get looks up one basin by HUC10 identifier.
func (c *Catalog) Get(location string) (domain.Basin, bool) {
	i, ok := c.byID[location]
	if !ok {
		return domain.Basin{}, false
	}
	return c.basins[i], true
}

// ResolvePoints returns the identifiers of every basin whose polygon
// contains at least one of the given points (parallel lat/lon slices,
// matched by index). It fails with domain.ErrNotFound when nothing matches.
func (c *Catalog) ResolvePoints(lats, lons []float64) ([]string, error) {
	matched := make(map[string]struct{})
	for i := range lats {
		pt := point{Lat: lats[i], Lon: lons[i]}
		for _, b := range c.basins {
			if _, done := matched[b.Location]; done {
				continue
			}
			for _, poly := range c.polys[b.Location] {
				if poly.contains(pt) {
					matched[b.Location] = struct{}{}
					break
				}
			}
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: no basins contain the given latitude and longitude", domain.ErrNotFound)
	}
	out := make([]string, 0, len(matched))
	for loc := range matched {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out, nil
}

// Areas returns the location→area join map for the given basins. Locations
// missing from the catalog are simply absent from the result.
func (c *Catalog) Areas(locations []string) map[string]float64 {
	out := make(map[string]float64, len(locations))
	for _, loc := range locations {
		if b, ok := c.Get(loc); ok {
			out[loc] = b.AreaM2
		}
	}
	return out
}

// Meters per degree of latitude, and of longitude at the equator.
const (
	metersPerDegLat = 110_574.0
	metersPerDegLon = 111_320.0
)

// areaM2 approximates the geodesic area with a planar shoelace after an
// equirectangular projection about each polygon's mean latitude. Holes
// subtract, multipolygon parts add. Adequate for HUC10-scale basins; the
// upstream system derives the same quantity with an equal-area reprojection.
func areaM2(polys []polygon) float64 {
	var total float64
	for _, p := range polys {
		if len(p.rings) == 0 {
			continue
		}
		latMid := (p.bbox[1] + p.bbox[3]) / 2
		cosLat := math.Cos(latMid * math.Pi / 180)
		total += ringArea(p.rings[0], cosLat)
		for _, hole := range p.rings[1:] {
			total -= ringArea(hole, cosLat)
		}
	}
	return total
}

func ringArea(ring []point, cosLat float64) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi := ring[i].Lon * metersPerDegLon * cosLat
		yi := ring[i].Lat * metersPerDegLat
		xj := ring[j].Lon * metersPerDegLon * cosLat
		yj := ring[j].Lat * metersPerDegLat
		sum += xj*yi - xi*yj
	}
	return math.Abs(sum) / 2
}
