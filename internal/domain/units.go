package domain

// Conversion constants for depth-over-basin to volumetric flow.
const (
	secondsPerDay = 86400
	mmPerFoot     = 304.8
	sqftPerSqm    = 10.7639
)

// CFSFromDepth converts a depth rate in mm/day over a basin of areaM2
// square meters into cubic feet per second.
func CFSFromDepth(mmDay, areaM2 float64) float64 {
	return mmDay / secondsPerDay / mmPerFoot * (areaM2 * sqftPerSqm)
}

// DepthFromCFS inverts CFSFromDepth for the same basin area.
func DepthFromCFS(cfs, areaM2 float64) float64 {
	return cfs * secondsPerDay * mmPerFoot / (areaM2 * sqftPerSqm)
}

// ConvertToCFS rewrites every value from mm/day to cfs using the basin area
// join. Rows whose location is absent from areas are dropped, not errored:
// the response simply omits basins missing from the reference catalog.
func ConvertToCFS(t Table, areas map[string]float64) Table {
	out := t.Rows[:0]
	for _, r := range t.Rows {
		area, ok := areas[r.Location]
		if !ok {
			continue
		}
		r.Value = CFSFromDepth(r.Value, area)
		out = append(out, r)
	}
	t.Rows = out
	return t
}
