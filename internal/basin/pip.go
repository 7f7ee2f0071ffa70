package basin

// contains reports whether the polygon contains the point: inside the
// exterior ring and outside every hole.
func (p polygon) contains(pt point) bool {
	if len(p.rings) == 0 {
		return false
	}
	if !inBBox(pt, p.bbox) {
		return false
	}
	if !pointInRing(pt, p.rings[0]) {
		return false
	}
	for i := 1; i < len(p.rings); i++ {
		if pointInRing(pt, p.rings[i]) {
			return false
		}
	}
	return true
}

// pointInRing is the even-odd ray-casting test. The tiny epsilon guards the
// division when an edge is horizontal.
func pointInRing(pt point, ring []point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	x, y := pt.Lon, pt.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat
		if ((yi > y) != (yj > y)) && (x < (xj-xi)*(y-yi)/(yj-yi+1e-12)+xi) {
			inside = !inside
		}
	}
	return inside
}

func inBBox(pt point, b [4]float64) bool {
	return pt.Lon >= b[0] && pt.Lon <= b[2] && pt.Lat >= b[1] && pt.Lat <= b[3]
}
