package geometry

import "math"

// PolygonArea returns the area enclosed by a polygon using the shoelace formula.
// The ring is closed implicitly; the result does not depend on winding order
// or on which vertex the list starts at. Fewer than 3 points yields 0.
func PolygonArea(polygon []Point2D) float64 {
	n := len(polygon)
	if n < 3 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return math.Abs(sum) / 2
}

// PointInPolygon tests if a point is strictly inside a polygon using ray
// casting. Points on an edge may go either way; see PointOnBoundary.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// boundaryEpsilon absorbs rounding in the collinearity test.
const boundaryEpsilon = 1e-9

// PointOnBoundary reports whether p lies on an edge or vertex of polygon.
// The ring is closed implicitly.
func PointOnBoundary(p Point2D, polygon []Point2D) bool {
	n := len(polygon)
	if n < 2 {
		return false
	}
	for i := 0; i < n; i++ {
		a, b := polygon[i], polygon[(i+1)%n]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		if math.Abs(cross) > boundaryEpsilon {
			continue
		}
		if p.X >= math.Min(a.X, b.X)-boundaryEpsilon && p.X <= math.Max(a.X, b.X)+boundaryEpsilon &&
			p.Y >= math.Min(a.Y, b.Y)-boundaryEpsilon && p.Y <= math.Max(a.Y, b.Y)+boundaryEpsilon {
			return true
		}
	}
	return false
}

// PointInOrOnPolygon reports whether p is inside polygon or on its boundary.
func PointInOrOnPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}
	return PointOnBoundary(p, polygon) || PointInPolygon(p, polygon)
}
