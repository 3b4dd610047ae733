package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolygonAreaSquare(t *testing.T) {
	square := []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	assert.InDelta(t, 100.0, PolygonArea(square), 1e-9)
}

func TestPolygonAreaInvariantUnderReversalAndRotation(t *testing.T) {
	polygons := [][]Point2D{
		{{0, 0}, {4, 0}, {0, 3}},
		{{1, 1}, {7, 2}, {8, 6}, {3, 9}, {0, 5}},
		{{0, 0}, {10, 0}, {10, 10}, {5, 4}, {0, 10}}, // concave
	}

	for _, poly := range polygons {
		want := PolygonArea(poly)
		assert.Greater(t, want, 0.0)

		reversed := make([]Point2D, len(poly))
		for i, p := range poly {
			reversed[len(poly)-1-i] = p
		}
		assert.InDelta(t, want, PolygonArea(reversed), 1e-9, "reversed")

		for shift := 1; shift < len(poly); shift++ {
			rotated := append(append([]Point2D{}, poly[shift:]...), poly[:shift]...)
			assert.InDelta(t, want, PolygonArea(rotated), 1e-9, "rotated by %d", shift)
		}
	}
}

func TestPolygonAreaDegenerate(t *testing.T) {
	assert.Equal(t, 0.0, PolygonArea(nil))
	assert.Equal(t, 0.0, PolygonArea([]Point2D{{0, 0}, {1, 1}}))
}

func TestDistance(t *testing.T) {
	a := Point2D{X: 1, Y: 2}
	b := Point2D{X: 4, Y: 6}
	assert.InDelta(t, 5.0, a.Distance(b), 1e-12)
	assert.InDelta(t, math.Sqrt(2), Point2D{}.Distance(Point2D{X: 1, Y: 1}), 1e-12)
}

func TestPointInPolygon(t *testing.T) {
	tri := []Point2D{{0, 0}, {10, 0}, {0, 10}}
	assert.True(t, PointInPolygon(Point2D{2, 2}, tri))
	assert.False(t, PointInPolygon(Point2D{8, 8}, tri))
	assert.False(t, PointInPolygon(Point2D{1, 1}, tri[:2]))
}

func TestPairRoundTrip(t *testing.T) {
	p := Point2D{X: 3.5, Y: -1.25}
	assert.Equal(t, p, FromPair(p.Pair()))
}

func TestBoundingBox(t *testing.T) {
	pts := []Point2D{{1, 2}, {5, 2}, {5, 8}, {1, 8}}
	assert.Equal(t, Rect{X: 1, Y: 2, Width: 4, Height: 6}, BoundingBox(pts))
	assert.Equal(t, Rect{}, BoundingBox(nil))
}

func TestPointOnBoundary(t *testing.T) {
	sq := []Point2D{{10, 10}, {20, 10}, {20, 20}, {10, 20}}
	assert.True(t, PointOnBoundary(Point2D{10, 10}, sq), "vertex")
	assert.True(t, PointOnBoundary(Point2D{15, 20}, sq), "edge")
	assert.True(t, PointOnBoundary(Point2D{10, 13}, sq), "closing edge")
	assert.False(t, PointOnBoundary(Point2D{15, 15}, sq))
	assert.False(t, PointOnBoundary(Point2D{25, 10}, sq), "collinear past the vertex")

	// Strict ray casting misses the far edges; the inclusive test does not.
	assert.False(t, PointInPolygon(Point2D{20, 15}, sq))
	assert.True(t, PointInOrOnPolygon(Point2D{20, 15}, sq))
	assert.True(t, PointInOrOnPolygon(Point2D{20, 20}, sq))
	assert.False(t, PointInOrOnPolygon(Point2D{21, 15}, sq))
	assert.False(t, PointInOrOnPolygon(Point2D{0, 0}, sq[:2]))
}
