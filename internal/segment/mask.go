package segment

import (
	"math"

	"sem-view/pkg/geometry"
)

// Mask is a boolean raster the size of the image being segmented.
// Bits are stored row-major. Union and Subtract return new masks.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask returns an all-false mask.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// RasterizePolygon returns a mask where pixel (x, y) is set when the point
// (x, y) lies inside polygon or on its boundary. Polygons with fewer than 3
// vertices yield an empty mask.
func RasterizePolygon(width, height int, polygon []geometry.Point2D) *Mask {
	m := NewMask(width, height)
	if len(polygon) < 3 {
		return m
	}

	// Only scan the polygon's bounding box.
	bb := geometry.BoundingBox(polygon)
	x0 := clampInt(int(math.Floor(bb.X)), 0, width)
	y0 := clampInt(int(math.Floor(bb.Y)), 0, height)
	x1 := clampInt(int(math.Ceil(bb.X+bb.Width))+1, 0, width)
	y1 := clampInt(int(math.Ceil(bb.Y+bb.Height))+1, 0, height)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if geometry.PointInOrOnPolygon(geometry.Point2D{X: float64(x), Y: float64(y)}, polygon) {
				m.Bits[y*width+x] = true
			}
		}
	}
	return m
}

// At reports whether pixel (x, y) is set. Out of range pixels are unset.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

// Set sets pixel (x, y). Out of range pixels are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Bits[y*m.Width+x] = v
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	bits := make([]bool, len(m.Bits))
	copy(bits, m.Bits)
	return &Mask{Width: m.Width, Height: m.Height, Bits: bits}
}

// Union returns m OR other.
func (m *Mask) Union(other *Mask) (*Mask, error) {
	if !m.sameSize(other) {
		return nil, ErrShapeMismatch
	}
	out := m.Clone()
	for i, b := range other.Bits {
		if b {
			out.Bits[i] = true
		}
	}
	return out, nil
}

// Subtract returns m AND NOT other.
func (m *Mask) Subtract(other *Mask) (*Mask, error) {
	if !m.sameSize(other) {
		return nil, ErrShapeMismatch
	}
	out := m.Clone()
	for i, b := range other.Bits {
		if b {
			out.Bits[i] = false
		}
	}
	return out, nil
}

// Equal reports whether both masks have the same size and bits.
func (m *Mask) Equal(other *Mask) bool {
	if !m.sameSize(other) {
		return false
	}
	for i := range m.Bits {
		if m.Bits[i] != other.Bits[i] {
			return false
		}
	}
	return true
}

func (m *Mask) sameSize(other *Mask) bool {
	return other != nil && m.Width == other.Width && m.Height == other.Height
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
