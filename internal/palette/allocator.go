// Package palette assigns overlay colors to new measurements.
package palette

import (
	"image/color"

	"sem-view/pkg/colorutil"
)

// Colors is the fixed measurement palette, in allocation order.
var Colors = [...]color.RGBA{
	{R: 0xff, G: 0xff, B: 0x00, A: 0xff}, // yellow
	{R: 0x00, G: 0xff, B: 0xff, A: 0xff}, // cyan
	{R: 0xff, G: 0x00, B: 0xff, A: 0xff}, // magenta
	{R: 0x00, G: 0xff, B: 0x00, A: 0xff}, // lime
	{R: 0xff, G: 0xa5, B: 0x00, A: 0xff}, // orange
	{R: 0xff, G: 0x00, B: 0x00, A: 0xff}, // red
	{R: 0x00, G: 0xbf, B: 0xff, A: 0xff}, // deep sky blue
	{R: 0xff, G: 0x69, B: 0xb4, A: 0xff}, // hot pink
}

// Size is the number of palette entries.
const Size = len(Colors)

// Allocator hands out palette colors round-robin.
// The zero value is ready to use and starts at the first color.
type Allocator struct {
	cursor int
}

// NewAllocator returns an allocator positioned at the first color.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns the color at the cursor and advances it.
func (a *Allocator) Next() color.RGBA {
	c := Colors[a.cursor]
	a.cursor = (a.cursor + 1) % Size
	return c
}

// Peek returns the color the next call to Next will return.
func (a *Allocator) Peek() color.RGBA {
	return Colors[a.cursor]
}

// Reset moves the cursor back to the first color.
func (a *Allocator) Reset() {
	a.cursor = 0
}

// Cursor returns the palette index of the next color.
func (a *Allocator) Cursor() int {
	return a.cursor
}

// SetCursor positions the cursor, wrapping out-of-range values.
func (a *Allocator) SetCursor(i int) {
	a.cursor = ((i % Size) + Size) % Size
}

// Resync positions the cursor just after last. If last is not a palette
// color (a custom color from a restored file), the cursor falls back to
// count modulo the palette size.
func (a *Allocator) Resync(last color.RGBA, count int) {
	if i := IndexOf(last); i >= 0 {
		a.cursor = (i + 1) % Size
		return
	}
	a.SetCursor(count)
}

// IndexOf returns the palette index of c, comparing RGB only, or -1.
func IndexOf(c color.RGBA) int {
	for i, p := range Colors {
		if colorutil.SameRGB(p, c) {
			return i
		}
	}
	return -1
}
