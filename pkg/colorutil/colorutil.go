// Package colorutil provides shared color utilities for the SEM viewer.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Yellow is the fallback annotation color.
var Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}

// ErrBadHex is returned when a color string is not #RGB or #RRGGBB.
var ErrBadHex = errors.New("invalid hex color")

// ParseHex parses "#RRGGBB" or "#RGB" (case-insensitive) into an opaque color.
func ParseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, errors.Wrapf(ErrBadHex, "%q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(ErrBadHex, "%q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Hex formats a color as lowercase "#rrggbb". Alpha is dropped.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// SameRGB reports whether two colors have identical RGB components.
func SameRGB(a, b color.RGBA) bool {
	return a.R == b.R && a.G == b.G && a.B == b.B
}
