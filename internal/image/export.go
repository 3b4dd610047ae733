package image

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/floats"
)

// SavePayload is everything the container writer needs for the first page
// of an annotated file.
type SavePayload struct {
	Page        *image.RGBA // Clean or rendered 8-bit RGB pixels
	Description []byte      // JSON envelope for tag 270
	SEMTag      []byte      // Original tag 34118 bytes, unmodified (nil if none)
}

// NewSavePayload assembles a payload. In vector mode (rendered == nil) the
// page is the source image normalized to 8 bits; in burnt-in mode the
// caller's rendered image is used as is.
func NewSavePayload(l *Layer, rendered image.Image, description []byte) (*SavePayload, error) {
	if l == nil || l.Image == nil {
		return nil, errors.New("no image loaded")
	}

	var page *image.RGBA
	if rendered != nil {
		page = toRGBA(rendered)
	} else {
		page = Normalize8(l.Image)
	}

	var semTag []byte
	if l.SEMTag != nil {
		semTag = append([]byte(nil), l.SEMTag...)
	}

	return &SavePayload{
		Page:        page,
		Description: description,
		SEMTag:      semTag,
	}, nil
}

// Normalize8 converts an image to opaque 8-bit RGB. Gray images deeper than
// 8 bits are stretched so their own minimum maps to 0 and maximum to 255;
// 8-bit gray and color images are copied.
func Normalize8(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	g16, ok := src.(*image.Gray16)
	if !ok {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}

	values := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			values = append(values, float64(g16.Gray16At(x, y).Y))
		}
	}
	lo, hi := floats.Min(values), floats.Max(values)
	span := hi - lo

	i := 0
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := uint8(0)
			if span > 0 {
				v = uint8(clamp((values[i]-lo)/span, 0, 1) * 255)
			}
			dst.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
			i++
		}
	}
	return dst
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
