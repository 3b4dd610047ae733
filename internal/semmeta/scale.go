package semmeta

import (
	"fmt"
	"log"
)

// Scale is the calibration of an image in meters per pixel.
// UnknownScale means the file carried no usable calibration.
type Scale float64

// UnknownScale is the zero Scale.
const UnknownScale Scale = 0

// Known reports whether the scale carries a calibration.
func (s Scale) Known() bool {
	return s > 0
}

// MetersPerPixel returns the scale as a plain float.
func (s Scale) MetersPerPixel() float64 {
	return float64(s)
}

// String formats the scale for a status line, e.g. "3.17 nm/px".
func (s Scale) String() string {
	if !s.Known() {
		return "Unknown"
	}
	return fmt.Sprintf("%.2f nm/px", float64(s)*1e9)
}

// scaleKeys are tried in order.
var scaleKeys = []string{"ap_image_pixel_size", "dp_pixel_size"}

// unitFactors converts pixel size units to meters.
var unitFactors = map[string]float64{
	"nm": 1e-9,
	"um": 1e-6,
	"µm": 1e-6, // U+00B5 micro sign
	"μm": 1e-6, // U+03BC greek mu
	"mm": 1e-3,
	"m":  1,
}

// DecodeScale derives the pixel size from the block. Missing keys,
// malformed values and unrecognized units all yield UnknownScale.
func DecodeScale(b Block) Scale {
	for _, key := range scaleKeys {
		e, ok := b[key]
		if !ok {
			continue
		}
		if s, ok := entryScale(e); ok {
			return s
		}
		log.Printf("semmeta: ignoring %s = %q %q", key, e.Value, e.Unit)
	}
	return UnknownScale
}

func entryScale(e Entry) (Scale, bool) {
	if !e.IsTriple() {
		return UnknownScale, false
	}
	factor, ok := unitFactors[e.Unit]
	if !ok {
		return UnknownScale, false
	}
	v, ok := e.Float()
	if !ok || v <= 0 {
		return UnknownScale, false
	}
	return Scale(v * factor), true
}
