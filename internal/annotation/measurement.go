// Package annotation holds the distance and area measurements drawn on an
// image and converts them to and from the persisted envelope.
package annotation

import (
	"fmt"
	"image/color"

	"sem-view/internal/semmeta"
	"sem-view/pkg/geometry"
)

// Kind distinguishes the two measurement shapes.
type Kind int

const (
	// Distance is a two-point line measurement.
	Distance Kind = iota
	// Area is a closed polygon measurement.
	Area
)

// String returns the name used in measurement records.
func (k Kind) String() string {
	switch k {
	case Distance:
		return "Distance"
	case Area:
		return "Area"
	default:
		return "Unknown"
	}
}

// Measurement is one annotation with its derived value.
type Measurement struct {
	ID     int
	Kind   Kind
	Points []geometry.Point2D
	Color  color.RGBA

	// Value is in Unit: pixels (px, px²) without a scale, otherwise the
	// metric unit chosen for the magnitude.
	Value float64
	Unit  string
	Label string
}

// Start returns the first point of a distance measurement.
func (m Measurement) Start() geometry.Point2D {
	if len(m.Points) == 0 {
		return geometry.Point2D{}
	}
	return m.Points[0]
}

// End returns the second point of a distance measurement.
func (m Measurement) End() geometry.Point2D {
	if len(m.Points) < 2 {
		return m.Start()
	}
	return m.Points[1]
}

// Pixels returns the raw pixel length or area.
func (m Measurement) Pixels() float64 {
	if m.Kind == Distance {
		return m.Start().Distance(m.End())
	}
	return geometry.PolygonArea(m.Points)
}

// FormatDistance converts a pixel length into a value, unit and label.
func FormatDistance(px float64, scale semmeta.Scale) (float64, string, string) {
	if !scale.Known() {
		return px, "px", fmt.Sprintf("%.1f px", px)
	}
	meters := px * scale.MetersPerPixel()
	var v float64
	var unit string
	switch {
	case meters < 1e-6:
		v, unit = meters*1e9, "nm"
	case meters < 1e-3:
		v, unit = meters*1e6, "µm"
	default:
		v, unit = meters*1e3, "mm"
	}
	return v, unit, fmt.Sprintf("%.2f %s", v, unit)
}

// FormatArea converts a pixel area into a value, unit and label.
func FormatArea(px float64, scale semmeta.Scale) (float64, string, string) {
	if !scale.Known() {
		return px, "px²", fmt.Sprintf("%.0f px²", px)
	}
	s := scale.MetersPerPixel()
	m2 := px * s * s
	var v float64
	var unit string
	switch {
	case m2 < 1e-12:
		v, unit = m2*1e18, "nm²"
	case m2 < 1e-6:
		v, unit = m2*1e12, "µm²"
	default:
		v, unit = m2*1e6, "mm²"
	}
	return v, unit, fmt.Sprintf("%.2f %s", v, unit)
}
