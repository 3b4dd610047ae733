package semmeta

import (
	"strings"

	"sem-view/internal/envelope"
)

// Field is one line of the context record.
type Field struct {
	Name  string
	Value string
}

// Context is the human-readable summary of an image: instrument facts in
// display order, plus any measurements and annotations persisted in the
// image description.
type Context struct {
	Fields []Field

	Description  string
	Measurements []envelope.MeasurementRecord
	Annotations  []envelope.AnnotationRecord
	BurntIn      bool
}

// Get returns the value of a named field.
func (c Context) Get(name string) (string, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Empty reports whether nothing at all was recovered.
func (c Context) Empty() bool {
	return len(c.Fields) == 0 && c.Measurements == nil && c.Annotations == nil
}

// fieldSpec is one context field: its fallback key chain and how the raw
// value is presented.
type fieldSpec struct {
	name     string
	keys     []string
	fallback string
	format   func(string) string
}

var contextFields = []fieldSpec{
	{name: "Tool", keys: []string{"sv_serial_number", "sv_instrument_id"}, fallback: "Unknown"},
	{name: "Beam Voltage", keys: []string{"ap_actualkv", "ap_eht", "ap_voltage", "ap_highvoltage"}, format: func(v string) string { return v + " kV" }},
	{name: "Aperture", keys: []string{"ap_aperture_size", "dp_opt_aperture"}},
	{name: "WD", keys: []string{"ap_wd", "ap_working_distance"}},
	{name: "Mag", keys: []string{"ap_mag", "ap_magnification"}, format: formatMag},
	{name: "Date", keys: []string{"ap_date"}},
	{name: "Author", keys: []string{"sv_user_name", "sv_operator"}},
}

// formatMag appends the magnification suffix unless the instrument already
// wrote one (e.g. "1.00 K X").
func formatMag(v string) string {
	if strings.ContainsAny(v, "xX") {
		return v
	}
	return v + " x"
}

// DecodeContext builds the context record. b may be nil when the image has
// no instrument tag; description is the raw ImageDescription and may be
// empty or plain text.
func DecodeContext(b Block, description []byte) Context {
	var ctx Context

	if b != nil {
		for _, spec := range contextFields {
			v, ok := b.Value(spec.keys...)
			if !ok {
				if spec.fallback == "" {
					continue
				}
				v = spec.fallback
			} else if spec.format != nil {
				v = spec.format(v)
			}
			if spec.name == "Date" {
				if t, ok := b.Value("ap_time"); ok {
					v = v + " " + t
				}
			}
			ctx.Fields = append(ctx.Fields, Field{Name: spec.name, Value: v})
		}
	}

	if len(description) == 0 {
		return ctx
	}
	doc, err := envelope.Parse(description)
	if err != nil {
		return ctx
	}
	ctx.Description = doc.Description
	ctx.BurntIn = doc.IsBurntIn
	ctx.Measurements = doc.Measurements
	ctx.Annotations = doc.Annotations
	if doc.HasMeasurements() && doc.HasAnnotations() {
		envelope.BackfillColors(ctx.Measurements, ctx.Annotations)
	}
	return ctx
}
