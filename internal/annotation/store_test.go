package annotation

import (
	"testing"

	"sem-view/internal/envelope"
	"sem-view/internal/palette"
	"sem-view/internal/semmeta"
	"sem-view/pkg/colorutil"
	"sem-view/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(x, y float64) geometry.Point2D { return geometry.Point2D{X: x, Y: y} }

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		name  string
		px    float64
		scale semmeta.Scale
		label string
		unit  string
	}{
		{"unscaled", 100, semmeta.UnknownScale, "100.0 px", "px"},
		{"nanometers", 100, 1e-9, "100.00 nm", "nm"},
		{"exactly one micrometer", 1, 1e-6, "1.00 µm", "µm"},
		{"micrometers", 100, 5e-8, "5.00 µm", "µm"},
		{"millimeters", 100, 2e-5, "2.00 mm", "mm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, unit, label := FormatDistance(tt.px, tt.scale)
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.unit, unit)
		})
	}
}

func TestFormatArea(t *testing.T) {
	tests := []struct {
		name  string
		px    float64
		scale semmeta.Scale
		label string
	}{
		{"unscaled", 1234.4, semmeta.UnknownScale, "1234 px²"},
		{"square nanometers", 100, 1e-9, "100.00 nm²"},
		{"square micrometers", 100, 2e-7, "4.00 µm²"},
		{"square millimeters", 100, 1e-3, "100.00 mm²"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, label := FormatArea(tt.px, tt.scale)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestAddDistanceScenario(t *testing.T) {
	s := NewStore(1e-9, nil)
	m := s.AddDistance(pt(0, 0), pt(300, 400))

	assert.Equal(t, Distance, m.Kind)
	assert.Equal(t, "500.00 nm", m.Label)
	assert.InDelta(t, 500, m.Value, 1e-9)
	assert.Equal(t, palette.Colors[0], m.Color)
	assert.Equal(t, 1, s.Allocator().Cursor())
}

func TestAddAreaUnscaled(t *testing.T) {
	s := NewStore(semmeta.UnknownScale, nil)
	m, ok := s.AddArea([]geometry.Point2D{pt(0, 0), pt(10, 0), pt(10, 10), pt(0, 10)})
	require.True(t, ok)
	assert.Equal(t, "100 px²", m.Label)
	assert.Equal(t, Area, m.Kind)
}

func TestAddAreaRejectsDegenerate(t *testing.T) {
	s := NewStore(1e-9, nil)
	_, ok := s.AddArea([]geometry.Point2D{pt(0, 0), pt(1, 1)})
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Allocator().Cursor(), "no color consumed")
}

func TestColorsCycle(t *testing.T) {
	s := NewStore(semmeta.UnknownScale, nil)
	var got []string
	for i := 0; i < palette.Size+1; i++ {
		got = append(got, colorutil.Hex(s.AddDistance(pt(0, 0), pt(1, 0)).Color))
	}
	assert.Equal(t, "#ffff00", got[0])
	assert.Equal(t, "#ff69b4", got[7])
	assert.Equal(t, "#ffff00", got[8])
}

func TestRemoveAndGet(t *testing.T) {
	s := NewStore(semmeta.UnknownScale, nil)
	a := s.AddDistance(pt(0, 0), pt(1, 0))
	b := s.AddDistance(pt(0, 0), pt(2, 0))

	assert.True(t, s.Remove(a.ID))
	assert.False(t, s.Remove(a.ID))
	_, ok := s.Get(a.ID)
	assert.False(t, ok)

	got, ok := s.Get(b.ID)
	require.True(t, ok)
	assert.Equal(t, b, got)
	assert.Equal(t, 1, s.Len())
}

func TestClearResetsPalette(t *testing.T) {
	s := NewStore(semmeta.UnknownScale, nil)
	s.AddDistance(pt(0, 0), pt(1, 0))
	s.AddDistance(pt(0, 0), pt(1, 0))
	s.Clear()

	assert.Equal(t, 0, s.Len())
	m := s.AddDistance(pt(0, 0), pt(1, 0))
	assert.Equal(t, palette.Colors[0], m.Color)
}

func TestSerialize(t *testing.T) {
	s := NewStore(1e-9, nil)
	s.AddDistance(pt(0, 0), pt(300, 400))
	s.AddArea([]geometry.Point2D{pt(0, 0), pt(10, 0), pt(10, 10)})

	doc := s.Serialize(false)
	assert.Equal(t, "Annotated Image", doc.Description)
	assert.False(t, doc.IsBurntIn)
	require.Len(t, doc.Measurements, 2)
	require.Len(t, doc.Annotations, 2)

	assert.Equal(t, envelope.MeasurementRecord{
		Type: "Distance", Value: "500.00", Unit: "nm", Label: "500.00 nm", Color: "#ffff00",
	}, doc.Measurements[0])
	assert.Equal(t, "Area", doc.Measurements[1].Type)
	assert.Equal(t, "nm²", doc.Measurements[1].Unit)
	assert.Equal(t, "#00ffff", doc.Measurements[1].Color)

	assert.Equal(t, envelope.TypeDistance, doc.Annotations[0].Type)
	assert.Equal(t, [2]float64{300, 400}, *doc.Annotations[0].End)
	assert.Equal(t, envelope.TypeArea, doc.Annotations[1].Type)
	assert.Len(t, doc.Annotations[1].Points, 3)

	burnt := s.Serialize(true)
	assert.True(t, burnt.IsBurntIn)
	assert.Nil(t, burnt.Annotations)
	assert.Len(t, burnt.Measurements, 2)
}

func TestSerializeRestoreRoundTrip(t *testing.T) {
	src := NewStore(2e-9, nil)
	src.AddDistance(pt(1.5, 2.5), pt(100, 7))
	src.AddArea([]geometry.Point2D{pt(0, 0), pt(40, 0), pt(40, 30), pt(5, 25)})
	src.AddDistance(pt(3, 3), pt(9, 9))

	data, err := src.Serialize(false).Marshal()
	require.NoError(t, err)
	doc, err := envelope.Parse(data)
	require.NoError(t, err)

	dst := NewStore(2e-9, nil)
	n := dst.Restore(*doc)
	require.Equal(t, 3, n)

	want, got := src.Measurements(), dst.Measurements()
	for i := range want {
		assert.Equal(t, want[i].Kind, got[i].Kind)
		assert.Equal(t, want[i].Points, got[i].Points)
		assert.Equal(t, want[i].Color, got[i].Color)
		assert.Equal(t, want[i].Label, got[i].Label)
	}

	// Next color continues after the last restored one.
	assert.Equal(t, palette.Colors[3], dst.Allocator().Peek())
}

func TestRestoreSkipsInvalidRecords(t *testing.T) {
	start, end := [2]float64{0, 0}, [2]float64{10, 0}
	doc := envelope.Document{Annotations: []envelope.AnnotationRecord{
		{Type: envelope.TypeDistance, Start: &start},
		{Type: envelope.TypeArea, Points: [][2]float64{{0, 0}, {1, 1}}},
		{Type: "circle"},
		{Type: envelope.TypeDistance, Start: &start, End: &end, Color: "not-a-color"},
	}}

	s := NewStore(semmeta.UnknownScale, nil)
	require.Equal(t, 1, s.Restore(doc))

	m := s.Measurements()[0]
	assert.Equal(t, colorutil.Yellow, m.Color)
	assert.Equal(t, "10.0 px", m.Label)
	assert.Equal(t, 1, s.Allocator().Cursor())
}

func TestRestoreResyncFallsBackToCount(t *testing.T) {
	a, b := [2]float64{0, 0}, [2]float64{1, 0}
	doc := envelope.Document{Annotations: []envelope.AnnotationRecord{
		{Type: envelope.TypeDistance, Start: &a, End: &b, Color: "#123456"},
		{Type: envelope.TypeDistance, Start: &a, End: &b, Color: "#654321"},
		{Type: envelope.TypeDistance, Start: &a, End: &b, Color: "#abcdef"},
	}}

	s := NewStore(semmeta.UnknownScale, nil)
	s.Restore(doc)
	assert.Equal(t, 3, s.Allocator().Cursor())
}

func TestRestoreEmptyResetsPalette(t *testing.T) {
	s := NewStore(semmeta.UnknownScale, nil)
	s.AddDistance(pt(0, 0), pt(1, 0))

	assert.Equal(t, 0, s.Restore(envelope.Document{}))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Allocator().Cursor())
}
