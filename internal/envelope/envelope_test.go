package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vectorEnvelope = `{
  "description": "Annotated Image",
  "measurements": [
    {"type": "Distance", "value": "12.34", "unit": "nm", "label": "12.34 nm", "color": "#ffff00"},
    {"type": "Area", "value": 5, "unit": "px²", "label": "5 px²", "color": "#00ffff"}
  ],
  "is_burnt_in": false,
  "annotations": [
    {"type": "distance", "start": [1, 2], "end": [3, 4], "color": "#ffff00"},
    {"type": "area", "points": [[0, 0], [2, 0], [0, 5]], "color": "#00ffff"}
  ]
}`

func TestParseVectorEnvelope(t *testing.T) {
	doc, err := Parse([]byte(vectorEnvelope + "\x00"))
	require.NoError(t, err)

	assert.Equal(t, "Annotated Image", doc.Description)
	assert.False(t, doc.IsBurntIn)
	require.Len(t, doc.Measurements, 2)
	assert.Equal(t, Text("5"), doc.Measurements[1].Value)
	require.Len(t, doc.Annotations, 2)
	assert.Equal(t, &[2]float64{1, 2}, doc.Annotations[0].Start)
	assert.Equal(t, [][2]float64{{0, 0}, {2, 0}, {0, 5}}, doc.Annotations[1].Points)
}

func TestParseRejectsNonJSON(t *testing.T) {
	for _, in := range []string{"", "Zeiss SEM image", "[1,2]", "null"} {
		_, err := Parse([]byte(in))
		assert.ErrorIs(t, err, ErrNotEnvelope, in)
	}
}

func TestParseKeepsMalformedPlaceholders(t *testing.T) {
	doc, err := Parse([]byte(`{"annotations": [{"type": "area", "points": "bad"}, {"type": "distance", "start": [0,0], "end": [1,1]}]}`))
	require.NoError(t, err)
	require.Len(t, doc.Annotations, 2)
	assert.True(t, doc.Annotations[0].Malformed)
	assert.Empty(t, doc.Annotations[0].Type)
	assert.False(t, doc.Annotations[1].Malformed)
	assert.Equal(t, TypeDistance, doc.Annotations[1].Type)
	assert.False(t, doc.HasMeasurements())
	assert.True(t, doc.HasAnnotations())

	// The placeholder is written back as it was read.
	data, err := json.Marshal(doc.Annotations[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "area", "points": "bad"}`, string(data))
}

func TestBackfillColorsStaysAlignedAfterMalformedRecord(t *testing.T) {
	doc, err := Parse([]byte(`{
		"measurements": [{"type": "Area", "label": "a"}, {"type": "Distance", "label": "b"}],
		"annotations": [{"type": "area", "points": 7, "color": "#111111"}, {"type": "distance", "color": "#222222"}]
	}`))
	require.NoError(t, err)
	BackfillColors(doc.Measurements, doc.Annotations)

	assert.Equal(t, "#000000", doc.Measurements[0].Color)
	assert.Equal(t, "#222222", doc.Measurements[1].Color)
}

func TestUnknownKeysSurviveReencoding(t *testing.T) {
	doc, err := Parse([]byte(`{"measurements": [{"type": "Distance", "label": "1 px", "note": "edge", "color": "#ffff00"}]}`))
	require.NoError(t, err)
	doc.Measurements[0].Color = "#00ff00"

	data, err := json.Marshal(doc.Measurements[0])
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "edge", got["note"])
	assert.Equal(t, "#00ff00", got["color"])
	assert.Equal(t, "1 px", got["label"])
}

func TestMarshalBurntInDropsAnnotations(t *testing.T) {
	doc := Document{
		Description: DefaultDescription,
		IsBurntIn:   true,
		Annotations: []AnnotationRecord{{Type: TypeArea}},
	}
	data, err := doc.Marshal()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "annotations")
	assert.Equal(t, []any{}, raw["measurements"])
	assert.Equal(t, true, raw["is_burnt_in"])
}

func TestMarshalParseRoundTrip(t *testing.T) {
	in, err := Parse([]byte(vectorEnvelope))
	require.NoError(t, err)
	data, err := in.Marshal()
	require.NoError(t, err)
	out, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, withoutRaw(in), withoutRaw(out))
}

// withoutRaw clears the per-record source bytes, whose whitespace and key
// order differ after re-encoding.
func withoutRaw(d *Document) *Document {
	c := *d
	c.Measurements = append([]MeasurementRecord(nil), d.Measurements...)
	for i := range c.Measurements {
		c.Measurements[i].Raw = nil
	}
	c.Annotations = append([]AnnotationRecord(nil), d.Annotations...)
	for i := range c.Annotations {
		c.Annotations[i].Raw = nil
	}
	return &c
}

func TestBackfillColors(t *testing.T) {
	ms := []MeasurementRecord{{Label: "a"}, {Label: "b", Color: "#123456"}, {Label: "c"}}
	as := []AnnotationRecord{{Color: "#ff0000"}, {Color: "#00ff00"}, {}}
	BackfillColors(ms, as)

	assert.Equal(t, "#ff0000", ms[0].Color)
	assert.Equal(t, "#123456", ms[1].Color)
	assert.Equal(t, "#000000", ms[2].Color)
}

func TestBackfillColorsLengthMismatch(t *testing.T) {
	ms := []MeasurementRecord{{Label: "a"}}
	BackfillColors(ms, []AnnotationRecord{{Color: "#ff0000"}, {Color: "#00ff00"}})
	assert.Empty(t, ms[0].Color)
}
