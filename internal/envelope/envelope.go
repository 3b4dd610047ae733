// Package envelope defines the JSON document that persists measurements in
// the TIFF ImageDescription tag.
package envelope

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Annotation record types.
const (
	TypeDistance = "distance"
	TypeArea     = "area"
)

// DefaultDescription is written into the description field on save.
const DefaultDescription = "Annotated Image"

// MeasurementRecord is the display summary of one measurement.
type MeasurementRecord struct {
	Type  string `json:"type"`
	Value Text   `json:"value"`
	Unit  string `json:"unit"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`

	// Raw is the record as read from a file, nil for records built in
	// memory. Keys the typed fields do not cover survive re-encoding.
	Raw json.RawMessage `json:"-"`

	// Malformed marks a placeholder for an element that did not decode.
	// It keeps list indices aligned and re-encodes as Raw.
	Malformed bool `json:"-"`
}

// AnnotationRecord is the editable geometry of one measurement.
// Distance records use Start and End; area records use Points.
type AnnotationRecord struct {
	Type   string       `json:"type"`
	Start  *[2]float64  `json:"start,omitempty"`
	End    *[2]float64  `json:"end,omitempty"`
	Points [][2]float64 `json:"points,omitempty"`
	Color  string       `json:"color,omitempty"`

	Raw       json.RawMessage `json:"-"`
	Malformed bool            `json:"-"`
}

// MarshalJSON implements json.Marshaler.
func (r MeasurementRecord) MarshalJSON() ([]byte, error) {
	type plain MeasurementRecord
	typed, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	return mergeRaw(typed, r.Raw, r.Malformed)
}

// MarshalJSON implements json.Marshaler.
func (r AnnotationRecord) MarshalJSON() ([]byte, error) {
	type plain AnnotationRecord
	typed, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	return mergeRaw(typed, r.Raw, r.Malformed)
}

// Document is the whole envelope. Annotations is nil in burnt-in mode.
type Document struct {
	Description  string              `json:"description"`
	Measurements []MeasurementRecord `json:"measurements"`
	IsBurntIn    bool                `json:"is_burnt_in"`
	Annotations  []AnnotationRecord  `json:"annotations,omitempty"`
}

// ErrNotEnvelope is returned by Parse when the text is not a JSON object.
var ErrNotEnvelope = errors.New("description is not a JSON envelope")

// Parse decodes an ImageDescription. Trailing NUL padding is ignored.
// Individual records that do not match the schema become Malformed
// placeholders rather than failing the whole document.
func Parse(data []byte) (*Document, error) {
	for len(data) > 0 && data[len(data)-1] == 0 {
		data = data[:len(data)-1]
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, ErrNotEnvelope
	}

	doc := &Document{}
	if v, ok := raw["description"]; ok {
		_ = json.Unmarshal(v, &doc.Description)
	}
	if v, ok := raw["is_burnt_in"]; ok {
		_ = json.Unmarshal(v, &doc.IsBurntIn)
	}
	if v, ok := raw["measurements"]; ok {
		doc.Measurements = decodeList(v, keepMeasurement)
		if doc.Measurements == nil {
			doc.Measurements = []MeasurementRecord{}
		}
	}
	if v, ok := raw["annotations"]; ok {
		doc.Annotations = decodeList(v, keepAnnotation)
		if doc.Annotations == nil {
			doc.Annotations = []AnnotationRecord{}
		}
	}
	return doc, nil
}

// HasMeasurements reports whether the parsed document carried a measurements key.
func (d *Document) HasMeasurements() bool {
	return d != nil && d.Measurements != nil
}

// HasAnnotations reports whether the parsed document carried an annotations key.
func (d *Document) HasAnnotations() bool {
	return d != nil && d.Annotations != nil
}

// Marshal encodes the document for the ImageDescription tag.
func (d Document) Marshal() ([]byte, error) {
	if d.Measurements == nil {
		d.Measurements = []MeasurementRecord{}
	}
	if d.IsBurntIn {
		d.Annotations = nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrap(err, "encode envelope")
	}
	return data, nil
}

// BackfillColors fills measurements that have no color from the annotation
// at the same index. Files written by older versions stored colors only on
// annotations. Nothing happens unless both lists have the same length.
func BackfillColors(measurements []MeasurementRecord, annotations []AnnotationRecord) {
	if len(measurements) != len(annotations) {
		return
	}
	for i := range measurements {
		if measurements[i].Color != "" {
			continue
		}
		c := annotations[i].Color
		if c == "" {
			c = "#000000"
		}
		measurements[i].Color = c
	}
}

// Text is a string that also accepts a bare JSON number when decoding.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

// decodeList decodes a JSON array element by element. Every element keeps
// its raw bytes; one that does not decode into T is stored as a zero T
// marked malformed so indices line up with the file.
func decodeList[T any](data json.RawMessage, keep func(*T, json.RawMessage, bool)) []T {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	out := make([]T, len(items))
	for i, item := range items {
		err := json.Unmarshal(item, &out[i])
		if err != nil {
			var zero T
			out[i] = zero
		}
		keep(&out[i], item, err != nil)
	}
	return out
}

func keepMeasurement(r *MeasurementRecord, raw json.RawMessage, malformed bool) {
	r.Raw, r.Malformed = raw, malformed
}

func keepAnnotation(r *AnnotationRecord, raw json.RawMessage, malformed bool) {
	r.Raw, r.Malformed = raw, malformed
}

// mergeRaw re-encodes a record. A malformed record is written back as it
// was read. Otherwise keys of raw missing from typed are carried over.
func mergeRaw(typed []byte, raw json.RawMessage, malformed bool) ([]byte, error) {
	if malformed && len(raw) > 0 {
		return raw, nil
	}
	if len(raw) == 0 {
		return typed, nil
	}

	var extra map[string]json.RawMessage
	if err := json.Unmarshal(raw, &extra); err != nil || len(extra) == 0 {
		return typed, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(typed, &fields); err != nil {
		return nil, errors.Wrap(err, "re-encode record")
	}
	for k, v := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}
