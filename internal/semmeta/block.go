// Package semmeta decodes the instrument metadata block that SEM images
// carry in TIFF tag 34118 into a calibration scale and a context record.
package semmeta

import (
	"strconv"
	"strings"
)

// Entry is one value of the metadata block: either a bare scalar, or a
// labeled value such as ("Pixel Size", "3.166", "nm").
type Entry struct {
	Label   string
	Value   string
	Unit    string
	Labeled bool
}

// Scalar returns an unlabeled entry.
func Scalar(v string) Entry {
	return Entry{Value: v}
}

// Labeled returns a labeled entry. unit may be empty.
func Labeled(label, value, unit string) Entry {
	return Entry{Label: label, Value: value, Unit: unit, Labeled: true}
}

// Float parses the entry's value as a number.
func (e Entry) Float() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(e.Value), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsTriple reports whether the entry carries label, value and unit.
func (e Entry) IsTriple() bool {
	return e.Labeled && e.Unit != ""
}

// Block maps lower-case instrument keys (e.g. "ap_image_pixel_size") to
// entries. It is never modified after decoding.
type Block map[string]Entry

// Value returns the first usable value among keys. Empty values and
// numeric zero are treated as absent so the next key in the chain is tried.
func (b Block) Value(keys ...string) (string, bool) {
	for _, k := range keys {
		e, ok := b[k]
		if !ok {
			continue
		}
		v := strings.TrimSpace(e.Value)
		if v == "" {
			continue
		}
		if f, isNum := e.Float(); isNum && f == 0 {
			continue
		}
		return v, true
	}
	return "", false
}
