package annotation

import (
	"image/color"
	"log"
	"strings"

	"sem-view/internal/envelope"
	"sem-view/internal/palette"
	"sem-view/internal/semmeta"
	"sem-view/pkg/colorutil"
	"sem-view/pkg/geometry"
)

// Store is the ordered list of measurements on one image. It is not safe
// for concurrent use; callers serialize access.
type Store struct {
	scale  semmeta.Scale
	alloc  *palette.Allocator
	items  []Measurement
	nextID int
}

// NewStore creates an empty store. scale is fixed for the store's lifetime.
// A nil allocator gets a fresh one.
func NewStore(scale semmeta.Scale, alloc *palette.Allocator) *Store {
	if alloc == nil {
		alloc = palette.NewAllocator()
	}
	return &Store{scale: scale, alloc: alloc, nextID: 1}
}

// Scale returns the calibration the store measures with.
func (s *Store) Scale() semmeta.Scale {
	return s.scale
}

// Allocator returns the color allocator owned by the store.
func (s *Store) Allocator() *palette.Allocator {
	return s.alloc
}

// AddDistance adds a line measurement with the next palette color.
func (s *Store) AddDistance(start, end geometry.Point2D) Measurement {
	return s.AddDistanceWithColor(start, end, s.alloc.Next())
}

// AddDistanceWithColor adds a line measurement with an explicit color.
// The allocator is not advanced.
func (s *Store) AddDistanceWithColor(start, end geometry.Point2D, c color.RGBA) Measurement {
	m := Measurement{
		Kind:   Distance,
		Points: []geometry.Point2D{start, end},
		Color:  c,
	}
	m.Value, m.Unit, m.Label = FormatDistance(start.Distance(end), s.scale)
	return s.append(m)
}

// AddArea adds a polygon measurement with the next palette color. Polygons
// with fewer than 3 points are rejected without consuming a color.
func (s *Store) AddArea(points []geometry.Point2D) (Measurement, bool) {
	if len(points) < 3 {
		return Measurement{}, false
	}
	return s.AddAreaWithColor(points, s.alloc.Next())
}

// AddAreaWithColor adds a polygon measurement with an explicit color.
func (s *Store) AddAreaWithColor(points []geometry.Point2D, c color.RGBA) (Measurement, bool) {
	if len(points) < 3 {
		return Measurement{}, false
	}
	m := Measurement{
		Kind:   Area,
		Points: append([]geometry.Point2D(nil), points...),
		Color:  c,
	}
	m.Value, m.Unit, m.Label = FormatArea(geometry.PolygonArea(points), s.scale)
	return s.append(m), true
}

func (s *Store) append(m Measurement) Measurement {
	m.ID = s.nextID
	s.nextID++
	s.items = append(s.items, m)
	return m
}

// Remove deletes the measurement with the given ID.
func (s *Store) Remove(id int) bool {
	for i, m := range s.items {
		if m.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the measurement with the given ID.
func (s *Store) Get(id int) (Measurement, bool) {
	for _, m := range s.items {
		if m.ID == id {
			return m, true
		}
	}
	return Measurement{}, false
}

// Measurements returns a copy of the measurements in insertion order.
func (s *Store) Measurements() []Measurement {
	out := make([]Measurement, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of measurements.
func (s *Store) Len() int {
	return len(s.items)
}

// Clear removes all measurements and restarts the palette.
func (s *Store) Clear() {
	s.items = nil
	s.alloc.Reset()
}

// Serialize builds the envelope for saving. Annotation geometry is
// included only when the overlay is not burnt into the pixels.
func (s *Store) Serialize(burnIn bool) envelope.Document {
	doc := envelope.Document{
		Description:  envelope.DefaultDescription,
		Measurements: make([]envelope.MeasurementRecord, 0, len(s.items)),
		IsBurntIn:    burnIn,
	}
	if !burnIn {
		doc.Annotations = make([]envelope.AnnotationRecord, 0, len(s.items))
	}

	for _, m := range s.items {
		hex := colorutil.Hex(m.Color)
		value, unit, _ := strings.Cut(m.Label, " ")
		doc.Measurements = append(doc.Measurements, envelope.MeasurementRecord{
			Type:  m.Kind.String(),
			Value: envelope.Text(value),
			Unit:  unit,
			Label: m.Label,
			Color: hex,
		})
		if burnIn {
			continue
		}

		rec := envelope.AnnotationRecord{Color: hex}
		switch m.Kind {
		case Distance:
			start, end := m.Start().Pair(), m.End().Pair()
			rec.Type = envelope.TypeDistance
			rec.Start, rec.End = &start, &end
		case Area:
			rec.Type = envelope.TypeArea
			rec.Points = make([][2]float64, len(m.Points))
			for i, p := range m.Points {
				rec.Points[i] = p.Pair()
			}
		}
		doc.Annotations = append(doc.Annotations, rec)
	}
	return doc
}

// Restore replaces the store's contents with the annotations in doc,
// recomputing values with the store's scale. Invalid records are skipped.
// The allocator is resynced so the next color follows the last restored
// one. It returns the number of measurements restored.
func (s *Store) Restore(doc envelope.Document) int {
	s.Clear()

	for i, rec := range doc.Annotations {
		if rec.Malformed {
			log.Printf("annotation %d: malformed record, skipped", i)
			continue
		}
		c := colorutil.Yellow
		if rec.Color != "" {
			if parsed, err := colorutil.ParseHex(rec.Color); err == nil {
				c = parsed
			} else {
				log.Printf("annotation %d: bad color %q, using default", i, rec.Color)
			}
		}

		switch rec.Type {
		case envelope.TypeDistance:
			if rec.Start == nil || rec.End == nil {
				log.Printf("annotation %d: distance without start/end, skipped", i)
				continue
			}
			s.AddDistanceWithColor(geometry.FromPair(*rec.Start), geometry.FromPair(*rec.End), c)
		case envelope.TypeArea:
			pts := make([]geometry.Point2D, len(rec.Points))
			for j, p := range rec.Points {
				pts[j] = geometry.FromPair(p)
			}
			if _, ok := s.AddAreaWithColor(pts, c); !ok {
				log.Printf("annotation %d: area with %d points, skipped", i, len(pts))
			}
		default:
			log.Printf("annotation %d: unknown type %q, skipped", i, rec.Type)
		}
	}

	if n := len(s.items); n > 0 {
		s.alloc.Resync(s.items[n-1].Color, n)
	}
	return len(s.items)
}
