// Package app provides the viewer's application state: the loaded image,
// its calibration and context, the measurement store and the auto-area
// workflow, plus change events for front ends.
package app

import (
	goimage "image"
	"image/color"
	"log"
	"sync"

	"sem-view/internal/annotation"
	"sem-view/internal/envelope"
	"sem-view/internal/image"
	"sem-view/internal/palette"
	"sem-view/internal/segment"
	"sem-view/internal/semmeta"
	"sem-view/pkg/geometry"

	"github.com/pkg/errors"
)

// ErrNoImage is returned by operations that need a loaded image.
var ErrNoImage = errors.New("no image loaded")

// State holds the application state for one open image.
type State struct {
	mu sync.RWMutex

	// File
	ImagePath string
	Modified  bool

	// Image and decoded metadata
	Layer   *image.Layer
	Scale   semmeta.Scale
	Context semmeta.Context

	// Measurements on the current image
	Store *annotation.Store

	// Auto area
	segmenter segment.Segmenter
	refiner   *segment.Refiner
	autoID    int        // Measurement produced by the active session, 0 if none
	autoColor color.RGBA // Color reserved for the active session

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventImageLoaded EventType = iota
	EventImageSaved
	EventModified
	EventMeasurementsChanged
	EventAutoAreaChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a new application state. A nil segmenter selects the
// build's default backend.
func NewState(seg segment.Segmenter) *State {
	if seg == nil {
		seg = segment.New()
	}
	return &State{
		Store:     annotation.NewStore(semmeta.UnknownScale, palette.NewAllocator()),
		segmenter: seg,
		refiner:   segment.NewRefiner(seg),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified records whether the image has unsaved changes and emits
// EventModified with the new value. Every mutating operation calls it.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// LoadImage loads an image file and installs it.
func (s *State) LoadImage(path string) error {
	layer, err := image.Load(path)
	if err != nil {
		return err
	}
	s.LoadLayer(layer)
	return nil
}

// LoadLayer installs an already decoded image. The scale is derived once
// here. Embedded annotations are restored unless the file says they are
// burnt into the pixels, which would draw them twice.
func (s *State) LoadLayer(layer *image.Layer) {
	block := layer.Metadata()
	scale := semmeta.DecodeScale(block)
	ctx := semmeta.DecodeContext(block, layer.Description)

	store := annotation.NewStore(scale, palette.NewAllocator())
	if ctx.BurntIn {
		log.Printf("%s: annotations are burnt in, not restoring vectors", layer.Path)
	} else if len(ctx.Annotations) > 0 {
		n := store.Restore(envelope.Document{Annotations: ctx.Annotations})
		log.Printf("%s: restored %d of %d annotations", layer.Path, n, len(ctx.Annotations))
	}

	s.refiner.Finish()

	s.mu.Lock()
	s.ImagePath = layer.Path
	s.Layer = layer
	s.Scale = scale
	s.Context = ctx
	s.Store = store
	s.autoID = 0
	s.mu.Unlock()

	s.SetModified(false)
	s.Emit(EventImageLoaded, layer)
}

// Measurements returns the current measurements in order.
func (s *State) Measurements() []annotation.Measurement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Store.Measurements()
}

// CurrentColor returns the color the next measurement will get.
func (s *State) CurrentColor() color.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Store.Allocator().Peek()
}

// AddDistance adds a line measurement.
func (s *State) AddDistance(start, end geometry.Point2D) annotation.Measurement {
	s.mu.Lock()
	m := s.Store.AddDistance(start, end)
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventMeasurementsChanged, m)
	return m
}

// AddArea adds a polygon measurement.
func (s *State) AddArea(points []geometry.Point2D) (annotation.Measurement, bool) {
	s.mu.Lock()
	m, ok := s.Store.AddArea(points)
	s.mu.Unlock()

	if ok {
		s.SetModified(true)
		s.Emit(EventMeasurementsChanged, m)
	}
	return m, ok
}

// RemoveMeasurement deletes a measurement by ID.
func (s *State) RemoveMeasurement(id int) bool {
	s.mu.Lock()
	ok := s.Store.Remove(id)
	if ok && id == s.autoID {
		s.autoID = 0
	}
	s.mu.Unlock()

	if ok {
		s.SetModified(true)
		s.Emit(EventMeasurementsChanged, id)
	}
	return ok
}

// ClearMeasurements removes every measurement and restarts the palette.
func (s *State) ClearMeasurements() {
	s.mu.Lock()
	s.Store.Clear()
	s.autoID = 0
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventMeasurementsChanged, nil)
}

// AutoAreaAvailable reports whether auto area detection works in this build.
func (s *State) AutoAreaAvailable() bool {
	return s.segmenter.Available()
}

// AutoAreaActive reports whether an auto area session is open.
func (s *State) AutoAreaActive() bool {
	return s.refiner.Active()
}

// StartAutoArea detects the bright region inside a rough polygon and adds
// it as an area measurement in the current color. The color is consumed
// only when a region is found. ok is false when nothing was detected.
func (s *State) StartAutoArea(polygon []geometry.Point2D) (annotation.Measurement, bool, error) {
	s.mu.RLock()
	layer := s.Layer
	c := s.Store.Allocator().Peek()
	s.mu.RUnlock()
	if layer == nil || layer.Image == nil {
		return annotation.Measurement{}, false, ErrNoImage
	}

	// Detection runs without holding the state lock.
	outline, err := s.refiner.Begin(layer.Image, polygon)
	if err != nil {
		return annotation.Measurement{}, false, errors.Wrap(err, "auto area")
	}

	s.mu.Lock()
	s.autoID = 0
	s.autoColor = c
	m, ok := s.Store.AddAreaWithColor(outline, c)
	if ok {
		s.Store.Allocator().Next()
		s.autoID = m.ID
	}
	s.mu.Unlock()

	if !ok {
		log.Printf("auto area: no region detected")
		s.refiner.Finish()
		return annotation.Measurement{}, false, nil
	}
	s.SetModified(true)
	s.Emit(EventAutoAreaChanged, m)
	return m, true, nil
}

// RefineAutoArea adds or trims a stroke and re-detects. The session's
// measurement is replaced in the same color, or removed when the refined
// region is empty.
func (s *State) RefineAutoArea(mode segment.Mode, polygon []geometry.Point2D) (annotation.Measurement, bool, error) {
	outline, err := s.refiner.Apply(mode, polygon)
	if err != nil {
		return annotation.Measurement{}, false, errors.Wrapf(err, "auto area %s", mode)
	}

	s.mu.Lock()
	c := s.autoColor
	replaced := s.autoID != 0
	if replaced {
		if prev, ok := s.Store.Get(s.autoID); ok {
			c = prev.Color
		}
		s.Store.Remove(s.autoID)
		s.autoID = 0
	}
	m, ok := s.Store.AddAreaWithColor(outline, c)
	if ok {
		s.autoID = m.ID
		s.autoColor = c
	}
	s.mu.Unlock()

	if replaced || ok {
		s.SetModified(true)
	}

	if !ok {
		log.Printf("auto area %s: refined region is empty", mode)
		s.Emit(EventAutoAreaChanged, nil)
		return annotation.Measurement{}, false, nil
	}
	s.Emit(EventAutoAreaChanged, m)
	return m, true, nil
}

// FinishAutoArea closes the auto area session. The last result stays in
// the store as an ordinary measurement.
func (s *State) FinishAutoArea() {
	s.refiner.Finish()
	s.mu.Lock()
	s.autoID = 0
	s.mu.Unlock()
	s.Emit(EventAutoAreaChanged, nil)
}

// PrepareSave builds the payload for writing the annotated image. In
// burn-in mode rendered must hold the image with the overlay drawn on it
// and no vector annotations are stored; otherwise the clean page is saved
// with the editable annotations.
func (s *State) PrepareSave(burnIn bool, rendered goimage.Image) (*image.SavePayload, error) {
	if burnIn && rendered == nil {
		return nil, errors.New("burn-in save needs a rendered image")
	}

	s.mu.RLock()
	layer := s.Layer
	doc := s.Store.Serialize(burnIn)
	s.mu.RUnlock()
	if layer == nil {
		return nil, ErrNoImage
	}

	desc, err := doc.Marshal()
	if err != nil {
		return nil, err
	}
	if !burnIn {
		rendered = nil
	}
	return image.NewSavePayload(layer, rendered, desc)
}

// MarkSaved records that the payload was written to path.
func (s *State) MarkSaved(path string) {
	s.mu.Lock()
	s.ImagePath = path
	s.mu.Unlock()
	s.SetModified(false)
	s.Emit(EventImageSaved, path)
}
