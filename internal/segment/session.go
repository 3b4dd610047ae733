package segment

import (
	"image"
	"sync"

	"sem-view/pkg/geometry"

	"golang.org/x/sync/semaphore"
)

// Mode selects how a refinement stroke changes the session mask.
type Mode int

const (
	// ModeAdd unions the stroke into the mask.
	ModeAdd Mode = iota
	// ModeTrim removes the stroke from the mask.
	ModeTrim
)

func (m Mode) String() string {
	switch m {
	case ModeAdd:
		return "add"
	case ModeTrim:
		return "trim"
	default:
		return "unknown"
	}
}

// Session is one state of an interactive segmentation: the image, the
// accumulated mask and the outline detected for it. Sessions are values;
// Refine returns a new one and leaves the receiver untouched.
type Session struct {
	Image  image.Image
	Mask   *Mask
	Result []geometry.Point2D
}

// Start rasterizes polygon into the initial mask and runs detection on it.
func Start(seg Segmenter, img image.Image, polygon []geometry.Point2D) (Session, error) {
	if img == nil {
		return Session{}, ErrNilInput
	}
	b := img.Bounds()
	mask := RasterizePolygon(b.Dx(), b.Dy(), polygon)

	result, err := seg.Detect(img, mask)
	if err != nil {
		return Session{}, err
	}
	return Session{Image: img, Mask: mask, Result: result}, nil
}

// Refine applies a stroke to the session mask and re-runs detection.
func (s Session) Refine(seg Segmenter, mode Mode, polygon []geometry.Point2D) (Session, error) {
	if s.Image == nil || s.Mask == nil {
		return Session{}, ErrNoSession
	}
	stroke := RasterizePolygon(s.Mask.Width, s.Mask.Height, polygon)

	var (
		mask *Mask
		err  error
	)
	if mode == ModeTrim {
		mask, err = s.Mask.Subtract(stroke)
	} else {
		mask, err = s.Mask.Union(stroke)
	}
	if err != nil {
		return Session{}, err
	}

	result, err := seg.Detect(s.Image, mask)
	if err != nil {
		return Session{}, err
	}
	return Session{Image: s.Image, Mask: mask, Result: result}, nil
}

// Refiner holds the active session for a caller and serializes steps on
// it. A step requested while another is running fails with ErrBusy rather
// than queueing.
type Refiner struct {
	seg      Segmenter
	inFlight *semaphore.Weighted

	mu      sync.Mutex
	session *Session
}

// NewRefiner creates a refiner that detects with seg.
func NewRefiner(seg Segmenter) *Refiner {
	return &Refiner{seg: seg, inFlight: semaphore.NewWeighted(1)}
}

// Begin starts a new session from polygon, replacing any active one.
func (r *Refiner) Begin(img image.Image, polygon []geometry.Point2D) ([]geometry.Point2D, error) {
	if !r.inFlight.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer r.inFlight.Release(1)

	s, err := Start(r.seg, img, polygon)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.session = &s
	r.mu.Unlock()
	return s.Result, nil
}

// Apply refines the active session with a stroke.
func (r *Refiner) Apply(mode Mode, polygon []geometry.Point2D) ([]geometry.Point2D, error) {
	if !r.inFlight.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer r.inFlight.Release(1)

	r.mu.Lock()
	current := r.session
	r.mu.Unlock()
	if current == nil {
		return nil, ErrNoSession
	}

	next, err := current.Refine(r.seg, mode, polygon)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Finish ran while detecting; drop the result.
	if r.session != current {
		return nil, ErrNoSession
	}
	r.session = &next
	return next.Result, nil
}

// Finish ends the active session.
func (r *Refiner) Finish() {
	r.mu.Lock()
	r.session = nil
	r.mu.Unlock()
}

// Session returns a copy of the active session.
func (r *Refiner) Session() (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return Session{}, false
	}
	return *r.session, true
}

// Active reports whether a session is in progress.
func (r *Refiner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session != nil
}
