// Package segment finds the outline of a bright feature inside a
// user-drawn region and supports refining that region step by step.
package segment

import (
	"image"

	"sem-view/pkg/geometry"

	"github.com/pkg/errors"
)

var (
	// ErrUnavailable is returned by Detect when the binary was built without
	// the image-processing backend.
	ErrUnavailable = errors.New("segmentation backend not available")

	// ErrShapeMismatch is returned when a mask does not match the image size.
	ErrShapeMismatch = errors.New("mask size does not match image")

	// ErrNilInput is returned when Detect is called without an image or mask.
	ErrNilInput = errors.New("image and mask are required")

	// ErrBusy is returned when a refinement step is requested while another
	// one is still running.
	ErrBusy = errors.New("segmentation step already in progress")

	// ErrNoSession is returned by Refiner.Apply before Begin.
	ErrNoSession = errors.New("no active segmentation session")
)

// Segmenter detects the dominant bright region inside a mask.
type Segmenter interface {
	// Available reports whether Detect can do any work in this build.
	Available() bool

	// Detect returns the outline of the largest bright region inside mask
	// as (x, y) pixel coordinates along the region's 0.5 iso-line. An empty slice with a nil error means no
	// region was found. Only features brighter than their surroundings are
	// found, and "largest" is by contour point count, not enclosed area.
	Detect(img image.Image, mask *Mask) ([]geometry.Point2D, error)
}
