//go:build nocv

package segment

import (
	"image"

	"sem-view/pkg/geometry"
)

type unavailableSegmenter struct{}

// New returns a segmenter that reports itself unavailable. This build was
// compiled without OpenCV.
func New() Segmenter {
	return unavailableSegmenter{}
}

func (unavailableSegmenter) Available() bool { return false }

func (unavailableSegmenter) Detect(image.Image, *Mask) ([]geometry.Point2D, error) {
	return nil, ErrUnavailable
}
