//go:build !nocv

package segment

import (
	"image"
	"runtime"

	"sem-view/pkg/geometry"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Structuring element radii for cleaning the thresholded region.
const (
	closeRadius = 3
	openRadius  = 2
)

type cvSegmenter struct{}

// New returns the OpenCV-backed segmenter.
func New() Segmenter {
	return cvSegmenter{}
}

func (cvSegmenter) Available() bool { return true }

func (cvSegmenter) Detect(img image.Image, mask *Mask) ([]geometry.Point2D, error) {
	region, err := foreground(img, mask)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return []geometry.Point2D{}, nil
	}

	cleaned, err := clean(mask.Width, mask.Height, region)
	if err != nil {
		return nil, err
	}

	outline := largestContour(IsoContours(mask.Width, mask.Height, cleaned))
	if outline == nil {
		return []geometry.Point2D{}, nil
	}
	if n := len(outline); outline[0] == outline[n-1] {
		outline = outline[:n-1]
	}
	return outline, nil
}

// clean closes then opens the 0/255 region raster with disk structuring
// elements and returns the result in the same layout.
func clean(width, height int, region []uint8) ([]uint8, error) {
	mat, err := matFromBytes(height, width, region)
	if err != nil {
		return nil, errors.Wrap(err, "region matrix")
	}
	defer mat.Close()

	closeKernel, err := diskKernel(closeRadius)
	if err != nil {
		return nil, err
	}
	defer closeKernel.Close()
	openKernel, err := diskKernel(openRadius)
	if err != nil {
		return nil, err
	}
	defer openKernel.Close()

	// Fill small gaps, then drop specks
	gocv.MorphologyEx(mat, &mat, gocv.MorphClose, closeKernel)
	gocv.MorphologyEx(mat, &mat, gocv.MorphOpen, openKernel)

	return mat.ToBytes(), nil
}

// diskKernel returns a (2r+1)x(2r+1) structuring element with the pixels
// at distance <= r from the center set.
func diskKernel(r int) (gocv.Mat, error) {
	size := 2*r + 1
	data := make([]byte, size*size)
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				data[(y+r)*size+(x+r)] = 1
			}
		}
	}
	kernel, err := matFromBytes(size, size, data)
	if err != nil {
		return gocv.Mat{}, errors.Wrapf(err, "disk kernel r=%d", r)
	}
	return kernel, nil
}

// matFromBytes copies an 8-bit single channel raster into a Mat that owns
// its pixels. NewMatFromBytes only borrows the Go slice.
func matFromBytes(rows, cols int, data []byte) (gocv.Mat, error) {
	borrowed, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8U, data)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer borrowed.Close()
	owned := borrowed.Clone()
	runtime.KeepAlive(data)
	return owned, nil
}
