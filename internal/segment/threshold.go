package segment

import (
	"image"
	"math"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// otsuBins is the histogram resolution for non-integer intensities.
	otsuBins = 256

	// maxIntegerBins caps the one-bin-per-level histogram at 16-bit depth.
	maxIntegerBins = 1 << 16
)

// Intensity converts img to a row-major slice of per-pixel intensities.
// Gray images are used directly; color images use the unweighted mean of
// the red, green and blue channels truncated to the channel depth, so every
// intensity is a whole number.
func Intensity(img image.Image) []float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	out := make([]float64, width*height)

	// Parallelize by horizontal stripes
	numWorkers := runtime.NumCPU()
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		startY := w * rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > height {
			endY = height
		}
		if startY >= height {
			break
		}

		wg.Add(1)
		go func(yStart, yEnd int) {
			defer wg.Done()
			for y := yStart; y < yEnd; y++ {
				row := out[y*width : (y+1)*width]
				for x := 0; x < width; x++ {
					row[x] = pixelIntensity(img, x+bounds.Min.X, y+bounds.Min.Y)
				}
			}
		}(startY, endY)
	}
	wg.Wait()

	return out
}

func pixelIntensity(img image.Image, x, y int) float64 {
	switch src := img.(type) {
	case *image.Gray:
		return float64(src.GrayAt(x, y).Y)
	case *image.Gray16:
		return float64(src.Gray16At(x, y).Y)
	case *image.RGBA64, *image.NRGBA64:
		r, g, b, _ := img.At(x, y).RGBA()
		sum := r + g + b
		return float64(sum / 3)
	}
	r, g, b, _ := img.At(x, y).RGBA()
	sum := r>>8 + g>>8 + b>>8
	return float64(sum / 3)
}

// OtsuThreshold computes Otsu's threshold over values. When every value is
// a whole number and the range fits, the histogram has one bin per level;
// otherwise it has 256 bins spanning [min, max]. The threshold is the
// largest value in the lower class of the split that maximizes the
// between-class variance, so v > threshold selects exactly the upper class.
// ok is false when values is empty or uniform, in which case no split
// exists.
func OtsuThreshold(values []float64) (threshold float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		return lo, false
	}

	if integral(values) && hi-lo < maxIntegerBins {
		counts, levels := levelHistogram(values, lo, hi)
		return levels[otsuSplit(counts, levels)], true
	}

	edges := make([]float64, otsuBins+1)
	floats.Span(edges, lo, hi)
	centers := make([]float64, otsuBins)
	for i := range centers {
		centers[i] = (edges[i] + edges[i+1]) / 2
	}

	// The last bin is closed on the right.
	dividers := append([]float64(nil), edges...)
	dividers[otsuBins] = math.Nextafter(hi, math.Inf(1))

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	counts := stat.Histogram(nil, dividers, sorted, nil)

	best := otsuSplit(counts, centers)
	// Bin best is non-empty, so at least one value sorts below its upper
	// divider.
	n := sort.SearchFloat64s(sorted, dividers[best+1])
	return sorted[n-1], true
}

// integral reports whether every value is a whole number.
func integral(values []float64) bool {
	for _, v := range values {
		if v != math.Trunc(v) {
			return false
		}
	}
	return true
}

// levelHistogram counts whole-number values with one bin per level in
// [lo, hi].
func levelHistogram(values []float64, lo, hi float64) (counts, levels []float64) {
	n := int(hi-lo) + 1
	counts = make([]float64, n)
	for _, v := range values {
		counts[int(v-lo)]++
	}
	levels = make([]float64, n)
	floats.Span(levels, lo, hi)
	return counts, levels
}

// otsuSplit returns the index of the last bin of the lower class for the
// split that maximizes w1*w2*(m1-m2)^2. The returned bin is never empty.
func otsuSplit(counts, centers []float64) int {
	bins := len(counts)
	weighted := make([]float64, bins)
	floats.MulTo(weighted, counts, centers)

	w1 := floats.CumSum(make([]float64, bins), counts)
	s1 := floats.CumSum(make([]float64, bins), weighted)
	w2 := reverseCumSum(counts)
	s2 := reverseCumSum(weighted)

	best, bestVar := 0, math.Inf(-1)
	for i := 0; i < bins-1; i++ {
		if counts[i] == 0 || w2[i+1] == 0 {
			continue
		}
		m1 := s1[i] / w1[i]
		m2 := s2[i+1] / w2[i+1]
		v := w1[i] * w2[i+1] * (m1 - m2) * (m1 - m2)
		if v > bestVar {
			best, bestVar = i, v
		}
	}
	return best
}

// reverseCumSum returns out[i] = sum(s[i:]).
func reverseCumSum(s []float64) []float64 {
	out := make([]float64, len(s))
	acc := 0.0
	for i := len(s) - 1; i >= 0; i-- {
		acc += s[i]
		out[i] = acc
	}
	return out
}

// foreground builds the 0/255 region raster for Detect: pixels inside mask
// brighter than the Otsu threshold of the masked intensities. A nil region
// with a nil error means the mask selects nothing.
func foreground(img image.Image, mask *Mask) ([]uint8, error) {
	if img == nil || mask == nil {
		return nil, ErrNilInput
	}
	b := img.Bounds()
	if mask.Width != b.Dx() || mask.Height != b.Dy() || len(mask.Bits) != mask.Width*mask.Height {
		return nil, ErrShapeMismatch
	}

	intensity := Intensity(img)
	masked := make([]float64, 0, mask.Count())
	for i, in := range mask.Bits {
		if in {
			masked = append(masked, intensity[i])
		}
	}
	if len(masked) == 0 {
		return nil, nil
	}

	threshold, ok := OtsuThreshold(masked)
	if !ok {
		threshold = stat.Mean(masked, nil)
	}

	region := make([]uint8, len(intensity))
	for i, v := range intensity {
		if mask.Bits[i] && v > threshold {
			region[i] = 255
		}
	}
	return region, nil
}
