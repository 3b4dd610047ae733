// Package image provides image loading and the TIFF tag plumbing the SEM
// viewer needs: raw access to the instrument tag and the image description.
package image

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"sem-view/internal/semmeta"

	"github.com/pkg/errors"
	_ "golang.org/x/image/tiff"
)

// Layer is one loaded image file: its first page plus the raw tags the
// viewer cares about.
type Layer struct {
	Path   string      // Original file path
	Image  image.Image // First page
	Format string      // Decoder name reported by image.Decode

	// Raw bytes of TIFF tag 270 (ImageDescription), nil if absent.
	Description []byte

	// Raw bytes of TIFF tag 34118 (instrument metadata), nil if absent.
	// Copied through unmodified on save.
	SEMTag []byte
}

// ErrUnsupportedFormat is returned by Load for file extensions the viewer
// does not open.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Load reads an image from the specified path and returns a Layer.
func Load(path string) (*Layer, error) {
	if !IsSupportedFormat(path) {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s (want one of %s)",
			filepath.Base(path), strings.Join(SupportedFormats(), ", "))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}

	layer, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", filepath.Base(path))
	}
	layer.Path = path
	return layer, nil
}

// Decode decodes an in-memory image file. For TIFF input the first IFD is
// scanned for the description and instrument tags.
func Decode(data []byte) (*Layer, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	layer := &Layer{Image: img, Format: format}
	if format == "tiff" {
		tags, err := readTags(bytes.NewReader(data), TagImageDescription, TagCZSEM)
		if err != nil {
			// Pixels decoded fine; treat the tags as missing.
			return layer, nil
		}
		layer.Description = tags[TagImageDescription]
		layer.SEMTag = tags[TagCZSEM]
	}
	return layer, nil
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// Metadata parses the instrument tag. It returns nil when the file has none.
func (l *Layer) Metadata() semmeta.Block {
	if l.SEMTag == nil {
		return nil
	}
	return ParseCZSEM(l.SEMTag)
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
