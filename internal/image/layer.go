// Package image provides image loading, layer management, and compositing.
package image

import (
	"fmt"
	"image"
	"image/draw"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"
)

// Layer is one display layer of a composite.
type Layer struct {
	Name    string      // Folder name of the layer
	Image   image.Image // Pixel data; nil layers are skipped
	Visible bool        // Layer visibility
	Opacity float64     // Layer opacity (0.0 - 1.0)
	Mode    BlendMode
}

// NewLayer creates a new Layer with default settings.
func NewLayer(name string) *Layer {
	return &Layer{
		Name:    name,
		Visible: true,
		Opacity: 1.0,
	}
}

// Load decodes the image file at path into an RGBA buffer.
func Load(path string) (*image.RGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return ToRGBA(img), nil
}

// LoadGray decodes the image file at path as 8-bit grayscale.
func LoadGray(path string) (*image.Gray, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if g, ok := img.(*image.Gray); ok {
		return g, nil
	}
	out := image.NewGray(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out, nil
}

// Save encodes img to path, picking the format from the extension.
func Save(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// ToRGBA returns img as an RGBA buffer anchored at the origin. RGBA inputs
// already at the origin are returned as is.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".png", ".tiff", ".tif", ".jpg", ".jpeg", ".bmp", ".gif"}
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

