// Package mask converts between colored RGBA mask layers and binary masks.
//
// A binary mask is an *image.Gray holding only 0 (off) and 255 (on). This is
// also the on-disk representation of mask layers.
package mask

import (
	"image"
	"image/color"

	"segmate/pkg/colorutil"
	"segmate/pkg/geometry"
)

// On is the value of a set pixel in a binary mask.
const On = 255

// New returns an empty binary mask with the given bounds.
func New(r image.Rectangle) *image.Gray {
	return image.NewGray(r)
}

// Binary extracts a binary mask from img: a pixel is on when its gray value
// is nonzero. For color images the alpha channel is ignored; only the color
// channels take part.
func Binary(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)

	switch src := img.(type) {
	case *image.RGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			si := src.PixOffset(b.Min.X, y)
			di := out.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x++ {
				if src.Pix[si] != 0 || src.Pix[si+1] != 0 || src.Pix[si+2] != 0 {
					out.Pix[di] = On
				}
				si += 4
				di++
			}
		}
	case *image.Gray:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			si := src.PixOffset(b.Min.X, y)
			di := out.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x++ {
				if src.Pix[si] != 0 {
					out.Pix[di] = On
				}
				si++
				di++
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				if r>>8 != 0 || g>>8 != 0 || bl>>8 != 0 {
					out.SetGray(x, y, color.Gray{Y: On})
				}
			}
		}
	}
	return out
}

// Color renders a binary mask as an RGBA layer: on pixels get c with full
// alpha, everything else is fully transparent.
func Color(m *image.Gray, c colorutil.RGB) *image.RGBA {
	b := m.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		si := m.PixOffset(b.Min.X, y)
		di := out.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			if m.Pix[si] != 0 {
				out.Pix[di] = c.R
				out.Pix[di+1] = c.G
				out.Pix[di+2] = c.B
				out.Pix[di+3] = 255
			}
			si++
			di += 4
		}
	}
	return out
}

// Grayscale converts img to 8-bit luminance. Gray images are copied as is.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	if g, ok := img.(*image.Gray); ok {
		copy(out.Pix, g.Pix)
		return out
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetGray(x, y, color.Gray{Y: colorutil.Gray(c.R, c.G, c.B)})
		}
	}
	return out
}

// Restore copies every pixel of original that lies outside keep into result,
// so that an operation only takes effect inside keep.
func Restore(result, original *image.Gray, keep geometry.RectInt) {
	b := result.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if keep.Contains(x, y) {
				continue
			}
			result.Pix[result.PixOffset(x, y)] = original.Pix[original.PixOffset(x, y)]
		}
	}
}

// Or sets every pixel of dst that is on in src.
func Or(dst, src *image.Gray) {
	for i, v := range src.Pix {
		if v != 0 {
			dst.Pix[i] = On
		}
	}
}

// OrWithin is Or restricted to the pixels inside r.
func OrWithin(dst, src *image.Gray, r geometry.RectInt) {
	b := dst.Bounds().Intersect(r.ImageRect())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if src.Pix[src.PixOffset(x, y)] != 0 {
				dst.Pix[dst.PixOffset(x, y)] = On
			}
		}
	}
}

// ClearWithin switches off every pixel inside r.
func ClearWithin(m *image.Gray, r geometry.RectInt) {
	b := m.Bounds().Intersect(r.ImageRect())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			m.Pix[m.PixOffset(x, y)] = 0
		}
	}
}

// Count returns the number of on pixels.
func Count(m *image.Gray) int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Equal reports whether two masks have the same bounds and on/off pattern.
func Equal(a, b *image.Gray) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if (a.Pix[a.PixOffset(x, y)] != 0) != (b.Pix[b.PixOffset(x, y)] != 0) {
				return false
			}
		}
	}
	return true
}
