package image

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// BlendMode specifies how layers are composited.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDifference
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendOverlay:
		return "Overlay"
	case BlendDifference:
		return "Difference"
	default:
		return "Unknown"
	}
}

// BlendModes lists all modes in menu order.
func BlendModes() []BlendMode {
	return []BlendMode{BlendNormal, BlendMultiply, BlendScreen, BlendOverlay, BlendDifference}
}

// Composite combines multiple layers into a single image, back to front.
type Composite struct {
	Width     int
	Height    int
	Layers    []*Layer
	BackColor color.Color
}

// NewComposite creates a new Composite with the specified dimensions and a
// transparent background.
func NewComposite(width, height int) *Composite {
	return &Composite{
		Width:     width,
		Height:    height,
		BackColor: color.Transparent,
	}
}

// AddLayer appends a layer on top of the existing ones.
func (c *Composite) AddLayer(layer *Layer) {
	c.Layers = append(c.Layers, layer)
}

// Render produces the final composited image.
func (c *Composite) Render() *image.RGBA {
	result := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))

	draw.Draw(result, result.Bounds(), &image.Uniform{C: c.BackColor}, image.Point{}, draw.Src)

	for _, l := range c.Layers {
		if l == nil || l.Image == nil || !l.Visible || l.Opacity <= 0 {
			continue
		}
		if l.Mode == BlendNormal {
			c.drawNormal(result, l)
			continue
		}
		c.compositeLayer(result, l)
	}

	return result
}

// drawNormal is the source-over path, done by image/draw with a uniform
// opacity mask.
func (c *Composite) drawNormal(dst *image.RGBA, l *Layer) {
	src := l.Image
	r := image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()).Intersect(dst.Bounds())
	if l.Opacity >= 1 {
		draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
		return
	}
	alpha := &image.Uniform{C: color.Alpha{A: uint8(clamp(l.Opacity, 0, 1)*255 + 0.5)}}
	draw.DrawMask(dst, r, src, src.Bounds().Min, alpha, image.Point{}, draw.Over)
}

// compositeLayer blends a single layer onto the result.
func (c *Composite) compositeLayer(dst *image.RGBA, l *Layer) {
	src := l.Image
	srcBounds := src.Bounds()

	for y := srcBounds.Min.Y; y < srcBounds.Max.Y; y++ {
		dstY := y - srcBounds.Min.Y
		if dstY >= c.Height {
			break
		}

		for x := srcBounds.Min.X; x < srcBounds.Max.X; x++ {
			dstX := x - srcBounds.Min.X
			if dstX >= c.Width {
				break
			}

			blended := blend(dst.RGBAAt(dstX, dstY), src.At(x, y), l.Mode, l.Opacity)
			dst.SetRGBA(dstX, dstY, blended)
		}
	}
}

// blend performs the blend operation between two colors.
func blend(dst, src color.Color, mode BlendMode, opacity float64) color.RGBA {
	sr, sg, sb, sa := src.RGBA()
	dr, dg, db, da := dst.RGBA()

	// Convert to 0-1 range, un-premultiplying the source so the blend
	// formulas see straight colors.
	sf := [4]float64{float64(sr) / 65535.0, float64(sg) / 65535.0, float64(sb) / 65535.0, float64(sa) / 65535.0}
	if sf[3] > 0 {
		sf[0] /= sf[3]
		sf[1] /= sf[3]
		sf[2] /= sf[3]
	}
	df := [4]float64{float64(dr) / 65535.0, float64(dg) / 65535.0, float64(db) / 65535.0, float64(da) / 65535.0}

	var rf [3]float64

	switch mode {
	case BlendMultiply:
		rf[0] = sf[0] * df[0]
		rf[1] = sf[1] * df[1]
		rf[2] = sf[2] * df[2]

	case BlendScreen:
		rf[0] = 1 - (1-sf[0])*(1-df[0])
		rf[1] = 1 - (1-sf[1])*(1-df[1])
		rf[2] = 1 - (1-sf[2])*(1-df[2])

	case BlendOverlay:
		for i := 0; i < 3; i++ {
			if df[i] < 0.5 {
				rf[i] = 2 * sf[i] * df[i]
			} else {
				rf[i] = 1 - 2*(1-sf[i])*(1-df[i])
			}
		}

	case BlendDifference:
		rf[0] = math.Abs(sf[0] - df[0])
		rf[1] = math.Abs(sf[1] - df[1])
		rf[2] = math.Abs(sf[2] - df[2])

	default:
		rf[0] = sf[0]
		rf[1] = sf[1]
		rf[2] = sf[2]
	}

	// Apply opacity and alpha blending
	alpha := sf[3] * opacity
	finalR := rf[0]*alpha + df[0]*(1-alpha)
	finalG := rf[1]*alpha + df[1]*(1-alpha)
	finalB := rf[2]*alpha + df[2]*(1-alpha)
	finalA := alpha + df[3]*(1-alpha)

	return color.RGBA{
		R: uint8(clamp(finalR, 0, 1)*255 + 0.5),
		G: uint8(clamp(finalG, 0, 1)*255 + 0.5),
		B: uint8(clamp(finalB, 0, 1)*255 + 0.5),
		A: uint8(clamp(finalA, 0, 1)*255 + 0.5),
	}
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
