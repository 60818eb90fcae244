package canvas

import (
	"image"
	"image/color"
)

var penOutline = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}

// drawPenOutline outlines a round pen of the given diameter (image pixels)
// centered on the image point p.
func drawPenOutline(output *image.RGBA, p image.Point, diameter int, zoom float64) {
	cx := int((float64(p.X) + 0.5) * zoom)
	cy := int((float64(p.Y) + 0.5) * zoom)
	r := int(float64(diameter) * zoom / 2)
	if r < 2 {
		r = 2
	}

	// Midpoint circle
	x, y := r, 0
	err := 1 - r
	for x >= y {
		for _, q := range [8][2]int{
			{x, y}, {y, x}, {-y, x}, {-x, y},
			{-x, -y}, {-y, -x}, {y, -x}, {x, -y},
		} {
			setPixel(output, cx+q[0], cy+q[1], penOutline)
		}
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2*(y-x) + 1
		}
	}
}

func setPixel(output *image.RGBA, x, y int, col color.RGBA) {
	if (image.Point{X: x, Y: y}).In(output.Bounds()) {
		output.SetRGBA(x, y, col)
	}
}
