// Package draw provides the raster primitives the editor tools paint with.
//
// All primitives write colors directly (no blending), so painting with a
// transparent color erases.
package draw

import (
	"image"
	"image/color"
	"math"
)

// Line draws a line from p0 to p1 with the given width and round caps.
// Points outside the image are clipped.
func Line(img *image.RGBA, p0, p1 image.Point, c color.RGBA, width int) {
	if width < 1 {
		width = 1
	}
	for _, p := range bresenham(p0, p1) {
		setClipped(img, p.X, p.Y, c)
		if width > 1 {
			disc(img, p, width, c)
		}
	}
}

// Point stamps a single round brush dab at p.
func Point(img *image.RGBA, p image.Point, c color.RGBA, width int) {
	Line(img, p, p, c, width)
}

// disc fills a circle of diameter width around p. Even widths are centered on
// the pixel corner so the dab stays symmetric.
func disc(img *image.RGBA, p image.Point, width int, c color.RGBA) {
	r := float64(width) / 2
	cx, cy := float64(p.X), float64(p.Y)
	if width%2 == 0 {
		cx += 0.5
		cy += 0.5
	}
	reach := int(math.Ceil(r)) + 1
	for y := p.Y - reach; y <= p.Y+reach; y++ {
		for x := p.X - reach; x <= p.X+reach; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy < r*r {
				setClipped(img, x, y, c)
			}
		}
	}
}

func bresenham(p0, p1 image.Point) []image.Point {
	dx := abs(p1.X - p0.X)
	dy := -abs(p1.Y - p0.Y)
	sx, sy := 1, 1
	if p0.X > p1.X {
		sx = -1
	}
	if p0.Y > p1.Y {
		sy = -1
	}

	pts := make([]image.Point, 0, max(dx, -dy)+1)
	x, y := p0.X, p0.Y
	e := dx + dy
	for {
		pts = append(pts, image.Point{X: x, Y: y})
		if x == p1.X && y == p1.Y {
			break
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
	return pts
}

// Rectangle draws the one pixel outline of r.
func Rectangle(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Canon()
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		setClipped(img, x, r.Min.Y, c)
		setClipped(img, x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		setClipped(img, r.Min.X, y, c)
		setClipped(img, r.Max.X-1, y, c)
	}
}

// FloodFill replaces the 4-connected region around seed with fill. The
// region consists of the pixels that share the seed's class: either all
// color channels zero, or not. Filling an empty area therefore stops at any
// painted pixel, and filling a painted area with transparent erases exactly
// that connected blob. It returns the number of pixels written.
func FloodFill(img *image.RGBA, seed image.Point, fill color.RGBA) int {
	b := img.Bounds()
	if !seed.In(b) {
		return 0
	}

	w := b.Dx()
	visited := make([]bool, w*b.Dy())
	class := isZero(img, seed.X, seed.Y)

	count := 0
	stack := []image.Point{seed}
	visited[(seed.Y-b.Min.Y)*w+seed.X-b.Min.X] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		img.SetRGBA(p.X, p.Y, fill)
		count++

		for _, n := range [4]image.Point{
			{X: p.X, Y: p.Y + 1},
			{X: p.X, Y: p.Y - 1},
			{X: p.X + 1, Y: p.Y},
			{X: p.X - 1, Y: p.Y},
		} {
			if !n.In(b) {
				continue
			}
			idx := (n.Y-b.Min.Y)*w + n.X - b.Min.X
			if visited[idx] || isZero(img, n.X, n.Y) != class {
				continue
			}
			visited[idx] = true
			stack = append(stack, n)
		}
	}
	return count
}

func isZero(img *image.RGBA, x, y int) bool {
	i := img.PixOffset(x, y)
	return img.Pix[i] == 0 && img.Pix[i+1] == 0 && img.Pix[i+2] == 0
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	img.SetRGBA(x, y, c)
}

// Clone returns a deep copy of img with the same bounds.
func Clone(img *image.RGBA) *image.RGBA {
	if img == nil {
		return nil
	}
	out := &image.RGBA{
		Pix:    make([]uint8, len(img.Pix)),
		Stride: img.Stride,
		Rect:   img.Rect,
	}
	copy(out.Pix, img.Pix)
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
