package editor

import (
	"image"
	stddraw "image/draw"

	"segmate/internal/draw"
	"segmate/pkg/colorutil"
	"segmate/pkg/geometry"

	"github.com/gogpu/gg"
)

// MinSelectionGap is the edge length (in pixels) a selection must exceed in
// both directions to become active.
const MinSelectionGap = 4

// Selection is a rectangular region of effect dragged with the primary
// button. Tools forward their mouse events to it.
type Selection struct {
	selecting bool
	hasStart  bool
	hasEnd    bool
	start     image.Point
	end       image.Point
}

// Start anchors a new selection at p.
func (s *Selection) Start(p image.Point) {
	s.selecting = true
	s.hasStart = true
	s.hasEnd = false
	s.start = p
}

// Move sets the far corner while dragging.
func (s *Selection) Move(p image.Point) {
	if !s.selecting {
		return
	}
	s.end = p
	s.hasEnd = true
}

// Release finalizes the selection. Rectangles too small in either direction
// are discarded.
func (s *Selection) Release(p image.Point) {
	if !s.selecting {
		return
	}
	s.selecting = false
	s.end = p
	s.hasEnd = true
	if !s.hasGap(MinSelectionGap) {
		s.Reset()
	}
}

// Reset clears the selection.
func (s *Selection) Reset() {
	*s = Selection{}
}

// Selecting reports whether a drag is in progress.
func (s *Selection) Selecting() bool {
	return s.selecting
}

// Active reports whether a selection with both edges longer than
// MinSelectionGap exists.
func (s *Selection) Active() bool {
	return s.hasStart && s.hasEnd && s.hasGap(MinSelectionGap)
}

func (s *Selection) hasGap(gap int) bool {
	if !s.hasStart || !s.hasEnd {
		return false
	}
	return abs(s.end.X-s.start.X) > gap && abs(s.end.Y-s.start.Y) > gap
}

// Rect returns the normalized selection rectangle. The far corner is
// exclusive.
func (s *Selection) Rect() geometry.RectInt {
	return geometry.RectFromCorners(
		geometry.PointInt{X: s.start.X, Y: s.start.Y},
		geometry.PointInt{X: s.end.X, Y: s.end.Y},
	)
}

// Region returns the active selection if it lies inside bounds. A selection
// that no longer fits (e.g. after switching to a smaller image) is reset.
func (s *Selection) Region(bounds image.Rectangle) (geometry.RectInt, bool) {
	if !s.Active() {
		return geometry.RectInt{}, false
	}
	r := s.Rect()
	if !r.Within(bounds) {
		s.Reset()
		return geometry.RectInt{}, false
	}
	return r, true
}

// MousePressed starts the selection on a primary press and clears it on any
// other button.
func (s *Selection) MousePressed(e MouseEvent) bool {
	if e.Button == ButtonLeft {
		s.Start(e.Pos)
		return true
	}
	if e.Button != 0 {
		s.Reset()
		return true
	}
	return false
}

// MouseMoved updates the far corner while the primary button is held.
func (s *Selection) MouseMoved(e MouseEvent) bool {
	if e.Buttons&ButtonLeft != 0 {
		s.Move(e.Pos)
		return true
	}
	return false
}

// MouseReleased finalizes the selection on primary release.
func (s *Selection) MouseReleased(e MouseEvent) bool {
	if e.Button == ButtonLeft {
		s.Release(e.Pos)
		return true
	}
	return false
}

// overlayAlpha is the opacity of the shade painted outside an active
// selection.
const overlayAlpha = 96

// Paint returns a copy of canvas with the selection drawn on top: the area
// outside a finished selection is shaded and the rectangle outlined. With no
// selection the canvas is returned unchanged.
func (s *Selection) Paint(canvas *image.RGBA) *image.RGBA {
	if canvas == nil || !s.hasStart || !s.hasEnd {
		return canvas
	}
	r := s.Rect()
	if !s.selecting {
		if _, ok := s.Region(canvas.Bounds()); !ok {
			return canvas
		}
	}

	dc := gg.NewContextForImage(canvas)

	x0, y0 := float64(r.X), float64(r.Y)
	x1, y1 := float64(r.X+r.Width), float64(r.Y+r.Height)
	w, h := float64(dc.Width()), float64(dc.Height())

	if !s.selecting {
		dc.SetRGBA(0, 0, 0, overlayAlpha/255.0)
		dc.DrawRectangle(0, 0, w, y0)
		dc.DrawRectangle(0, y1, w, h-y1)
		dc.DrawRectangle(0, y0, x0, y1-y0)
		dc.DrawRectangle(x1, y0, w-x1, y1-y0)
		_ = dc.Fill()
	}

	dc.SetColor(colorutil.DarkSlateGray)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x0+0.5, y0+0.5, float64(r.Width)-1, float64(r.Height)-1)
	_ = dc.Stroke()
	_ = dc.Close()

	return toRGBA(dc.Image())
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	stddraw.Draw(out, out.Bounds(), img, img.Bounds().Min, stddraw.Src)
	return out
}

// restoreOutside keeps result only inside the selection by copying every
// other pixel from original.
func restoreOutside(result, original *image.RGBA, keep geometry.RectInt) {
	b := result.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if keep.Contains(x, y) {
				continue
			}
			i := result.PixOffset(x, y)
			j := original.PixOffset(x, y)
			copy(result.Pix[i:i+4], original.Pix[j:j+4])
		}
	}
}

// ClipToSelection limits an operation result to the active selection of s:
// pixels outside it are taken from before. Without a selection result is
// returned as is.
func ClipToSelection(s *Selection, before, result *image.RGBA) *image.RGBA {
	if s == nil || before == nil {
		return result
	}
	r, ok := s.Region(result.Bounds())
	if !ok {
		return result
	}
	out := draw.Clone(result)
	restoreOutside(out, before, r)
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
