package tools

import (
	"image"
	"image/color"
	"math"

	"segmate/internal/draw"
	"segmate/internal/editor"
)

const (
	DefaultBrushSize  = 2
	DefaultEraserSize = 4
	MaxPenSize        = 50
)

// Draw paints with the layer color on the primary button and erases on the
// secondary one. A stylus erases while its middle button is held.
type Draw struct {
	editor.BaseTool

	BrushSize  int
	EraserSize int

	drawing bool
	erasing bool
	last    image.Point
	undo    *image.RGBA
	panel   *editor.Panel
}

// NewDraw creates a draw tool with the default pen sizes.
func NewDraw() editor.Tool {
	t := &Draw{BrushSize: DefaultBrushSize, EraserSize: DefaultEraserSize}
	t.panel = editor.NewPanel("Brush Settings").
		AddSlider("Brush Size", 1, MaxPenSize, t.BrushSize, func(v int) { t.BrushSize = v }).
		AddSlider("Eraser Size", 1, MaxPenSize, t.EraserSize, func(v int) { t.EraserSize = v })
	return t
}

func (t *Draw) Panel() *editor.Panel { return t.panel }

func (t *Draw) OnHide() { t.finish() }

func (t *Draw) OnMousePressed(e editor.MouseEvent) bool {
	if e.Button != editor.ButtonLeft && e.Button != editor.ButtonRight {
		return false
	}
	t.press(e.Pos, e.Button == editor.ButtonRight, 1)
	return true
}

func (t *Draw) OnMouseMoved(e editor.MouseEvent) bool {
	if !t.drawing || e.Buttons&(editor.ButtonLeft|editor.ButtonRight) == 0 {
		return false
	}
	t.line(e.Pos, 1)
	return true
}

func (t *Draw) OnMouseReleased(e editor.MouseEvent) bool {
	if !t.drawing || (e.Button != editor.ButtonLeft && e.Button != editor.ButtonRight) {
		return false
	}
	t.line(e.Pos, 1)
	t.finish()
	return true
}

func (t *Draw) OnTabletPressed(e editor.MouseEvent) bool {
	if e.Button != editor.ButtonLeft {
		return false
	}
	t.press(e.Pos, e.Buttons&editor.ButtonMiddle != 0, e.Pressure)
	return true
}

func (t *Draw) OnTabletMoved(e editor.MouseEvent) bool {
	if !t.drawing || e.Buttons&editor.ButtonLeft == 0 {
		return false
	}
	t.erasing = e.Buttons&editor.ButtonMiddle != 0
	t.line(e.Pos, e.Pressure)
	return true
}

func (t *Draw) OnTabletReleased(e editor.MouseEvent) bool {
	if !t.drawing || e.Button != editor.ButtonLeft {
		return false
	}
	t.line(e.Pos, e.Pressure)
	t.finish()
	return true
}

func (t *Draw) press(p image.Point, erase bool, pressure float64) {
	if !t.CheckEditable() {
		return
	}
	if t.undo == nil {
		t.undo = t.Snapshot()
	}
	t.drawing = true
	t.erasing = erase
	t.last = p
	t.line(p, pressure)
}

// line draws from the last point to p. Stylus pressure scales the pen width.
func (t *Draw) line(p image.Point, pressure float64) {
	canvas := t.Canvas()
	if canvas == nil {
		return
	}
	width := t.BrushSize
	c := t.Color().RGBA()
	if t.erasing {
		width = t.EraserSize
		c = color.RGBA{}
	}
	if pressure > 0 && pressure < 1 {
		width = max(1, int(math.Round(float64(width)*pressure)))
	}
	draw.Line(canvas, t.last, p, c, width)
	t.last = p
}

// finish ends the gesture and records it as one undo step.
func (t *Draw) finish() {
	t.drawing = false
	if t.undo == nil {
		return
	}
	t.PushUndoSnapshot(t.undo, t.Canvas(), "Draw")
	t.undo = nil
	t.NotifyDirty()
}

// PenSize returns the brush diameter shown under the pointer.
func (t *Draw) PenSize() int {
	if t.erasing {
		return t.EraserSize
	}
	return t.BrushSize
}
