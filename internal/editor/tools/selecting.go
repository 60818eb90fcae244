package tools

import (
	"image"

	"segmate/internal/editor"
	"segmate/internal/mask"

	"gocv.io/x/gocv"
)

// selecting is embedded by the tools whose actions can be limited to a
// rectangle selection.
type selecting struct {
	editor.BaseTool
	selection editor.Selection
}

func (t *selecting) OnHide() { t.selection.Reset() }

func (t *selecting) OnPaint() *image.RGBA {
	return t.selection.Paint(t.Canvas())
}

func (t *selecting) OnMousePressed(e editor.MouseEvent) bool {
	return t.selection.MousePressed(e)
}

func (t *selecting) OnMouseMoved(e editor.MouseEvent) bool {
	return t.selection.MouseMoved(e)
}

func (t *selecting) OnMouseReleased(e editor.MouseEvent) bool {
	return t.selection.MouseReleased(e)
}

func (t *selecting) OnKeyPressed(e editor.KeyEvent) bool {
	if e.Is("Escape") {
		t.selection.Reset()
		return true
	}
	return false
}

// Selection returns the tool's selection.
func (t *selecting) Selection() *editor.Selection {
	return &t.selection
}

// applyMask runs op on the binary mask of the canvas and applies the result,
// limited to the selection, as one undo step labeled text.
func (t *selecting) applyMask(text string, op func(m gocv.Mat) gocv.Mat) {
	if !t.CheckEditable() {
		return
	}
	src := maskMat(t.Canvas())
	defer src.Close()

	out := op(src)
	defer out.Close()

	t.applyGray(text, matToGray(out))
}

// applyGray colors result with the layer color and applies it, keeping the
// current mask outside an active selection.
func (t *selecting) applyGray(text string, result *image.Gray) {
	before := t.Canvas()
	if r, ok := t.selection.Region(before.Bounds()); ok {
		mask.Restore(result, mask.Binary(before), r)
	}
	t.Apply(mask.Color(result, t.Color()), text)
}
