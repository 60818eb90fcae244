package tools

import (
	"bytes"
	"image"
	"image/color"

	"segmate/internal/draw"
	"segmate/internal/editor"
)

// BucketFill fills the connected region under the cursor with the layer
// color, or clears it with the secondary button.
type BucketFill struct {
	editor.BaseTool
}

// NewBucketFill creates a bucket fill tool.
func NewBucketFill() editor.Tool {
	return &BucketFill{}
}

func (t *BucketFill) OnMousePressed(e editor.MouseEvent) bool {
	switch e.Button {
	case editor.ButtonLeft:
		t.fill(e.Pos, t.Color().RGBA())
	case editor.ButtonRight:
		t.fill(e.Pos, color.RGBA{})
	default:
		return false
	}
	return true
}

func (t *BucketFill) OnTabletPressed(e editor.MouseEvent) bool {
	if e.Button != editor.ButtonLeft {
		return false
	}
	if e.Buttons&editor.ButtonMiddle != 0 {
		t.fill(e.Pos, color.RGBA{})
	} else {
		t.fill(e.Pos, t.Color().RGBA())
	}
	return true
}

func (t *BucketFill) fill(p image.Point, c color.RGBA) {
	if !t.CheckEditable() {
		return
	}
	canvas := t.Canvas()
	before := t.Snapshot()
	if draw.FloodFill(canvas, p, c) == 0 || bytes.Equal(before.Pix, canvas.Pix) {
		return
	}
	t.PushUndoSnapshot(before, canvas, "Bucket Fill")
	t.NotifyDirty()
}
