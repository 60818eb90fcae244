package tools

import (
	"log"

	"segmate/internal/editor"

	"gocv.io/x/gocv"
)

// Morphology runs binary morphology on the mask, limited to the selection
// when one is active.
type Morphology struct {
	selecting
	panel *editor.Panel
}

// NewMorphology creates a morphology tool.
func NewMorphology() editor.Tool {
	t := &Morphology{}
	t.panel = editor.NewPanel("Morphology").
		AddAction("Fill Holes", t.FillHoles).
		AddSeparator().
		AddAction("Dilate", t.Dilate).
		AddAction("Erode", t.Erode).
		AddSeparator().
		AddAction("Skeletonize", t.Skeletonize).
		AddAction("Watershed", t.Watershed)
	return t
}

// Panel is only offered for editable layers.
func (t *Morphology) Panel() *editor.Panel {
	if !t.IsEditable() {
		return nil
	}
	return t.panel
}

func (t *Morphology) FillHoles() { t.applyMask("Fill Holes", fillHoles) }
func (t *Morphology) Dilate() { t.applyMask("Dilate", dilate) }
func (t *Morphology) Erode() { t.applyMask("Erode", erode) }
func (t *Morphology) Skeletonize() { t.applyMask("Skeletonize", skeletonize) }

// Watershed grows the mask regions over the image layer of the loaded frame.
func (t *Morphology) Watershed() {
	if !t.CheckEditable() {
		return
	}
	base := t.Layer(0)
	if base == nil || base.Bounds() != t.Canvas().Bounds() {
		log.Printf("Tools: watershed: no image layer matching the mask")
		return
	}
	t.applyMask("Watershed", func(m gocv.Mat) gocv.Mat {
		return watershed(base, m)
	})
}
