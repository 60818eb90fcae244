package tools

import (
	"image"
	"log"

	"segmate/internal/editor"
	"segmate/internal/mask"
)

// Masks combines the mask of the active layer with other masks: the previous
// frame's, or all masks of the loaded frame.
type Masks struct {
	selecting
	panel *editor.Panel
}

// NewMasks creates a masks tool.
func NewMasks() editor.Tool {
	t := &Masks{}
	t.panel = editor.NewPanel("Masks").
		AddAction("Copy Previous Mask", t.CopyPrevious).
		AddSeparator().
		AddAction("Clear Mask", t.Clear).
		AddAction("Merge Masks", t.Merge).
		AddAction("Clear & Merge Masks", t.ClearAndMerge)
	return t
}

func (t *Masks) Panel() *editor.Panel { return t.panel }

// CopyPrevious takes the mask of the previous frame. With a selection the
// current mask is kept and the previous one only added inside it.
func (t *Masks) CopyPrevious() {
	if !t.CheckEditable() {
		return
	}
	stored, err := t.StoredLayer(max(t.ImageIndex()-1, 0), t.LayerIndex())
	if err != nil {
		log.Printf("Tools: copy previous mask: %v", err)
		t.SendStatus("Could not read the previous mask")
		return
	}
	prev := mask.Binary(stored)
	if r, ok := t.selection.Region(t.Canvas().Bounds()); ok {
		out := mask.Binary(t.Canvas())
		mask.OrWithin(out, prev, r)
		prev = out
	}
	t.Apply(mask.Color(prev, t.Color()), "Copy Mask")
}

// Clear erases the mask, or only the part inside the selection.
func (t *Masks) Clear() {
	if !t.CheckEditable() {
		return
	}
	t.Apply(t.cleared(), "Clear Mask")
}

func (t *Masks) cleared() *image.RGBA {
	canvas := t.Canvas()
	if r, ok := t.selection.Region(canvas.Bounds()); ok {
		m := mask.Binary(canvas)
		mask.ClearWithin(m, r)
		return mask.Color(m, t.Color())
	}
	return image.NewRGBA(canvas.Bounds())
}

// Merge sets every pixel that is on in any mask layer of the frame. With a
// selection the other masks only contribute inside it.
func (t *Masks) Merge() {
	if !t.CheckEditable() {
		return
	}
	t.Apply(t.merged(t.Canvas()), "Merge Mask")
}

func (t *Masks) merged(current *image.RGBA) *image.RGBA {
	r, selected := t.selection.Region(current.Bounds())
	out := mask.Binary(current)
	host := t.Host()
	for l := 0; l < host.NumLayers(); l++ {
		if l == host.LayerIndex() || !host.IsMask(l) {
			continue
		}
		layer := host.Layer(l)
		if layer == nil || layer.Bounds() != current.Bounds() {
			continue
		}
		if selected {
			mask.OrWithin(out, mask.Binary(layer), r)
		} else {
			mask.Or(out, mask.Binary(layer))
		}
	}
	return mask.Color(out, t.Color())
}

// ClearAndMerge clears the mask and merges the other masks into it as one
// step.
func (t *Masks) ClearAndMerge() {
	if !t.CheckEditable() {
		return
	}
	t.Apply(t.merged(t.cleared()), "Clear & Merge")
}
