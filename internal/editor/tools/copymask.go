package tools

import (
	"log"

	"segmate/internal/editor"
	"segmate/internal/mask"
)

// CopyMask replaces the layer with the same layer of the previous image.
type CopyMask struct {
	editor.BaseTool
	panel *editor.Panel
}

// NewCopyMask creates a copy mask tool.
func NewCopyMask() editor.Tool {
	t := &CopyMask{}
	t.panel = editor.NewPanel("Copy Mask Tool").
		AddAction("Copy layer from previous frame", t.Copy)
	return t
}

func (t *CopyMask) Panel() *editor.Panel { return t.panel }

// Copy takes the layer of the previous image. On the first image it reloads
// the stored layer.
func (t *CopyMask) Copy() {
	if !t.CheckEditable() {
		return
	}
	prev, err := t.StoredLayer(max(t.ImageIndex()-1, 0), t.LayerIndex())
	if err != nil {
		log.Printf("Tools: copy mask: %v", err)
		t.SendStatus("Could not read the previous mask")
		return
	}
	t.Apply(mask.Color(mask.Binary(prev), t.Color()), "Copy Mask")
}
