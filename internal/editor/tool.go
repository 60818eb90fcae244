// Package editor implements the annotation editor: tool dispatch, linear
// undo/redo, rectangle selection, per-layer composition and the scene that
// ties them to the data store.
package editor

import (
	"fmt"
	"image"

	"segmate/internal/draw"
	"segmate/pkg/colorutil"
)

// Tool is an editing strategy. It owns the canvas of the active layer while it
// is the current tool. The event hooks return true when the event was handled.
type Tool interface {
	Bind(host Host)
	Canvas() *image.RGBA
	SetCanvas(c *image.RGBA)

	OnShow()
	OnHide()
	// OnPaint returns what the canvas should look like on screen. It may
	// differ from the canvas (e.g. a selection overlay).
	OnPaint() *image.RGBA
	// OnFinalize returns the layer result when the tool is switched away or
	// the layers are read back. Nil keeps the current layer buffer.
	OnFinalize() *image.RGBA

	OnMousePressed(e MouseEvent) bool
	OnMouseMoved(e MouseEvent) bool
	OnMouseReleased(e MouseEvent) bool
	OnTabletPressed(e MouseEvent) bool
	OnTabletMoved(e MouseEvent) bool
	OnTabletReleased(e MouseEvent) bool
	OnKeyPressed(e KeyEvent) bool
	OnKeyReleased(e KeyEvent) bool

	// Panel returns the parameter panel, or nil if the tool has none.
	Panel() *Panel
}

// Host is what a tool sees of the editor. It is implemented by Layers.
type Host interface {
	ImageIndex() int
	LayerIndex() int
	NumLayers() int
	LayerName(l int) string
	Color(l int) colorutil.RGB
	IsMask(l int) bool
	IsEditable(l int) bool
	Bounds() image.Rectangle

	// Layer returns a copy of layer l of the loaded image. For the active
	// layer that is the tool canvas.
	Layer(l int) *image.RGBA
	// StoredLayer returns a copy of layer l of image i from the store.
	StoredLayer(i, l int) (*image.RGBA, error)

	PushSnapshot(before, after *image.RGBA, text string)
	Status(msg string)
	NotifyDirty()
}

// BaseTool implements every Tool hook as a no-op and provides the helpers
// shared by the concrete tools. Tools embed it.
type BaseTool struct {
	host   Host
	canvas *image.RGBA
}

func (t *BaseTool) Bind(host Host) { t.host = host }
func (t *BaseTool) Host() Host { return t.host }
func (t *BaseTool) Canvas() *image.RGBA { return t.canvas }
func (t *BaseTool) SetCanvas(c *image.RGBA) { t.canvas = c }

func (t *BaseTool) OnShow() {}
func (t *BaseTool) OnHide() {}
func (t *BaseTool) OnPaint() *image.RGBA { return t.canvas }
func (t *BaseTool) OnFinalize() *image.RGBA { return t.canvas }
func (t *BaseTool) Panel() *Panel { return nil }

func (t *BaseTool) OnMousePressed(MouseEvent) bool { return false }
func (t *BaseTool) OnMouseMoved(MouseEvent) bool { return false }
func (t *BaseTool) OnMouseReleased(MouseEvent) bool { return false }
func (t *BaseTool) OnTabletPressed(MouseEvent) bool { return false }
func (t *BaseTool) OnTabletMoved(MouseEvent) bool { return false }
func (t *BaseTool) OnTabletReleased(MouseEvent) bool { return false }
func (t *BaseTool) OnKeyPressed(KeyEvent) bool { return false }
func (t *BaseTool) OnKeyReleased(KeyEvent) bool { return false }

// ImageIndex returns the loaded image index.
func (t *BaseTool) ImageIndex() int {
	if t.host == nil {
		return 0
	}
	return t.host.ImageIndex()
}

// LayerIndex returns the active layer.
func (t *BaseTool) LayerIndex() int {
	if t.host == nil {
		return 0
	}
	return t.host.LayerIndex()
}

// Color returns the draw color of the active layer.
func (t *BaseTool) Color() colorutil.RGB {
	if t.host == nil {
		return colorutil.Palette[0]
	}
	return t.host.Color(t.host.LayerIndex())
}

// IsMask reports whether the active layer is a mask layer.
func (t *BaseTool) IsMask() bool {
	return t.host != nil && t.host.IsMask(t.host.LayerIndex())
}

// IsEditable reports whether the active layer may be written.
func (t *BaseTool) IsEditable() bool {
	return t.host != nil && t.host.IsEditable(t.host.LayerIndex())
}

// CheckEditable reports whether the active layer is an editable mask. If not,
// it posts a status message; callers must then leave the canvas alone.
func (t *BaseTool) CheckEditable() bool {
	if t.host == nil || t.canvas == nil {
		return false
	}
	if !t.IsMask() || !t.IsEditable() {
		t.SendStatus(fmt.Sprintf("Layer '%s' is not editable", t.host.LayerName(t.host.LayerIndex())))
		return false
	}
	return true
}

// PushUndoSnapshot records before/after copies of the active layer.
func (t *BaseTool) PushUndoSnapshot(before, after *image.RGBA, text string) {
	if t.host != nil {
		t.host.PushSnapshot(before, after, text)
	}
}

// Apply replaces the canvas with result as one undoable step.
func (t *BaseTool) Apply(result *image.RGBA, text string) {
	t.PushUndoSnapshot(t.canvas, result, text)
	t.canvas = result
	t.NotifyDirty()
}

// SendStatus shows msg in the status bar.
func (t *BaseTool) SendStatus(msg string) {
	if t.host != nil {
		t.host.Status(msg)
	}
}

// NotifyDirty tells the editor that the canvas changed.
func (t *BaseTool) NotifyDirty() {
	if t.host != nil {
		t.host.NotifyDirty()
	}
}

// Layer returns a copy of layer l of the loaded image.
func (t *BaseTool) Layer(l int) *image.RGBA {
	if t.host == nil {
		return nil
	}
	return t.host.Layer(l)
}

// StoredLayer returns a copy of layer l of image i.
func (t *BaseTool) StoredLayer(i, l int) (*image.RGBA, error) {
	if t.host == nil {
		return nil, fmt.Errorf("tool is not bound")
	}
	return t.host.StoredLayer(i, l)
}

// Snapshot returns a copy of the canvas.
func (t *BaseTool) Snapshot() *image.RGBA {
	return draw.Clone(t.canvas)
}
