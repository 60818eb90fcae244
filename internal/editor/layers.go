package editor

import (
	"fmt"
	"image"
	"log"

	"segmate/internal/draw"
	imgpkg "segmate/internal/image"
	"segmate/internal/store"
	"segmate/pkg/colorutil"
)

// DataSource is the image store the editor reads frames from and writes
// edits back to. *store.Store implements it.
type DataSource interface {
	Len() int
	NumLayers() int
	Layer(l int) store.LayerSpec
	Get(i int) ([]*image.RGBA, error)
	Set(i int, data []*image.RGBA) error
	IsDirty(i int) bool
	SaveToDisk() error
}

// CursorTool is the key of the tool that edits nothing. It is the initial
// tool of every editor.
const CursorTool = "cursor_tool"

// Layers holds the layer buffers of the loaded image, the current tool and
// the per-layer display settings. The active layer's buffer is owned by the
// tool while it is current.
type Layers struct {
	data     DataSource
	registry *Registry
	undo     *UndoStack

	tools    map[string]Tool
	tool     Tool
	toolName string

	active   int
	imageIdx int
	buffers  []*image.RGBA
	dirty    []bool

	opacity []float64
	visible []bool
	modes   []imgpkg.BlendMode

	onModified func()
	onStatus   func(msg string)
}

type nopTool struct {
	BaseTool
}

// NewLayers creates the layer view over data. Nothing is loaded until Load.
func NewLayers(data DataSource, registry *Registry, undo *UndoStack) *Layers {
	n := data.NumLayers()
	l := &Layers{
		data:     data,
		registry: registry,
		undo:     undo,
		tools:    make(map[string]Tool),
		imageIdx: -1,
		dirty:    make([]bool, n),
		opacity:  make([]float64, n),
		visible:  make([]bool, n),
		modes:    make([]imgpkg.BlendMode, n),
	}
	for i := range l.opacity {
		l.opacity[i] = 1.0
		l.visible[i] = true
	}

	var t Tool = &nopTool{}
	if registry != nil && registry.Has(CursorTool) {
		if ct, err := registry.New(CursorTool); err == nil {
			t = ct
			l.tools[CursorTool] = ct
		}
	}
	t.Bind(l)
	l.tool = t
	l.toolName = CursorTool
	return l
}

// Load copies the layers of image i out of the store and gives the active
// one to the current tool.
func (l *Layers) Load(i int) error {
	stored, err := l.data.Get(i)
	if err != nil {
		return err
	}
	buffers := make([]*image.RGBA, len(stored))
	for k, img := range stored {
		buffers[k] = draw.Clone(img)
	}
	l.buffers = buffers
	l.imageIdx = i
	clear(l.dirty)
	l.tool.SetCanvas(l.buffers[l.active])
	return nil
}

// Loaded reports whether an image is loaded.
func (l *Layers) Loaded() bool {
	return l.buffers != nil
}

// Data returns the current layer buffers with the tool's result in the
// active slot.
func (l *Layers) Data() []*image.RGBA {
	if l.buffers == nil {
		return nil
	}
	if result := l.tool.OnFinalize(); result != nil {
		l.buffers[l.active] = result
	}
	return l.buffers
}

// SetActive makes layer idx the one tools edit.
func (l *Layers) SetActive(idx int) error {
	if idx < 0 || idx >= l.data.NumLayers() {
		return fmt.Errorf("layer %d out of range [0, %d)", idx, l.data.NumLayers())
	}
	if l.buffers != nil {
		l.buffers[l.active] = l.tool.Canvas()
	}
	l.active = idx
	if l.buffers != nil {
		l.tool.SetCanvas(l.buffers[idx])
	}
	return nil
}

// ChangeTool hides the current tool and activates the tool registered under
// name. The outgoing tool's result becomes the new tool's canvas.
func (l *Layers) ChangeTool(name string) error {
	if l.registry == nil || !l.registry.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	next, ok := l.tools[name]
	if !ok {
		t, err := l.registry.New(name)
		if err != nil {
			return err
		}
		next = t
		l.tools[name] = next
	}

	l.tool.OnHide()
	var result *image.RGBA
	if l.buffers != nil {
		result = l.tool.OnFinalize()
		if result == nil {
			result = l.buffers[l.active]
		}
		result = draw.Clone(result)
		l.buffers[l.active] = result
	}

	next.Bind(l)
	next.SetCanvas(result)
	l.tool = next
	l.toolName = name
	next.OnShow()
	return nil
}

// Tool returns the current tool.
func (l *Layers) Tool() Tool {
	return l.tool
}

// ToolName returns the key of the current tool.
func (l *Layers) ToolName() string {
	return l.toolName
}

// Panel returns the parameter panel of the current tool.
func (l *Layers) Panel() *Panel {
	return l.tool.Panel()
}

func (l *Layers) MousePressed(e MouseEvent) bool {
	return l.buffers != nil && l.tool.OnMousePressed(e)
}

func (l *Layers) MouseMoved(e MouseEvent) bool {
	return l.buffers != nil && l.tool.OnMouseMoved(e)
}

func (l *Layers) MouseReleased(e MouseEvent) bool {
	return l.buffers != nil && l.tool.OnMouseReleased(e)
}

func (l *Layers) TabletPressed(e MouseEvent) bool {
	return l.buffers != nil && l.tool.OnTabletPressed(e)
}

func (l *Layers) TabletMoved(e MouseEvent) bool {
	return l.buffers != nil && l.tool.OnTabletMoved(e)
}

func (l *Layers) TabletReleased(e MouseEvent) bool {
	return l.buffers != nil && l.tool.OnTabletReleased(e)
}

func (l *Layers) KeyPressed(e KeyEvent) bool {
	return l.buffers != nil && l.tool.OnKeyPressed(e)
}

func (l *Layers) KeyReleased(e KeyEvent) bool {
	return l.buffers != nil && l.tool.OnKeyReleased(e)
}

// Render composites all visible layers back to front at their opacities.
// The active layer shows what the tool paints.
func (l *Layers) Render() *image.RGBA {
	if len(l.buffers) == 0 {
		return nil
	}
	b := l.Bounds()
	c := imgpkg.NewComposite(b.Dx(), b.Dy())
	for i, buf := range l.buffers {
		img := buf
		if i == l.active {
			if p := l.tool.OnPaint(); p != nil {
				img = p
			} else if cv := l.tool.Canvas(); cv != nil {
				img = cv
			}
		}
		layer := imgpkg.NewLayer(l.LayerName(i))
		layer.Image = img
		layer.Opacity = l.opacity[i]
		layer.Visible = l.visible[i]
		layer.Mode = l.modes[i]
		c.AddLayer(layer)
	}
	return c.Render()
}

// SetOpacity sets the display opacity of a layer, clamped to [0, 1].
func (l *Layers) SetOpacity(idx int, v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	l.opacity[idx] = v
}

func (l *Layers) Opacity(idx int) float64 { return l.opacity[idx] }

func (l *Layers) SetVisible(idx int, v bool) { l.visible[idx] = v }
func (l *Layers) Visible(idx int) bool { return l.visible[idx] }

func (l *Layers) SetBlendMode(idx int, m imgpkg.BlendMode) { l.modes[idx] = m }
func (l *Layers) BlendMode(idx int) imgpkg.BlendMode { return l.modes[idx] }

// IsDirty reports whether layer idx changed since the image was loaded or
// saved.
func (l *Layers) IsDirty(idx int) bool {
	return l.dirty[idx]
}

// AnyDirty reports whether any layer changed.
func (l *Layers) AnyDirty() bool {
	for _, d := range l.dirty {
		if d {
			return true
		}
	}
	return false
}

// ClearDirty resets all layer dirty flags.
func (l *Layers) ClearDirty() {
	clear(l.dirty)
}

// Host implementation.

func (l *Layers) ImageIndex() int { return l.imageIdx }
func (l *Layers) LayerIndex() int { return l.active }
func (l *Layers) NumLayers() int { return l.data.NumLayers() }

func (l *Layers) LayerName(idx int) string { return l.data.Layer(idx).Folder }
func (l *Layers) Color(idx int) colorutil.RGB { return l.data.Layer(idx).Color }
func (l *Layers) IsMask(idx int) bool { return l.data.Layer(idx).Mask }
func (l *Layers) IsEditable(idx int) bool { return l.data.Layer(idx).Editable }

// Bounds returns the pixel bounds of the loaded image.
func (l *Layers) Bounds() image.Rectangle {
	if len(l.buffers) == 0 || l.buffers[0] == nil {
		return image.Rectangle{}
	}
	return l.buffers[0].Bounds()
}

// Layer returns a copy of layer idx of the loaded image.
func (l *Layers) Layer(idx int) *image.RGBA {
	if l.buffers == nil {
		return nil
	}
	if idx == l.active {
		return draw.Clone(l.tool.Canvas())
	}
	return draw.Clone(l.buffers[idx])
}

// StoredLayer returns a copy of layer idx of image i as held by the store.
func (l *Layers) StoredLayer(i, idx int) (*image.RGBA, error) {
	stored, err := l.data.Get(i)
	if err != nil {
		return nil, err
	}
	return draw.Clone(stored[idx]), nil
}

// PushSnapshot records an edit of the active layer of the loaded image.
func (l *Layers) PushSnapshot(before, after *image.RGBA, text string) {
	if l.undo == nil {
		return
	}
	l.undo.Push(NewSnapshotCommand(text, l.imageIdx, l.active, before, after, l.restoreSnapshot))
}

// restoreSnapshot puts buf back into the layer the command belongs to: the
// tool canvas, another buffer of the loaded image, or the store when the
// command was recorded on a different image.
func (l *Layers) restoreSnapshot(cmd *SnapshotCommand, buf *image.RGBA, verb string) {
	layer := cmd.LayerIndex()
	if cmd.ImageIndex() == l.imageIdx && l.buffers != nil {
		if layer == l.active {
			l.tool.SetCanvas(buf)
		} else {
			l.buffers[layer] = buf
		}
		l.dirty[layer] = true
		l.notifyModified()
	} else {
		stored, err := l.data.Get(cmd.ImageIndex())
		if err != nil {
			log.Printf("Editor: %s '%s': %v", verb, cmd.Text(), err)
			return
		}
		next := append([]*image.RGBA(nil), stored...)
		next[layer] = buf
		if err := l.data.Set(cmd.ImageIndex(), next); err != nil {
			log.Printf("Editor: %s '%s': %v", verb, cmd.Text(), err)
			return
		}
	}
	l.Status(fmt.Sprintf("%s '%s'", verb, cmd.Text()))
}

// Status forwards a status bar message.
func (l *Layers) Status(msg string) {
	if l.onStatus != nil {
		l.onStatus(msg)
	}
}

// NotifyDirty marks the active layer as changed.
func (l *Layers) NotifyDirty() {
	if l.buffers == nil {
		return
	}
	l.dirty[l.active] = true
	l.notifyModified()
}

func (l *Layers) notifyModified() {
	if l.onModified != nil {
		l.onModified()
	}
}
