package editor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"segmate/internal/draw"
	"segmate/internal/store"
	"segmate/pkg/colorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory DataSource.
type memStore struct {
	layers []store.LayerSpec
	frames [][]*image.RGBA
	dirty  map[int]bool
	saves  int

	saveErr error
}

func newMemStore(n, w, h int) *memStore {
	m := &memStore{
		layers: []store.LayerSpec{
			{Folder: "images", Color: colorutil.RGB{R: 255, G: 255, B: 255}},
			{Folder: "masks", Mask: true, Editable: true, Color: colorutil.RGB{R: 255}},
		},
		dirty: make(map[int]bool),
	}
	for i := 0; i < n; i++ {
		base := image.NewRGBA(image.Rect(0, 0, w, h))
		for k := range base.Pix {
			base.Pix[k] = uint8(i + 1)
		}
		m.frames = append(m.frames, []*image.RGBA{base, image.NewRGBA(image.Rect(0, 0, w, h))})
	}
	return m
}

func (m *memStore) Len() int { return len(m.frames) }
func (m *memStore) NumLayers() int { return len(m.layers) }
func (m *memStore) Layer(l int) store.LayerSpec { return m.layers[l] }
func (m *memStore) IsDirty(i int) bool { return m.dirty[i] }

func (m *memStore) Get(i int) ([]*image.RGBA, error) {
	if i < 0 || i >= len(m.frames) {
		return nil, fmt.Errorf("get %d: %w", i, store.ErrIndexOutOfRange)
	}
	return m.frames[i], nil
}

func (m *memStore) Set(i int, data []*image.RGBA) error {
	copied := make([]*image.RGBA, len(data))
	for l, img := range data {
		copied[l] = draw.Clone(img)
	}
	m.frames[i] = copied
	m.dirty[i] = true
	return nil
}

func (m *memStore) SaveToDisk() error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves += len(m.dirty)
	clear(m.dirty)
	return nil
}

var red = color.RGBA{R: 255, A: 255}

// dotTool paints one pixel per left click as an undoable "Dot".
type dotTool struct {
	BaseTool
	shown, hidden int
}

func (t *dotTool) OnShow() { t.shown++ }
func (t *dotTool) OnHide() { t.hidden++ }

func (t *dotTool) OnMousePressed(e MouseEvent) bool {
	if !e.Left() || !t.CheckEditable() {
		return false
	}
	before := t.Snapshot()
	t.Canvas().SetRGBA(e.Pos.X, e.Pos.Y, t.Color().RGBA())
	t.PushUndoSnapshot(before, t.Canvas(), "Dot")
	t.NotifyDirty()
	return true
}

// invertTool replaces the canvas on a key press.
type invertTool struct {
	BaseTool
}

func (t *invertTool) OnKeyPressed(e KeyEvent) bool {
	if !e.Is("i") || !t.CheckEditable() {
		return false
	}
	out := t.Snapshot()
	for i := range out.Pix {
		out.Pix[i] = 255 - out.Pix[i]
	}
	t.Apply(out, "Invert")
	return true
}

func testRegistry() *Registry {
	r := NewRegistry()
	r.Register(CursorTool, "Cursor", func() Tool { return &nopTool{} })
	r.Register("dot_tool", "Dot", func() Tool { return &dotTool{} })
	r.Register("invert_tool", "Invert", func() Tool { return &invertTool{} })
	return r
}

func newTestScene(t *testing.T, frames int) (*Scene, *memStore) {
	t.Helper()
	m := newMemStore(frames, 16, 12)
	s := NewScene(m, testRegistry())
	require.NoError(t, s.Load(0))
	require.NoError(t, s.SetActiveLayer(1))
	return s, m
}

func click(s *Scene, x, y int) {
	s.Layers().MousePressed(MouseEvent{Pos: image.Pt(x, y), Button: ButtonLeft, Buttons: ButtonLeft})
	s.Layers().MouseReleased(MouseEvent{Pos: image.Pt(x, y), Button: ButtonLeft})
}

func canvasPix(s *Scene) []uint8 {
	return append([]uint8(nil), s.Layers().Tool().Canvas().Pix...)
}

func TestUndoRedoUndoRestoresExactState(t *testing.T) {
	s, _ := newTestScene(t, 1)
	require.NoError(t, s.ChangeTool("dot_tool"))

	original := canvasPix(s)
	click(s, 1, 1)
	afterFirst := canvasPix(s)
	click(s, 2, 2)
	click(s, 3, 3)
	afterAll := canvasPix(s)

	require.True(t, s.Undo())
	require.True(t, s.Undo())
	assert.Equal(t, afterFirst, canvasPix(s))

	require.True(t, s.Redo())
	require.True(t, s.Undo())
	assert.Equal(t, afterFirst, canvasPix(s))

	require.True(t, s.Undo())
	assert.Equal(t, original, canvasPix(s))
	assert.False(t, s.Undo())

	for s.Redo() {
	}
	assert.Equal(t, afterAll, canvasPix(s))
}

func TestUndoStatusMessage(t *testing.T) {
	s, _ := newTestScene(t, 1)
	require.NoError(t, s.ChangeTool("dot_tool"))

	var msgs []string
	s.On(EventStatus, func(data interface{}) { msgs = append(msgs, data.(string)) })

	click(s, 1, 1)
	s.Undo()
	s.Redo()
	assert.Equal(t, []string{"Undo 'Dot'", "Redo 'Dot'"}, msgs)
}

func TestPushIsSilent(t *testing.T) {
	stack := NewUndoStack()
	calls := 0
	restore := func(*SnapshotCommand, *image.RGBA, string) { calls++ }
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))

	stack.Push(NewSnapshotCommand("Draw", 0, 0, img, img, restore))
	assert.Zero(t, calls)
	assert.Equal(t, "Draw", stack.UndoText())
	assert.Equal(t, "", stack.RedoText())
}

func TestPushTruncatesRedo(t *testing.T) {
	assert := assert.New(t)

	stack := NewUndoStack()
	var log []string
	push := func(name string) {
		stack.Push(&FuncCommand{
			Label:    name,
			UndoFunc: func() { log = append(log, "undo "+name) },
			RedoFunc: func() { log = append(log, "redo "+name) },
		})
	}
	push("a")
	push("b")
	push("c")
	stack.Undo()
	stack.Undo()
	push("d")

	assert.Equal(2, stack.Count())
	assert.Equal(2, stack.Index())
	assert.False(stack.CanRedo())
	assert.Equal("d", stack.UndoText())

	stack.Undo()
	stack.Undo()
	assert.False(stack.CanUndo())
	assert.Equal([]string{"undo c", "undo b", "undo d", "undo a"}, log)
}

func TestUndoLimit(t *testing.T) {
	stack := NewUndoStack()
	stack.SetLimit(2)
	var indices []int
	stack.OnIndexChanged(func(i int) { indices = append(indices, i) })

	for _, name := range []string{"a", "b", "c"} {
		stack.Push(&FuncCommand{Label: name})
	}
	assert.Equal(t, 2, stack.Count())
	assert.Equal(t, "c", stack.UndoText())
	stack.Undo()
	stack.Undo()
	assert.False(t, stack.CanUndo())
	assert.Equal(t, []int{1, 2, 2, 1, 0}, indices)

	stack.Clear()
	assert.Zero(t, stack.Count())
}

func TestLowerLimitDropsRedoFirst(t *testing.T) {
	assert := assert.New(t)

	stack := NewUndoStack()
	var log []string
	for _, name := range []string{"a", "b", "c", "d"} {
		stack.Push(&FuncCommand{
			Label:    name,
			UndoFunc: func() { log = append(log, "undo "+name) },
			RedoFunc: func() { log = append(log, "redo "+name) },
		})
	}
	stack.Undo()
	stack.Undo()

	stack.SetLimit(3)
	assert.Equal(3, stack.Count())
	assert.Equal(2, stack.Index())
	assert.Equal("b", stack.UndoText())
	assert.Equal("c", stack.RedoText())

	var indices []int
	stack.OnIndexChanged(func(i int) { indices = append(indices, i) })
	stack.SetLimit(1)
	assert.Equal(1, stack.Count())
	assert.Equal(1, stack.Index())
	assert.False(stack.CanRedo())
	assert.Equal("b", stack.UndoText())
	assert.Equal([]int{1}, indices)

	log = nil
	assert.True(stack.Undo())
	assert.True(stack.Redo())
	assert.False(stack.Redo())
	assert.Equal([]string{"undo b", "redo b"}, log)
}

func TestFailedSaveKeepsDirtyFlags(t *testing.T) {
	assert := assert.New(t)
	s, m := newTestScene(t, 1)
	m.saveErr = errors.New("disk full")
	require.NoError(t, s.ChangeTool("dot_tool"))

	saved := 0
	s.On(EventSaved, func(interface{}) { saved++ })
	click(s, 2, 2)

	assert.ErrorIs(s.SaveToDisk(), m.saveErr)
	assert.True(s.Layers().IsDirty(1))
	assert.True(m.IsDirty(0))
	assert.Zero(saved)

	m.saveErr = nil
	require.NoError(t, s.SaveToDisk())
	assert.False(s.Layers().AnyDirty())
	assert.Equal(1, saved)
}

func TestSelectionDegenerateNeverActive(t *testing.T) {
	for _, end := range []image.Point{{4, 20}, {20, 4}, {0, 0}, {-4, 10}, {10, -3}} {
		var s Selection
		s.Start(image.Pt(0, 0))
		s.Move(end)
		s.Release(end)
		assert.False(t, s.Active(), "end %v", end)
	}

	var s Selection
	s.Start(image.Pt(10, 10))
	s.Release(image.Pt(4, 4))
	require.True(t, s.Active())
	r := s.Rect()
	assert.Equal(t, 4, r.X)
	assert.Equal(t, 6, r.Width)
	assert.Greater(t, r.Width, MinSelectionGap)
	assert.Greater(t, r.Height, MinSelectionGap)
}

func TestSelectionMouseHandling(t *testing.T) {
	assert := assert.New(t)
	var s Selection

	assert.True(s.MousePressed(MouseEvent{Pos: image.Pt(1, 1), Button: ButtonLeft, Buttons: ButtonLeft}))
	assert.True(s.MouseMoved(MouseEvent{Pos: image.Pt(8, 9), Buttons: ButtonLeft}))
	assert.True(s.Selecting())
	assert.True(s.MouseReleased(MouseEvent{Pos: image.Pt(9, 9), Button: ButtonLeft}))
	assert.True(s.Active())

	assert.True(s.MousePressed(MouseEvent{Pos: image.Pt(3, 3), Button: ButtonRight, Buttons: ButtonRight}))
	assert.False(s.Active())
	assert.False(s.MouseMoved(MouseEvent{Pos: image.Pt(3, 3)}))
}

func TestSelectionStaleResets(t *testing.T) {
	var s Selection
	s.Start(image.Pt(2, 2))
	s.Release(image.Pt(30, 30))
	require.True(t, s.Active())

	_, ok := s.Region(image.Rect(0, 0, 20, 20))
	assert.False(t, ok)
	assert.False(t, s.Active())
}

func TestClipToSelection(t *testing.T) {
	var s Selection
	s.Start(image.Pt(2, 2))
	s.Release(image.Pt(8, 8))

	before := image.NewRGBA(image.Rect(0, 0, 10, 10))
	after := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := range after.Pix {
		after.Pix[i] = 255
	}

	out := ClipToSelection(&s, before, after)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(2, 2))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(7, 7))
	assert.Equal(t, color.RGBA{}, out.RGBAAt(8, 8))
	assert.Equal(t, color.RGBA{}, out.RGBAAt(0, 5))
}

func TestSelectionPaint(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 20, 20))
	var s Selection
	assert.Same(t, canvas, s.Paint(canvas))

	s.Start(image.Pt(2, 2))
	s.Release(image.Pt(12, 12))
	out := s.Paint(canvas)

	require.Equal(t, canvas.Bounds(), out.Bounds())
	assert.NotZero(t, out.RGBAAt(0, 0).A, "outside is shaded")
	assert.Zero(t, out.RGBAAt(6, 6).A, "inside is untouched")
	assert.Zero(t, canvas.RGBAAt(0, 0).A, "canvas itself is not modified")
}

func TestChangeToolSeedsWithPreviousResult(t *testing.T) {
	s, _ := newTestScene(t, 1)
	require.NoError(t, s.ChangeTool("dot_tool"))
	click(s, 5, 5)
	painted := canvasPix(s)

	require.NoError(t, s.ChangeTool("invert_tool"))
	assert.Equal(t, painted, canvasPix(s))
	assert.Equal(t, "invert_tool", s.Layers().ToolName())

	dot := s.Layers().tools["dot_tool"].(*dotTool)
	assert.Equal(t, 1, dot.hidden)
}

func TestChangeToolUnknown(t *testing.T) {
	s, _ := newTestScene(t, 1)
	require.NoError(t, s.ChangeTool("dot_tool"))
	before := s.Layers().Tool()

	err := s.ChangeTool("laser_tool")
	assert.True(t, errors.Is(err, ErrUnknownTool))
	assert.Same(t, before, s.Layers().Tool())
	assert.Equal(t, "dot_tool", s.Layers().ToolName())
}

func TestNonEditableLayerRejected(t *testing.T) {
	s, m := newTestScene(t, 1)
	require.NoError(t, s.SetActiveLayer(0))
	require.NoError(t, s.ChangeTool("dot_tool"))

	var msgs []string
	s.On(EventStatus, func(data interface{}) { msgs = append(msgs, data.(string)) })

	before := canvasPix(s)
	click(s, 1, 1)

	assert.Equal(t, before, canvasPix(s))
	assert.Zero(t, s.UndoStack().Count())
	assert.False(t, m.IsDirty(0))
	assert.Equal(t, []string{"Layer 'images' is not editable"}, msgs)
}

func TestEditMarksDirtyAndStores(t *testing.T) {
	assert := assert.New(t)
	s, m := newTestScene(t, 2)
	require.NoError(t, s.ChangeTool("dot_tool"))
	base := append([]uint8(nil), m.frames[0][0].Pix...)

	modified := 0
	s.On(EventImageModified, func(interface{}) { modified++ })
	click(s, 4, 4)

	assert.True(s.Layers().IsDirty(1))
	assert.False(s.Layers().IsDirty(0))
	assert.True(m.IsDirty(0))
	assert.Equal(1, modified)
	assert.Equal(red, m.frames[0][1].RGBAAt(4, 4))
	assert.Equal(base, m.frames[0][0].Pix)

	require.NoError(t, s.SaveToDisk())
	assert.False(s.Layers().AnyDirty())
	assert.Equal(1, m.saves)
}

func TestUndoAcrossImagesRestoresOwningFrame(t *testing.T) {
	assert := assert.New(t)
	s, m := newTestScene(t, 3)
	require.NoError(t, s.ChangeTool("dot_tool"))

	click(s, 2, 2)
	require.NoError(t, s.ShowImage(1))
	assert.Equal(1, s.LoadedIndex())
	assert.Equal(ChangeImageText, s.UndoStack().UndoText())

	// Undo the frame change, then the dot on frame 0.
	require.True(t, s.Undo())
	assert.Equal(0, s.LoadedIndex())
	assert.Equal(red, s.Layers().Tool().Canvas().RGBAAt(2, 2))
	require.True(t, s.Undo())
	assert.Equal(color.RGBA{}, s.Layers().Tool().Canvas().RGBAAt(2, 2))

	// Redo the dot while another frame is shown: it lands in the store.
	require.NoError(t, s.Load(2))
	require.True(t, s.Redo())
	assert.Equal(red, m.frames[0][1].RGBAAt(2, 2))
	assert.Equal(color.RGBA{}, s.Layers().Tool().Canvas().RGBAAt(2, 2))
}

func TestNextPreviousClamp(t *testing.T) {
	s, _ := newTestScene(t, 2)
	require.NoError(t, s.Previous())
	assert.Equal(t, 0, s.LoadedIndex())
	require.NoError(t, s.Next())
	require.NoError(t, s.Next())
	assert.Equal(t, 1, s.LoadedIndex())
	assert.Equal(t, 2, s.ImageCount())

	assert.Error(t, s.ShowImage(5))
	assert.Equal(t, 1, s.LoadedIndex())
}

func TestApplyReplacesCanvas(t *testing.T) {
	s, _ := newTestScene(t, 1)
	require.NoError(t, s.ChangeTool("invert_tool"))

	assert.True(t, s.Layers().KeyPressed(KeyEvent{Key: "I"}))
	assert.Equal(t, uint8(255), s.Layers().Tool().Canvas().Pix[0])
	assert.Equal(t, "Invert", s.UndoStack().UndoText())

	s.Undo()
	assert.Equal(t, uint8(0), s.Layers().Tool().Canvas().Pix[0])
}

func TestRenderUsesOpacityAndToolPaint(t *testing.T) {
	s, _ := newTestScene(t, 1)
	require.NoError(t, s.ChangeTool("dot_tool"))
	click(s, 0, 0)

	out := s.Render()
	require.NotNil(t, out)
	assert.Equal(t, red, out.RGBAAt(0, 0))
	assert.Equal(t, uint8(1), out.RGBAAt(1, 1).R)

	var changes []OpacityChange
	s.On(EventOpacityChanged, func(d interface{}) { changes = append(changes, d.(OpacityChange)) })
	s.SetOpacity(1, 2)
	s.SetOpacity(1, 0)
	assert.Equal(t, []OpacityChange{{Layer: 1, Value: 1}, {Layer: 1, Value: 0}}, changes)
	assert.Equal(t, uint8(1), s.Render().RGBAAt(0, 0).R)
}

func TestRegistry(t *testing.T) {
	r := testRegistry()
	assert.Equal(t, []string{CursorTool, "dot_tool", "invert_tool"}, r.Keys())
	assert.Equal(t, "Dot", r.Title("dot_tool"))
	assert.Equal(t, "nope", r.Title("nope"))

	_, err := r.New("nope")
	assert.True(t, errors.Is(err, ErrUnknownTool))
}

func TestMouseEventButtons(t *testing.T) {
	e := MouseEvent{Button: ButtonRight, Buttons: ButtonLeft, Modifiers: ModShift}
	assert.True(t, e.Left())
	assert.True(t, e.Right())
	assert.False(t, e.Middle())
	assert.True(t, e.Shift())
	assert.False(t, e.Ctrl())
}
