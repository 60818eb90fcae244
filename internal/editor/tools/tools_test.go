package tools

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"segmate/internal/draw"
	"segmate/internal/editor"
	"segmate/internal/mask"
	"segmate/internal/store"
	"segmate/pkg/colorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const size = 20

// frames is an in-memory editor.DataSource with an image layer and two masks.
type frames struct {
	specs  []store.LayerSpec
	images [][]*image.RGBA
	dirty  map[int]bool
}

func newFrames(n int) *frames {
	f := &frames{
		specs: []store.LayerSpec{
			{Folder: "images"},
			{Folder: "cells", Mask: true, Editable: true, Color: colorutil.RGB{R: 255}},
			{Folder: "nuclei", Mask: true, Editable: true, Color: colorutil.RGB{G: 255}},
		},
		dirty: make(map[int]bool),
	}
	r := image.Rect(0, 0, size, size)
	for i := 0; i < n; i++ {
		base := image.NewRGBA(r)
		fillRect(base, r, color.RGBA{R: 40, G: 40, B: 40, A: 255})
		f.images = append(f.images, []*image.RGBA{base, image.NewRGBA(r), image.NewRGBA(r)})
	}
	return f
}

func (f *frames) Len() int { return len(f.images) }
func (f *frames) NumLayers() int { return len(f.specs) }
func (f *frames) Layer(l int) store.LayerSpec { return f.specs[l] }
func (f *frames) IsDirty(i int) bool { return f.dirty[i] }
func (f *frames) SaveToDisk() error { clear(f.dirty); return nil }

func (f *frames) Get(i int) ([]*image.RGBA, error) {
	if i < 0 || i >= len(f.images) {
		return nil, fmt.Errorf("get %d: %w", i, store.ErrIndexOutOfRange)
	}
	return f.images[i], nil
}

func (f *frames) Set(i int, data []*image.RGBA) error {
	copied := make([]*image.RGBA, len(data))
	for l, img := range data {
		copied[l] = draw.Clone(img)
	}
	f.images[i] = copied
	f.dirty[i] = true
	return nil
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
)

func newScene(t *testing.T, f *frames, tool string) *editor.Scene {
	t.Helper()
	reg := editor.NewRegistry()
	Register(reg)
	reg.Register("threshold", "Threshold", NewThreshold)

	s := editor.NewScene(f, reg)
	require.NoError(t, s.Load(0))
	require.NoError(t, s.SetActiveLayer(1))
	require.NoError(t, s.ChangeTool(tool))
	return s
}

func press(x, y int) editor.MouseEvent {
	return editor.MouseEvent{Pos: image.Pt(x, y), Button: editor.ButtonLeft, Buttons: editor.ButtonLeft}
}

func move(x, y int) editor.MouseEvent {
	return editor.MouseEvent{Pos: image.Pt(x, y), Buttons: editor.ButtonLeft}
}

func release(x, y int) editor.MouseEvent {
	return editor.MouseEvent{Pos: image.Pt(x, y), Button: editor.ButtonLeft}
}

func active(s *editor.Scene) *image.RGBA {
	return s.Layers().Data()[s.ActiveLayer()]
}

func count(img *image.RGBA) int {
	return mask.Count(mask.Binary(img))
}

func selectRect(s *editor.Scene, x0, y0, x1, y1 int) {
	l := s.Layers()
	l.MousePressed(press(x0, y0))
	l.MouseMoved(move(x1, y1))
	l.MouseReleased(release(x1, y1))
}

func runAction(t *testing.T, s *editor.Scene, label string) {
	t.Helper()
	p := s.Layers().Panel()
	require.NotNil(t, p)
	a := p.Action(label)
	require.NotNil(t, a, "action %q", label)
	a.Run()
}

// drawSquare outlines the square with corners (4,4) and (12,12) using a
// 1 pixel brush: 32 pixels.
func drawSquare(t *testing.T, s *editor.Scene) {
	t.Helper()
	s.Layers().Panel().Slider("Brush Size").OnChange(1)
	l := s.Layers()
	l.MousePressed(press(4, 4))
	l.MouseMoved(move(12, 4))
	l.MouseMoved(move(12, 12))
	l.MouseMoved(move(4, 12))
	l.MouseReleased(release(4, 4))
}

func TestDrawGestureIsOneUndoStep(t *testing.T) {
	assert := assert.New(t)

	s := newScene(t, newFrames(1), DrawKey)
	drawSquare(t, s)

	assert.Equal(32, count(active(s)))
	assert.Equal(red, active(s).RGBAAt(8, 4))
	assert.Equal(1, s.UndoStack().Count())
	assert.Equal("Draw", s.UndoStack().UndoText())

	require.True(t, s.Undo())
	assert.Equal(0, count(active(s)))
	require.True(t, s.Redo())
	assert.Equal(32, count(active(s)))
}

func TestDrawEraseWithSecondaryButton(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(1)
	fillRect(f.images[0][1], image.Rect(0, 0, size, size), red)
	s := newScene(t, f, DrawKey)

	l := s.Layers()
	l.MousePressed(editor.MouseEvent{Pos: image.Pt(10, 10), Button: editor.ButtonRight, Buttons: editor.ButtonRight})
	l.MouseReleased(editor.MouseEvent{Pos: image.Pt(10, 10), Button: editor.ButtonRight})

	assert.Less(count(active(s)), size*size)
	assert.Equal(color.RGBA{}, active(s).RGBAAt(10, 10))
	assert.Equal(1, s.UndoStack().Count())
}

func TestDrawRejectsImageLayer(t *testing.T) {
	assert := assert.New(t)

	s := newScene(t, newFrames(1), DrawKey)
	require.NoError(t, s.SetActiveLayer(0))

	var status []string
	s.On(editor.EventStatus, func(d interface{}) { status = append(status, d.(string)) })

	before := draw.Clone(active(s))
	s.Layers().MousePressed(press(3, 3))
	s.Layers().MouseReleased(release(3, 3))

	assert.Equal(before.Pix, active(s).Pix)
	assert.Equal(0, s.UndoStack().Count())
	assert.Contains(status, "Layer 'images' is not editable")
}

func TestDrawSliders(t *testing.T) {
	assert := assert.New(t)

	tool := NewDraw().(*Draw)
	p := tool.Panel()
	require.NotNil(t, p)

	brush := p.Slider("Brush Size")
	eraser := p.Slider("Eraser Size")
	require.NotNil(t, brush)
	require.NotNil(t, eraser)
	assert.Equal(DefaultBrushSize, brush.Value)
	assert.Equal(DefaultEraserSize, eraser.Value)
	assert.Equal(1, brush.Min)
	assert.Equal(MaxPenSize, eraser.Max)

	eraser.OnChange(12)
	assert.Equal(12, tool.EraserSize)
}

func TestBucketFill(t *testing.T) {
	assert := assert.New(t)

	s := newScene(t, newFrames(1), DrawKey)
	drawSquare(t, s)
	require.NoError(t, s.ChangeTool(BucketFillKey))

	l := s.Layers()
	l.MousePressed(press(8, 8))
	assert.Equal(81, count(active(s)))
	assert.Equal("Bucket Fill", s.UndoStack().UndoText())
	assert.Equal(2, s.UndoStack().Count())

	// Filling the same region again changes nothing and records nothing.
	l.MousePressed(press(8, 8))
	assert.Equal(81, count(active(s)))
	assert.Equal(2, s.UndoStack().Count())

	l.MousePressed(editor.MouseEvent{Pos: image.Pt(4, 4), Button: editor.ButtonRight, Buttons: editor.ButtonRight})
	assert.Equal(0, count(active(s)))

	require.True(t, s.Undo())
	assert.Equal(81, count(active(s)))
}

func TestDrawThenFillHolesKeepsStrokes(t *testing.T) {
	assert := assert.New(t)

	s := newScene(t, newFrames(1), DrawKey)
	drawSquare(t, s)

	require.NoError(t, s.ChangeTool(MorphologyKey))
	assert.Equal(32, count(s.Layers().Tool().Canvas()))

	runAction(t, s, "Fill Holes")
	assert.Equal(81, count(active(s)))
	assert.Equal("Fill Holes", s.UndoStack().UndoText())

	require.NoError(t, s.ChangeTool(FillHolesKey))
	runAction(t, s, "Fill holes in layer")
	assert.Equal(81, count(active(s)))
}

func TestDilateErode(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(1)
	f.images[0][1].SetRGBA(10, 10, red)
	s := newScene(t, f, MorphologyKey)

	runAction(t, s, "Dilate")
	assert.Equal(5, count(active(s)))
	assert.Equal(red, active(s).RGBAAt(10, 9))
	assert.Equal(color.RGBA{}, active(s).RGBAAt(9, 9))

	runAction(t, s, "Erode")
	assert.Equal(1, count(active(s)))

	runAction(t, s, "Erode")
	assert.Equal(0, count(active(s)))
	assert.Equal(3, s.UndoStack().Count())
}

func TestSkeletonize(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(1)
	fillRect(f.images[0][1], image.Rect(2, 8, 18, 13), red)
	s := newScene(t, f, MorphologyKey)

	runAction(t, s, "Skeletonize")
	n := count(active(s))
	assert.Greater(n, 0)
	assert.Less(n, 16*5)
	assert.Equal("Skeletonize", s.UndoStack().UndoText())
}

func TestWatershed(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(1)
	fillRect(f.images[0][0], image.Rect(6, 6, 14, 14), color.RGBA{R: 220, G: 220, B: 220, A: 255})
	f.images[0][1].SetRGBA(10, 10, red)
	s := newScene(t, f, MorphologyKey)

	runAction(t, s, "Watershed")
	out := active(s)
	assert.Equal(red, out.RGBAAt(10, 10))
	assert.Equal(color.RGBA{}, out.RGBAAt(0, 0))
	assert.Equal("Watershed", s.UndoStack().UndoText())
}

func TestMorphologyRespectsSelection(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(1)
	f.images[0][1].SetRGBA(3, 3, red)
	f.images[0][1].SetRGBA(10, 10, red)
	s := newScene(t, f, MorphologyKey)

	selectRect(s, 6, 6, 16, 16)
	runAction(t, s, "Dilate")

	out := active(s)
	assert.Equal(6, count(out))
	assert.Equal(red, out.RGBAAt(3, 3))
	assert.Equal(color.RGBA{}, out.RGBAAt(3, 4))
	assert.Equal(red, out.RGBAAt(11, 10))
}

func TestMorphologyPaintsSelection(t *testing.T) {
	assert := assert.New(t)

	s := newScene(t, newFrames(1), MorphologyKey)
	selectRect(s, 5, 5, 15, 15)

	painted := s.Layers().Tool().OnPaint()
	require.NotNil(t, painted)
	assert.NotEqual(uint8(0), painted.RGBAAt(0, 0).A)
	assert.Equal(0, count(s.Layers().Tool().OnFinalize()))

	// Hiding the tool drops the selection.
	require.NoError(t, s.ChangeTool(CursorKey))
	require.NoError(t, s.ChangeTool(MorphologyKey))
	assert.False(s.Layers().Tool().(*Morphology).Selection().Active())
}

func TestMorphologyRejectsReadOnlyMask(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(1)
	f.specs[2].Editable = false
	s := newScene(t, f, MorphologyKey)
	require.NoError(t, s.SetActiveLayer(2))

	assert.Nil(s.Layers().Panel())
	s.Layers().Tool().(*Morphology).Dilate()
	assert.Equal(0, s.UndoStack().Count())
}

func TestMasksClearWithSelection(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(1)
	fillRect(f.images[0][1], image.Rect(0, 0, size, size), red)
	s := newScene(t, f, MasksKey)

	selectRect(s, 5, 5, 15, 15)
	runAction(t, s, "Clear Mask")
	assert.Equal(size*size-100, count(active(s)))

	s.Layers().MousePressed(editor.MouseEvent{Pos: image.Pt(1, 1), Button: editor.ButtonRight, Buttons: editor.ButtonRight})
	runAction(t, s, "Clear Mask")
	assert.Equal(0, count(active(s)))
	assert.Equal("Clear Mask", s.UndoStack().UndoText())
}

func TestMasksMerge(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(1)
	f.images[0][1].SetRGBA(10, 10, red)
	fillRect(f.images[0][2], image.Rect(0, 0, 5, 5), green)
	s := newScene(t, f, MasksKey)

	runAction(t, s, "Merge Masks")
	out := active(s)
	assert.Equal(26, count(out))
	assert.Equal(red, out.RGBAAt(2, 2))
	assert.Equal("Merge Mask", s.UndoStack().UndoText())

	// The other layer is left alone.
	assert.Equal(green, s.Layers().Data()[2].RGBAAt(2, 2))
}

func TestMasksMergeWithSelection(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(1)
	f.images[0][1].SetRGBA(10, 10, red)
	fillRect(f.images[0][2], image.Rect(0, 0, 10, 10), green)
	s := newScene(t, f, MasksKey)

	selectRect(s, 5, 5, 15, 15)
	runAction(t, s, "Merge Masks")
	assert.Equal(26, count(active(s)))
}

func TestMasksClearAndMerge(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(1)
	fillRect(f.images[0][1], image.Rect(10, 10, 20, 20), red)
	fillRect(f.images[0][2], image.Rect(0, 0, 5, 5), green)
	s := newScene(t, f, MasksKey)

	runAction(t, s, "Clear & Merge Masks")
	assert.Equal(25, count(active(s)))
	assert.Equal(1, s.UndoStack().Count())
	assert.Equal("Clear & Merge", s.UndoStack().UndoText())
}

func TestCopyPreviousMask(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(2)
	fillRect(f.images[0][1], image.Rect(0, 0, 4, 4), red)
	f.images[1][1].SetRGBA(15, 15, red)
	s := newScene(t, f, MasksKey)
	require.NoError(t, s.ShowImage(1))

	runAction(t, s, "Copy Previous Mask")
	assert.Equal(16, count(active(s)))
	assert.Equal(color.RGBA{}, active(s).RGBAAt(15, 15))
	assert.Equal("Copy Mask", s.UndoStack().UndoText())

	require.True(t, s.Undo())
	assert.Equal(1, count(active(s)))

	selectRect(s, 0, 0, 6, 6)
	runAction(t, s, "Copy Previous Mask")
	assert.Equal(17, count(active(s)))
}

func TestCopyMaskToolOnFirstFrame(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(2)
	fillRect(f.images[0][1], image.Rect(0, 0, 4, 4), red)
	s := newScene(t, f, CopyMaskKey)

	runAction(t, s, "Copy layer from previous frame")
	assert.Equal(16, count(active(s)))

	require.NoError(t, s.ShowImage(1))
	runAction(t, s, "Copy layer from previous frame")
	assert.Equal(16, count(active(s)))
	assert.Equal(red, active(s).RGBAAt(3, 3))
}

func TestContourIsDisplayOnly(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(1)
	fillRect(f.images[0][1], image.Rect(4, 4, 13, 13), red)
	s := newScene(t, f, ContourKey)

	tool := s.Layers().Tool()
	assert.Equal(32, count(tool.OnPaint()))
	assert.Equal(red, tool.OnPaint().RGBAAt(4, 8))
	assert.Equal(color.RGBA{}, tool.OnPaint().RGBAAt(8, 8))
	assert.Equal(81, count(tool.OnFinalize()))

	require.NoError(t, s.ChangeTool(CursorKey))
	assert.Equal(81, count(active(s)))
	assert.Equal(0, s.UndoStack().Count())
}

func TestThreshold(t *testing.T) {
	assert := assert.New(t)

	f := newFrames(1)
	fillRect(f.images[0][0], image.Rect(size/2, 0, size, size), color.RGBA{R: 200, G: 200, B: 200, A: 255})
	s := newScene(t, f, "threshold")

	runAction(t, s, "Threshold")
	out := active(s)
	assert.Equal(size*size/2, count(out))
	assert.Equal(red, out.RGBAAt(size-1, 0))
	assert.Equal(color.RGBA{}, out.RGBAAt(0, 0))
	assert.Equal("Threshold", s.UndoStack().UndoText())
}

func TestRegisterBuiltins(t *testing.T) {
	assert := assert.New(t)

	reg := editor.NewRegistry()
	Register(reg)

	for _, key := range []string{CursorKey, DrawKey, BucketFillKey, ContourKey, MorphologyKey, MasksKey, CopyMaskKey, FillHolesKey} {
		assert.True(reg.Has(key), key)
		tool, err := reg.New(key)
		assert.NoError(err)
		assert.NotNil(tool)
	}
	assert.Equal("Bucket Fill", reg.Title(BucketFillKey))
}
