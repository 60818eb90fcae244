// Package canvas provides the zoomable editor canvas. It shows the composite
// of the loaded image and forwards pointer events to the editor scene.
package canvas

import (
	"image"
	"image/color"

	"segmate/internal/editor"
	"segmate/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"
)

const (
	minZoom  = 0.1
	maxZoom  = 20.0
	zoomStep = 1.25
)

var background = color.RGBA{R: 0x35, G: 0x35, B: 0x35, A: 0xFF}

// PenSizer is implemented by tools that paint with a round pen. The canvas
// outlines the pen under the pointer.
type PenSizer interface {
	PenSize() int
}

// EditorCanvas displays a scene with pan, zoom and tool input.
type EditorCanvas struct {
	widget.BaseWidget

	scene *editor.Scene
	frame *image.RGBA // last composite of the scene

	// Display state
	raster *fynecanvas.Raster
	zoom   float64 // device pixels per image pixel
	scale  float64 // device pixels per canvas unit, 0 until shown

	// Pointer state
	buttons   editor.MouseButton
	modifiers editor.Modifier
	hover    image.Point
	hovering bool

	// Container
	scroll  *zoomScroll
	content *inputContent
	imgSize fyne.Size

	// Fit to window
	fitToWindow    bool
	lastScrollSize fyne.Size

	// Callbacks
	onZoomChange func(zoom float64)
	onEdited     func()
}

// zoomScroll is a widget that wraps a scroll container but intercepts wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *EditorCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *EditorCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	zs.canvas.wheel(ev)
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Size returns the scroll container's size.
func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

// Refresh refreshes the scroll container.
func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

// Resize sets the size of the scroll container.
func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// inputContent wraps the raster and turns fyne pointer events into editor
// mouse events.
type inputContent struct {
	widget.BaseWidget
	canvas *EditorCanvas
	raster *fynecanvas.Raster
}

var (
	_ desktop.Mouseable = (*inputContent)(nil)
	_ desktop.Hoverable = (*inputContent)(nil)
	_ fyne.Draggable    = (*inputContent)(nil)
	_ fyne.Scrollable   = (*inputContent)(nil)
)

func newInputContent(ic *EditorCanvas, raster *fynecanvas.Raster) *inputContent {
	c := &inputContent{canvas: ic, raster: raster}
	c.ExtendBaseWidget(c)
	return c
}

func (c *inputContent) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.raster)
}

func (c *inputContent) MinSize() fyne.Size {
	return c.raster.MinSize()
}

func (c *inputContent) MouseDown(ev *desktop.MouseEvent) {
	ic := c.canvas
	b := MouseButton(ev.Button)
	ic.buttons |= b
	ic.modifiers = Modifiers(ev.Modifier)
	ic.dispatch(func(l *editor.Layers, e editor.MouseEvent) bool {
		return l.MousePressed(e)
	}, ic.mouseEvent(ev.Position, b, ev.Modifier))
}

func (c *inputContent) MouseUp(ev *desktop.MouseEvent) {
	ic := c.canvas
	b := MouseButton(ev.Button)
	ic.buttons &^= b
	ic.modifiers = Modifiers(ev.Modifier)
	ic.dispatch(func(l *editor.Layers, e editor.MouseEvent) bool {
		return l.MouseReleased(e)
	}, ic.mouseEvent(ev.Position, b, ev.Modifier))
}

func (c *inputContent) MouseIn(ev *desktop.MouseEvent) {
	c.canvas.hovering = true
	c.MouseMoved(ev)
}

func (c *inputContent) MouseMoved(ev *desktop.MouseEvent) {
	ic := c.canvas
	ic.modifiers = Modifiers(ev.Modifier)
	ic.dispatch(func(l *editor.Layers, e editor.MouseEvent) bool {
		return l.MouseMoved(e)
	}, ic.mouseEvent(ev.Position, 0, ev.Modifier))
}

func (c *inputContent) MouseOut() {
	c.canvas.hovering = false
	c.canvas.raster.Refresh()
}

// Dragged is delivered instead of MouseMoved while a button is held. Drag
// events carry no modifiers, so the last ones seen are used.
func (c *inputContent) Dragged(ev *fyne.DragEvent) {
	ic := c.canvas
	ic.dispatch(func(l *editor.Layers, e editor.MouseEvent) bool {
		return l.MouseMoved(e)
	}, ic.dragEvent(ev.Position))
}

func (c *inputContent) DragEnd() {}

func (c *inputContent) Scrolled(ev *fyne.ScrollEvent) {
	c.canvas.wheel(ev)
}

// NewEditorCanvas creates an empty canvas.
func NewEditorCanvas() *EditorCanvas {
	ic := &EditorCanvas{
		zoom:    1.0,
		imgSize: fyne.NewSize(400, 300),
	}

	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels
	ic.raster.SetMinSize(ic.imgSize)

	ic.content = newInputContent(ic, ic.raster)
	ic.scroll = newZoomScroll(ic.content, ic)

	ic.ExtendBaseWidget(ic)
	return ic
}

// Container returns the canvas container for embedding in layouts.
func (ic *EditorCanvas) Container() fyne.CanvasObject {
	return ic.scroll
}

// SetScene shows s. A nil scene clears the canvas.
func (ic *EditorCanvas) SetScene(s *editor.Scene) {
	ic.scene = s
	ic.buttons = 0
	ic.Update()
}

// Scene returns the displayed scene.
func (ic *EditorCanvas) Scene() *editor.Scene {
	return ic.scene
}

// Update re-renders the scene composite.
func (ic *EditorCanvas) Update() {
	if ic.scene == nil {
		ic.frame = nil
	} else {
		ic.frame = ic.scene.Render()
	}
	ic.updateContentSize()
}

// OnZoomChange sets a callback for zoom changes.
func (ic *EditorCanvas) OnZoomChange(callback func(zoom float64)) {
	ic.onZoomChange = callback
}

// OnEdited sets a callback invoked after the current tool handled an event.
func (ic *EditorCanvas) OnEdited(callback func()) {
	ic.onEdited = callback
}

// KeyPressed forwards a key press to the current tool.
func (ic *EditorCanvas) KeyPressed(e editor.KeyEvent) bool {
	ic.modifiers = e.Modifiers
	if ic.scene == nil || !ic.scene.Layers().KeyPressed(e) {
		return false
	}
	ic.edited()
	return true
}

// KeyReleased forwards a key release to the current tool.
func (ic *EditorCanvas) KeyReleased(e editor.KeyEvent) bool {
	ic.modifiers = e.Modifiers
	if ic.scene == nil || !ic.scene.Layers().KeyReleased(e) {
		return false
	}
	ic.edited()
	return true
}

func (ic *EditorCanvas) dispatch(fn func(l *editor.Layers, e editor.MouseEvent) bool, e editor.MouseEvent) {
	ic.hover = e.Pos
	if ic.scene == nil {
		return
	}
	if fn(ic.scene.Layers(), e) {
		ic.edited()
		return
	}
	if ic.penSize() > 0 {
		ic.raster.Refresh()
	}
}

func (ic *EditorCanvas) edited() {
	ic.Update()
	if ic.onEdited != nil {
		ic.onEdited()
	}
}

func (ic *EditorCanvas) mouseEvent(pos fyne.Position, b editor.MouseButton, m fyne.KeyModifier) editor.MouseEvent {
	return editor.MouseEvent{
		Pos:       ToImage(pos, ic.zoom, ic.pixelScale()),
		Button:    b,
		Buttons:   ic.buttons,
		Modifiers: Modifiers(m),
	}
}

func (ic *EditorCanvas) dragEvent(pos fyne.Position) editor.MouseEvent {
	return editor.MouseEvent{
		Pos:       ToImage(pos, ic.zoom, ic.pixelScale()),
		Buttons:   ic.buttons,
		Modifiers: ic.modifiers,
	}
}

func (ic *EditorCanvas) pixelScale() float64 {
	if ic.scale <= 0 {
		return 1
	}
	return ic.scale
}

// refreshScale picks up the pixel scale of the window showing the canvas.
// It changes when the window moves to another monitor.
func (ic *EditorCanvas) refreshScale() {
	a := fyne.CurrentApp()
	if a == nil || len(a.Driver().AllWindows()) == 0 {
		return
	}
	c := a.Driver().CanvasForObject(ic)
	if c == nil || c.Scale() <= 0 || float64(c.Scale()) == ic.scale {
		return
	}
	ic.scale = float64(c.Scale())
	ic.updateContentSize()
}

func (ic *EditorCanvas) wheel(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		ic.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		ic.ZoomOut()
	}
}

func (ic *EditorCanvas) penSize() int {
	if ic.scene == nil {
		return 0
	}
	if p, ok := ic.scene.Layers().Tool().(PenSizer); ok {
		return p.PenSize()
	}
	return 0
}

// MouseButton maps a fyne button to the editor's.
func MouseButton(b desktop.MouseButton) editor.MouseButton {
	switch b {
	case desktop.MouseButtonPrimary:
		return editor.ButtonLeft
	case desktop.MouseButtonSecondary:
		return editor.ButtonRight
	case desktop.MouseButtonTertiary:
		return editor.ButtonMiddle
	}
	return 0
}

// Modifiers maps fyne key modifiers to the editor's.
func Modifiers(m fyne.KeyModifier) editor.Modifier {
	var out editor.Modifier
	if m&fyne.KeyModifierShift != 0 {
		out |= editor.ModShift
	}
	if m&fyne.KeyModifierControl != 0 || m&fyne.KeyModifierSuper != 0 {
		out |= editor.ModCtrl
	}
	if m&fyne.KeyModifierAlt != 0 {
		out |= editor.ModAlt
	}
	return out
}

// ToImage converts a canvas position to image pixel coordinates. scale is
// device pixels per canvas unit, zoom device pixels per image pixel.
func ToImage(pos fyne.Position, zoom, scale float64) image.Point {
	p := geometry.NewPoint2D(float64(pos.X), float64(pos.Y))
	return p.Scale(scale / zoom).Floor().ImagePoint()
}

// SetZoom sets the zoom level.
func (ic *EditorCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	ic.zoom = zoom
	ic.updateContentSize()

	if ic.onZoomChange != nil {
		ic.onZoomChange(zoom)
	}
}

// GetZoom returns the current zoom level.
func (ic *EditorCanvas) GetZoom() float64 {
	return ic.zoom
}

// ZoomIn increases the zoom level.
func (ic *EditorCanvas) ZoomIn() {
	ic.SetZoom(ic.zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (ic *EditorCanvas) ZoomOut() {
	ic.SetZoom(ic.zoom / zoomStep)
}

// FitToWindow adjusts zoom to fit the image in the visible area.
func (ic *EditorCanvas) FitToWindow() {
	if ic.frame == nil {
		return
	}
	bounds := ic.frame.Bounds()
	viewSize := ic.scroll.Size()
	if bounds.Empty() || viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}

	scale := ic.pixelScale()
	zoomX := float64(viewSize.Width) * scale / float64(bounds.Dx())
	zoomY := float64(viewSize.Height) * scale / float64(bounds.Dy())
	ic.SetZoom(min(zoomX, zoomY) * 0.95) // Leave a small margin
}

// SetFitToWindow enables or disables auto-fit on resize.
func (ic *EditorCanvas) SetFitToWindow(fit bool) {
	ic.fitToWindow = fit
	if fit {
		ic.FitToWindow()
	}
}

// GetFitToWindow returns whether auto-fit is enabled.
func (ic *EditorCanvas) GetFitToWindow() bool {
	return ic.fitToWindow
}

// CheckResize checks if scroll container was resized and auto-fits if enabled.
func (ic *EditorCanvas) CheckResize(size fyne.Size) {
	if !ic.fitToWindow {
		return
	}
	if size.Width > 0 && size.Height > 0 && size != ic.lastScrollSize {
		ic.lastScrollSize = size
		ic.FitToWindow()
	}
}

// Refresh refreshes the canvas display.
func (ic *EditorCanvas) Refresh() {
	ic.raster.Refresh()
}

// updateContentSize updates the content size based on image and zoom.
func (ic *EditorCanvas) updateContentSize() {
	if ic.frame == nil || ic.frame.Bounds().Empty() {
		ic.imgSize = fyne.NewSize(400, 300)
	} else {
		b := ic.frame.Bounds()
		f := ic.zoom / ic.pixelScale()
		ic.imgSize = fyne.NewSize(float32(float64(b.Dx())*f), float32(float64(b.Dy())*f))
	}

	ic.raster.SetMinSize(ic.imgSize)
	ic.raster.Resize(ic.imgSize)
	if ic.content != nil {
		ic.content.Resize(ic.imgSize)
		ic.content.Refresh()
	}
	ic.raster.Refresh()
	if ic.scroll != nil {
		ic.scroll.Refresh()
	}
}

// draw is the raster drawing function.
func (ic *EditorCanvas) draw(w, h int) image.Image {
	output := Render(ic.frame, w, h, ic.zoom)
	if ic.hovering {
		if r := ic.penSize(); r > 0 {
			drawPenOutline(output, ic.hover, r, ic.zoom)
		}
	}
	return output
}

// Render scales frame by zoom onto a w x h background, nearest neighbor so
// single mask pixels stay crisp.
func Render(frame *image.RGBA, w, h int, zoom float64) *image.RGBA {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(output, output.Bounds(), image.NewUniform(background), image.Point{}, xdraw.Src)
	if frame == nil {
		return output
	}
	b := frame.Bounds()
	dst := image.Rect(0, 0, int(float64(b.Dx())*zoom), int(float64(b.Dy())*zoom))
	xdraw.NearestNeighbor.Scale(output, dst, frame, b, xdraw.Over, nil)
	return output
}

// CreateRenderer implements fyne.Widget.
func (ic *EditorCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &editorCanvasRenderer{canvas: ic}
}

type editorCanvasRenderer struct {
	canvas *EditorCanvas
}

func (r *editorCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.scroll.Resize(size)
	r.canvas.refreshScale()
	r.canvas.CheckResize(size)
}

func (r *editorCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *editorCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *editorCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

func (r *editorCanvasRenderer) Destroy() {}
