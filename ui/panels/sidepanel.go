// Package panels provides UI panels for the application.
package panels

import (
	"fmt"
	"log"
	"path/filepath"

	"segmate/internal/app"
	"segmate/internal/editor"
	imgpkg "segmate/internal/image"
	"segmate/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	canvas    *canvas.EditorCanvas
	container *container.AppTabs

	// Tab content
	imagePanel  *ImagePanel
	layersPanel *LayersPanel
	toolPanel   *ToolPanel
	statsPanel  *StatsPanel
}

// NewSidePanel creates a new side panel.
func NewSidePanel(state *app.State, cvs *canvas.EditorCanvas) *SidePanel {
	sp := &SidePanel{
		state:  state,
		canvas: cvs,
	}

	sp.imagePanel = NewImagePanel(state, cvs)
	sp.layersPanel = NewLayersPanel(state, cvs)
	sp.toolPanel = NewToolPanel()
	sp.statsPanel = NewStatsPanel(state)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Image", sp.imagePanel.Container()),
		container.NewTabItem("Layers", sp.layersPanel.Container()),
		container.NewTabItem("Tool", sp.toolPanel.Container()),
		container.NewTabItem("Stats", sp.statsPanel.Container()),
	)

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SyncScene rebuilds every tab for the current scene.
func (sp *SidePanel) SyncScene() {
	sp.imagePanel.Sync()
	sp.layersPanel.Sync()
	sp.SyncTool()
	sp.statsPanel.Sync()
}

// SyncTool shows the parameter panel of the current tool.
func (sp *SidePanel) SyncTool() {
	if sp.state.Scene == nil {
		sp.toolPanel.SetPanel(nil)
		return
	}
	sp.toolPanel.SetPanel(sp.state.Scene.Layers().Panel())
}

// SyncImage updates the image navigation and statistics.
func (sp *SidePanel) SyncImage() {
	sp.imagePanel.Sync()
	sp.statsPanel.Sync()
}

// ShowToolTab brings the tool tab to the front.
func (sp *SidePanel) ShowToolTab() {
	sp.container.SelectIndex(2)
}

// ImagePanel navigates the images of the project.
type ImagePanel struct {
	state     *app.State
	canvas    *canvas.EditorCanvas
	container fyne.CanvasObject

	slider   *widget.Slider
	index    *widget.Label
	fileName *widget.Label
	syncing  bool
}

// NewImagePanel creates a new image navigation panel.
func NewImagePanel(state *app.State, cvs *canvas.EditorCanvas) *ImagePanel {
	ip := &ImagePanel{
		state:    state,
		canvas:   cvs,
		index:    widget.NewLabel("No project"),
		fileName: widget.NewLabel(""),
	}
	ip.fileName.Wrapping = fyne.TextWrapBreak

	ip.slider = widget.NewSlider(0, 1)
	ip.slider.Step = 1
	ip.slider.OnChanged = func(v float64) {
		if ip.syncing || state.Scene == nil {
			return
		}
		ip.show(int(v))
	}

	prev := widget.NewButton("Previous", func() { ip.step(-1) })
	next := widget.NewButton("Next", func() { ip.step(1) })

	ip.container = container.NewVBox(
		widget.NewCard("Image", "", container.NewVBox(
			ip.index,
			ip.slider,
			container.NewGridWithColumns(2, prev, next),
			ip.fileName,
		)),
	)
	return ip
}

// Container returns the panel container.
func (ip *ImagePanel) Container() fyne.CanvasObject {
	return ip.container
}

func (ip *ImagePanel) show(i int) {
	if err := ip.state.Scene.ShowImage(i); err != nil {
		log.Printf("Panels: %v", err)
	}
	ip.canvas.Update()
	ip.Sync()
}

func (ip *ImagePanel) step(delta int) {
	scene := ip.state.Scene
	if scene == nil {
		return
	}
	var err error
	if delta < 0 {
		err = scene.Previous()
	} else {
		err = scene.Next()
	}
	if err != nil {
		log.Printf("Panels: %v", err)
	}
	ip.canvas.Update()
	ip.Sync()
}

// Sync updates the widgets from the scene.
func (ip *ImagePanel) Sync() {
	ip.syncing = true
	defer func() { ip.syncing = false }()

	scene := ip.state.Scene
	if scene == nil || scene.ImageCount() == 0 {
		ip.index.SetText("No images")
		ip.fileName.SetText("")
		ip.slider.Max = 1
		ip.slider.SetValue(0)
		return
	}
	n := scene.ImageCount()
	i := scene.LoadedIndex()
	ip.slider.Max = float64(max(n-1, 1))
	ip.slider.SetValue(float64(i))
	ip.index.SetText(fmt.Sprintf("Image %d of %d", i+1, n))
	if st := ip.state.Store; st != nil && i >= 0 {
		ip.fileName.SetText(filepath.Base(st.Path(i, 0)))
	}
}

// LayersPanel lists the layers of the project with the active layer,
// visibility, opacity and blend mode of each.
type LayersPanel struct {
	state     *app.State
	canvas    *canvas.EditorCanvas
	container *fyne.Container
	active    *widget.RadioGroup
	rows      *fyne.Container
	syncing   bool
}

// NewLayersPanel creates a new layers panel.
func NewLayersPanel(state *app.State, cvs *canvas.EditorCanvas) *LayersPanel {
	lp := &LayersPanel{
		state:  state,
		canvas: cvs,
		rows:   container.NewVBox(),
	}
	lp.active = widget.NewRadioGroup(nil, lp.onActive)
	lp.container = container.NewVBox(
		widget.NewCard("Active Layer", "", lp.active),
		lp.rows,
	)
	return lp
}

// Container returns the panel container.
func (lp *LayersPanel) Container() fyne.CanvasObject {
	return lp.container
}

func (lp *LayersPanel) onActive(name string) {
	scene := lp.state.Scene
	if lp.syncing || scene == nil {
		return
	}
	for i := 0; i < scene.Layers().NumLayers(); i++ {
		if scene.Layers().LayerName(i) == name {
			if err := scene.SetActiveLayer(i); err != nil {
				log.Printf("Panels: %v", err)
			}
			lp.canvas.Update()
			return
		}
	}
}

// Sync rebuilds the layer rows from the scene.
func (lp *LayersPanel) Sync() {
	lp.syncing = true
	defer func() { lp.syncing = false }()

	lp.rows.RemoveAll()
	scene := lp.state.Scene
	if scene == nil {
		lp.active.Options = nil
		lp.active.Refresh()
		return
	}

	layers := scene.Layers()
	names := make([]string, layers.NumLayers())
	for i := range names {
		names[i] = layers.LayerName(i)
		lp.rows.Add(lp.layerCard(layers, i))
	}
	lp.active.Options = names
	lp.active.SetSelected(names[scene.ActiveLayer()])
	lp.rows.Refresh()
}

func (lp *LayersPanel) layerCard(layers *editor.Layers, i int) fyne.CanvasObject {
	visible := widget.NewCheck("Visible", func(checked bool) {
		layers.SetVisible(i, checked)
		lp.canvas.Update()
	})
	visible.SetChecked(layers.Visible(i))

	opacity := widget.NewSlider(0, 100)
	opacity.SetValue(layers.Opacity(i) * 100)
	opacity.OnChanged = func(v float64) {
		lp.state.Scene.SetOpacity(i, v/100)
		lp.canvas.Update()
	}

	var modes []string
	for _, m := range imgpkg.BlendModes() {
		modes = append(modes, m.String())
	}
	blend := widget.NewSelect(modes, func(s string) {
		for _, m := range imgpkg.BlendModes() {
			if m.String() == s {
				layers.SetBlendMode(i, m)
			}
		}
		lp.canvas.Update()
	})
	blend.SetSelected(layers.BlendMode(i).String())

	kind := "image"
	if layers.IsMask(i) {
		kind = "mask"
		if !layers.IsEditable(i) {
			kind = "mask, read only"
		}
	}
	return widget.NewCard(layers.LayerName(i), kind, container.NewVBox(
		visible,
		widget.NewLabel("Opacity:"),
		opacity,
		blend,
	))
}
