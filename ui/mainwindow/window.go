// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"segmate/internal/app"
	"segmate/internal/editor"
	"segmate/internal/project"
	"segmate/internal/version"
	"segmate/ui/canvas"
	"segmate/ui/panels"
	"segmate/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	appTitle = "Segmate"

	defaultWidth  = 1280
	defaultHeight = 800
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	canvas    *canvas.EditorCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	zoomLabel *widget.Label
	toolBtns  map[string]*widget.Button

	// Menu items that need state tracking
	fitToWindowItem *fyne.MenuItem
	undoItem        *fyne.MenuItem
	redoItem        *fyne.MenuItem

	modifiers editor.Modifier

	// Last saved values, for SavePreferencesIfChanged. The hot reload
	// watcher saves from its own goroutine.
	saveMu       sync.Mutex
	savedSize    fyne.Size
	savedProject string
	savedImage   int
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window:     win,
		app:        fyneApp,
		state:      state,
		prefs:      p,
		toolBtns:   make(map[string]*widget.Button),
		savedImage: -1,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()

	w := float32(p.Int(prefs.KeyWindowWidth, defaultWidth))
	h := float32(p.Int(prefs.KeyWindowHeight, defaultHeight))
	mw.Resize(fyne.NewSize(w, h))
	mw.savedSize = fyne.NewSize(w, h)

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewEditorCanvas()
	mw.canvas.OnEdited(mw.onEdited)

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas)

	mw.statusBar = widget.NewLabel("Ready")
	mw.zoomLabel = widget.NewLabel("100%")
	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.zoomLabel.SetText(fmt.Sprintf("%.0f%%", zoom*100))
		mw.prefs.SetFloat(prefs.KeyZoom, zoom)
	})

	// Canvas area with toolbars on top
	canvasArea := container.NewBorder(
		container.NewVBox(mw.createToolbar(), mw.createToolButtons()),
		nil,
		nil,
		nil,
		mw.canvas.Container(),
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar),
		nil,
		nil,
		split,
	)

	mw.SetContent(content)
}

// createToolbar creates the toolbar with navigation and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	return container.NewHBox(
		widget.NewButton("<", mw.onPrevious),
		widget.NewButton(">", mw.onNext),
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		widget.NewButton("-", mw.onZoomOut),
		widget.NewButton("+", mw.onZoomIn),
		widget.NewButton("Fit", mw.onToggleFitToWindow),
		widget.NewButton("1:1", mw.onActualSize),
		mw.zoomLabel,
	)
}

// createToolButtons adds one button per registered tool.
func (mw *MainWindow) createToolButtons() fyne.CanvasObject {
	box := container.NewHBox()
	reg := mw.state.Registry
	for _, key := range reg.Keys() {
		name := key
		btn := widget.NewButton(reg.Title(name), func() { mw.selectTool(name) })
		mw.toolBtns[name] = btn
		box.Add(btn)
	}
	mw.highlightTool(editor.CursorTool)
	return container.NewHScroll(box)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save", mw.onSave),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItem("Export Archive...", mw.onExportArchive),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Close Project", mw.onCloseProject),
	)

	mw.undoItem = fyne.NewMenuItem("Undo", mw.onUndo)
	mw.redoItem = fyne.NewMenuItem("Redo", mw.onRedo)
	editMenu := fyne.NewMenu("Edit", mw.undoItem, mw.redoItem)

	mw.fitToWindowItem = fyne.NewMenuItem("  Fit to Window", mw.onToggleFitToWindow)
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		mw.fitToWindowItem,
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Previous Image", mw.onPrevious),
		fyne.NewMenuItem("Next Image", mw.onNext),
	)

	var toolItems []*fyne.MenuItem
	reg := mw.state.Registry
	for _, key := range reg.Keys() {
		name := key
		toolItems = append(toolItems, fyne.NewMenuItem(reg.Title(name), func() { mw.selectTool(name) }))
	}
	toolsMenu := fyne.NewMenu("Tools", toolItems...)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, toolsMenu, helpMenu))
	mw.updateUndoItems()
}

// setupShortcuts binds the keyboard shortcuts and forwards the remaining
// keys to the current tool.
func (mw *MainWindow) setupShortcuts() {
	c := mw.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { mw.onUndo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift},
		func(fyne.Shortcut) { mw.onRedo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { mw.onSave() })

	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyLeft:
			mw.onPrevious()
		case fyne.KeyRight:
			mw.onNext()
		}
	})

	dc, ok := c.(desktop.Canvas)
	if !ok {
		return
	}
	dc.SetOnKeyDown(func(ev *fyne.KeyEvent) {
		mw.trackModifier(ev.Name, true)
		mw.canvas.KeyPressed(editor.KeyEvent{Key: string(ev.Name), Modifiers: mw.modifiers})
	})
	dc.SetOnKeyUp(func(ev *fyne.KeyEvent) {
		mw.trackModifier(ev.Name, false)
		mw.canvas.KeyReleased(editor.KeyEvent{Key: string(ev.Name), Modifiers: mw.modifiers})
	})
}

func (mw *MainWindow) trackModifier(key fyne.KeyName, down bool) {
	var m editor.Modifier
	switch key {
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		m = editor.ModShift
	case desktop.KeyControlLeft, desktop.KeyControlRight:
		m = editor.ModCtrl
	case desktop.KeyAltLeft, desktop.KeyAltRight:
		m = editor.ModAlt
	default:
		return
	}
	if down {
		mw.modifiers |= m
	} else {
		mw.modifiers &^= m
	}
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		path, _ := data.(string)
		mw.SetTitle(appTitle + " - " + filepath.Base(path))
		mw.attachScene()
		mw.updateStatus("Project loaded: " + path)
	})

	mw.state.On(app.EventProjectSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Saved " + path)
		}
	})

	mw.state.On(app.EventProjectClosed, func(interface{}) {
		mw.SetTitle(appTitle)
		mw.canvas.SetScene(nil)
		mw.sidePanel.SyncScene()
		mw.updateUndoItems()
		mw.updateStatus("Project closed")
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		modified, _ := data.(bool)
		title := mw.Title()
		marked := len(title) > 0 && title[len(title)-1] == '*'
		switch {
		case modified && !marked:
			mw.SetTitle(title + " *")
		case !modified && marked:
			mw.SetTitle(title[:len(title)-2])
		}
	})
}

// attachScene connects a freshly loaded scene to the canvas and panels.
func (mw *MainWindow) attachScene() {
	scene := mw.state.Scene
	if scene == nil {
		return
	}
	if limit := mw.prefs.Int(prefs.KeyUndoLimit, 0); limit > 0 {
		scene.UndoStack().SetLimit(limit)
	}
	scene.On(editor.EventStatus, func(data interface{}) {
		if msg, ok := data.(string); ok {
			mw.updateStatus(msg)
		}
	})
	scene.On(editor.EventImageLoaded, func(data interface{}) {
		mw.canvas.Update()
		mw.sidePanel.SyncImage()
	})
	scene.On(editor.EventToolChanged, func(data interface{}) {
		if name, ok := data.(string); ok {
			mw.highlightTool(name)
		}
		mw.sidePanel.SyncTool()
	})
	scene.On(editor.EventActiveLayerChanged, func(interface{}) {
		mw.sidePanel.SyncTool()
	})
	scene.UndoStack().OnIndexChanged(func(int) { mw.updateUndoItems() })

	mw.canvas.SetScene(scene)
	if mw.prefs.Bool(prefs.KeyFitToWindow, false) {
		mw.setFitToWindow(true)
	} else if zoom := mw.prefs.Float(prefs.KeyZoom); zoom > 0 {
		mw.canvas.SetZoom(zoom)
	}
	mw.sidePanel.SyncScene()
	mw.updateUndoItems()
	mw.highlightTool(scene.Layers().ToolName())
}

// RestoreLastProject opens the project and image used last time.
func (mw *MainWindow) RestoreLastProject() {
	path := mw.prefs.String(prefs.KeyLastProject)
	if path == "" {
		return
	}
	if err := mw.OpenProject(path); err != nil {
		log.Printf("MainWindow: restore %s: %v", path, err)
		return
	}
	idx := mw.prefs.Int(prefs.KeyLastImage, 0)
	if scene := mw.state.Scene; scene != nil && idx > 0 && idx < scene.ImageCount() {
		if err := scene.Load(idx); err != nil {
			log.Printf("MainWindow: %v", err)
		}
	}
}

// OpenProject loads a project file or archive into the window.
func (mw *MainWindow) OpenProject(path string) error {
	if err := mw.state.LoadProject(path); err != nil {
		return err
	}
	mw.prefs.SetString(prefs.KeyLastProject, path)
	return nil
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updateUndoItems() {
	mw.undoItem.Label = "Undo"
	mw.redoItem.Label = "Redo"
	mw.undoItem.Disabled = true
	mw.redoItem.Disabled = true
	if scene := mw.state.Scene; scene != nil {
		u := scene.UndoStack()
		if u.CanUndo() {
			mw.undoItem.Label = "Undo " + u.UndoText()
			mw.undoItem.Disabled = false
		}
		if u.CanRedo() {
			mw.redoItem.Label = "Redo " + u.RedoText()
			mw.redoItem.Disabled = false
		}
	}
	if menu := mw.MainMenu(); menu != nil {
		menu.Refresh()
	}
}

func (mw *MainWindow) highlightTool(name string) {
	for key, btn := range mw.toolBtns {
		if key == name {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}

func (mw *MainWindow) selectTool(name string) {
	scene := mw.state.Scene
	if scene == nil {
		return
	}
	if err := scene.ChangeTool(name); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.sidePanel.ShowToolTab()
	mw.canvas.Update()
}

func (mw *MainWindow) onEdited() {
	mw.sidePanel.SyncImage()
}

// dirURI returns the directory of the last project as a ListableURI, or nil.
func (mw *MainWindow) dirURI() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastProject)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(filepath.Dir(path)))
	if err != nil {
		return nil
	}
	return listable
}

// Menu action handlers

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		if err := mw.OpenProject(reader.URI().Path()); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{project.Extension, project.ArchiveExtension}))
	if loc := mw.dirURI(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSave() {
	if !mw.state.HasProject() {
		return
	}
	if err := mw.state.SaveProject(); err != nil {
		log.Printf("MainWindow: save: %v", err)
		dialog.ShowError(fmt.Errorf("save failed, your edits are kept: %w", err), mw.Window)
	}
}

func (mw *MainWindow) onSaveProjectAs() {
	if !mw.state.HasProject() {
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != project.Extension {
			path += project.Extension
		}
		if err := mw.state.SaveProjectAs(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.prefs.SetString(prefs.KeyLastProject, path)
	}, mw.Window)
	fd.SetFileName("project" + project.Extension)
	if loc := mw.dirURI(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportArchive() {
	if mw.state.Archive == nil {
		dialog.ShowInformation("Export Archive", "The open project is not an archive.", mw.Window)
		return
	}
	dialog.ShowFolderOpen(func(dir fyne.ListableURI, err error) {
		if err != nil || dir == nil {
			return
		}
		out, err := mw.state.ExportArchive(dir.Path())
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Exported to " + out)
	}, mw.Window)
}

func (mw *MainWindow) onCloseProject() {
	if !mw.state.Modified {
		mw.state.CloseProject()
		return
	}
	dialog.ShowConfirm("Close Project", "Discard unsaved changes?", func(ok bool) {
		if ok {
			mw.state.CloseProject()
		}
	}, mw.Window)
}

func (mw *MainWindow) onUndo() {
	if scene := mw.state.Scene; scene != nil && scene.Undo() {
		mw.canvas.Update()
		mw.sidePanel.SyncImage()
	}
}

func (mw *MainWindow) onRedo() {
	if scene := mw.state.Scene; scene != nil && scene.Redo() {
		mw.canvas.Update()
		mw.sidePanel.SyncImage()
	}
}

func (mw *MainWindow) onPrevious() {
	if scene := mw.state.Scene; scene != nil {
		if err := scene.Previous(); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}
}

func (mw *MainWindow) onNext() {
	if scene := mw.state.Scene; scene != nil {
		if err := scene.Next(); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}
}

func (mw *MainWindow) onZoomIn() {
	mw.disableFitToWindow()
	mw.canvas.ZoomIn()
}

func (mw *MainWindow) onZoomOut() {
	mw.disableFitToWindow()
	mw.canvas.ZoomOut()
}

func (mw *MainWindow) onToggleFitToWindow() {
	mw.setFitToWindow(!mw.canvas.GetFitToWindow())
}

func (mw *MainWindow) onActualSize() {
	mw.disableFitToWindow()
	mw.canvas.SetZoom(1.0)
}

func (mw *MainWindow) disableFitToWindow() {
	if mw.canvas.GetFitToWindow() {
		mw.setFitToWindow(false)
	}
}

func (mw *MainWindow) setFitToWindow(enabled bool) {
	mw.canvas.SetFitToWindow(enabled)
	mw.prefs.SetBool(prefs.KeyFitToWindow, enabled)
	if enabled {
		mw.fitToWindowItem.Label = "✓ Fit to Window"
	} else {
		mw.fitToWindowItem.Label = "  Fit to Window"
	}
	if menu := mw.MainMenu(); menu != nil {
		menu.Refresh()
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Segmate",
		fmt.Sprintf("Segmate v%s\n\n"+
			"Annotation of image segmentation masks.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// SavePreferences stores the window size, the open project and the shown
// image. Zoom and fit are stored as they change. It only reads
// goroutine-safe state, so the hot reload watcher may call it.
func (mw *MainWindow) SavePreferences() {
	mw.saveMu.Lock()
	defer mw.saveMu.Unlock()
	mw.savePreferences()
}

func (mw *MainWindow) savePreferences() {
	size := mw.Canvas().Size()
	mw.prefs.SetInt(prefs.KeyWindowWidth, int(size.Width))
	mw.prefs.SetInt(prefs.KeyWindowHeight, int(size.Height))

	path, idx := mw.state.Snapshot()
	if path != "" {
		mw.prefs.SetString(prefs.KeyLastProject, path)
		mw.prefs.SetInt(prefs.KeyLastImage, idx)
	}

	if err := mw.prefs.Save(); err != nil {
		log.Printf("MainWindow: save preferences: %v", err)
		return
	}
	mw.savedSize = size
	mw.savedProject = path
	mw.savedImage = idx
}

// SavePreferencesIfChanged saves only when something stored would change.
func (mw *MainWindow) SavePreferencesIfChanged() {
	mw.saveMu.Lock()
	defer mw.saveMu.Unlock()
	path, idx := mw.state.Snapshot()
	if mw.Canvas().Size() == mw.savedSize && path == mw.savedProject && idx == mw.savedImage {
		return
	}
	mw.savePreferences()
}
