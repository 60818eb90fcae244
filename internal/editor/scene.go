package editor

import (
	"fmt"
	"image"
	"log"
)

// EventType identifies scene events.
type EventType int

const (
	EventImageLoaded EventType = iota
	EventImageModified
	EventOpacityChanged
	EventActiveLayerChanged
	EventToolChanged
	EventStatus
	EventSaved
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// OpacityChange is the payload of EventOpacityChanged.
type OpacityChange struct {
	Layer int
	Value float64
}

// ChangeImageText labels the undo entries pushed by frame navigation.
const ChangeImageText = "Change Image"

// Scene owns the data store, the layers of the loaded image and the undo
// stack shared by all edits and frame changes.
type Scene struct {
	data   DataSource
	layers *Layers
	undo   *UndoStack
	loaded int

	listeners map[EventType][]EventListener
}

// NewScene creates a scene over data using the tools of registry.
func NewScene(data DataSource, registry *Registry) *Scene {
	s := &Scene{
		data:      data,
		undo:      NewUndoStack(),
		loaded:    -1,
		listeners: make(map[EventType][]EventListener),
	}
	s.layers = NewLayers(data, registry, s.undo)
	s.layers.onModified = s.storeDirty
	s.layers.onStatus = func(msg string) { s.Emit(EventStatus, msg) }
	return s
}

// On registers an event listener for the specified event type.
func (s *Scene) On(event EventType, listener EventListener) {
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Scene) Emit(event EventType, data interface{}) {
	for _, listener := range s.listeners[event] {
		listener(data)
	}
}

// Layers returns the layer view.
func (s *Scene) Layers() *Layers { return s.layers }

// UndoStack returns the shared undo stack.
func (s *Scene) UndoStack() *UndoStack { return s.undo }

// Data returns the underlying store.
func (s *Scene) Data() DataSource { return s.data }

// ImageCount returns the number of images in the store.
func (s *Scene) ImageCount() int {
	if s.data == nil {
		return 0
	}
	return s.data.Len()
}

// LoadedIndex returns the loaded image index, -1 before the first load.
func (s *Scene) LoadedIndex() int { return s.loaded }

// Load shows image i without recording an undo entry.
func (s *Scene) Load(i int) error {
	if err := s.layers.Load(i); err != nil {
		return fmt.Errorf("load image %d: %w", i, err)
	}
	s.loaded = i
	s.Emit(EventImageLoaded, i)
	return nil
}

// ShowImage loads image i and records the frame change on the undo stack.
func (s *Scene) ShowImage(i int) error {
	if i == s.loaded {
		return nil
	}
	prev := s.loaded
	if err := s.Load(i); err != nil {
		return err
	}
	if prev < 0 {
		return nil
	}
	s.undo.Push(&FuncCommand{
		Label:    ChangeImageText,
		UndoFunc: func() { s.loadLogged(prev) },
		RedoFunc: func() { s.loadLogged(i) },
	})
	return nil
}

func (s *Scene) loadLogged(i int) {
	if err := s.Load(i); err != nil {
		log.Printf("Scene: %v", err)
	}
}

// Next shows the following image; it stays on the last one.
func (s *Scene) Next() error {
	if s.loaded+1 >= s.ImageCount() {
		return nil
	}
	return s.ShowImage(s.loaded + 1)
}

// Previous shows the preceding image; it stays on the first one.
func (s *Scene) Previous() error {
	if s.loaded <= 0 {
		return nil
	}
	return s.ShowImage(s.loaded - 1)
}

// ActiveLayer returns the layer tools edit.
func (s *Scene) ActiveLayer() int { return s.layers.LayerIndex() }

// SetActiveLayer makes idx the edited layer.
func (s *Scene) SetActiveLayer(idx int) error {
	if err := s.layers.SetActive(idx); err != nil {
		return err
	}
	s.Emit(EventActiveLayerChanged, idx)
	return nil
}

// SetOpacity changes the display opacity of a layer.
func (s *Scene) SetOpacity(idx int, v float64) {
	s.layers.SetOpacity(idx, v)
	s.Emit(EventOpacityChanged, OpacityChange{Layer: idx, Value: s.layers.Opacity(idx)})
}

// ChangeTool switches to the tool registered under name.
func (s *Scene) ChangeTool(name string) error {
	if err := s.layers.ChangeTool(name); err != nil {
		return err
	}
	s.Emit(EventToolChanged, name)
	return nil
}

// Undo reverts the last edit or frame change.
func (s *Scene) Undo() bool { return s.undo.Undo() }

// Redo re-applies the last undone edit or frame change.
func (s *Scene) Redo() bool { return s.undo.Redo() }

// SaveToDisk writes every modified image to disk. Layer dirty flags survive
// a failed save.
func (s *Scene) SaveToDisk() error {
	if err := s.data.SaveToDisk(); err != nil {
		return err
	}
	if s.loaded >= 0 {
		s.layers.ClearDirty()
	}
	s.Emit(EventSaved, nil)
	return nil
}

// Render composites the loaded image for display.
func (s *Scene) Render() *image.RGBA {
	return s.layers.Render()
}

// Status posts a status bar message.
func (s *Scene) Status(msg string) {
	s.Emit(EventStatus, msg)
}

// storeDirty copies the edited layers of the loaded image into the store.
func (s *Scene) storeDirty() {
	if s.loaded < 0 || !s.layers.AnyDirty() {
		return
	}
	if err := s.data.Set(s.loaded, s.layers.Data()); err != nil {
		log.Printf("Scene: store image %d: %v", s.loaded, err)
		return
	}
	s.Emit(EventImageModified, s.loaded)
}
