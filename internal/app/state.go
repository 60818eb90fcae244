// Package app provides application lifecycle management and events.
package app

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"segmate/internal/editor"
	"segmate/internal/editor/tools"
	"segmate/internal/plugins"
	"segmate/internal/project"
	"segmate/internal/stats"
	"segmate/internal/store"
)

// ErrNoProject is returned by operations that need an open project.
var ErrNoProject = errors.New("no project loaded")

// State holds the open project, its data store and the editor scene.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	Project     *project.File
	Archive     *project.Archive // nil for plain project files
	Modified    bool
	shown       int // loaded image index, kept for Snapshot

	Store    *store.Store
	Scene    *editor.Scene
	Registry *editor.Registry
	Plugins  []plugins.Descriptor

	// Plugin dependencies that name no installed tool
	MissingDependencies []string

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventProjectClosed
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates the application state with the built-in tools and the
// plugins found in pluginDir. An empty pluginDir skips plugin loading.
func NewState(pluginDir string) *State {
	reg := editor.NewRegistry()
	tools.Register(reg)

	var descriptors []plugins.Descriptor
	if pluginDir != "" {
		descriptors = plugins.Load(pluginDir)
		plugins.Install(reg, descriptors)
		if len(descriptors) > 0 {
			log.Printf("Plugins: %d loaded from %s", len(descriptors), pluginDir)
		}
	}

	missing := plugins.MissingDependencies(descriptors, reg.Keys())
	if len(missing) > 0 {
		log.Printf("Plugins: missing dependencies: %s", strings.Join(missing, ", "))
	}

	return &State{
		Registry:            reg,
		Plugins:             descriptors,
		MissingDependencies: missing,
		shown:               -1,
		listeners:           make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// HasProject reports whether a project is open.
func (s *State) HasProject() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Scene != nil
}

// Snapshot returns the project path and the index of the shown image, -1
// when nothing is shown. Unlike the exported fields it may be called from any
// goroutine.
func (s *State) Snapshot() (path string, image int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ProjectPath, s.shown
}

// LoadProject opens a project file (.spf) or archive (.segmate) and shows its
// first image. Any open project is closed first.
func (s *State) LoadProject(path string) error {
	var (
		proj    *project.File
		archive *project.Archive
		err     error
	)
	if project.IsArchive(path) {
		archive, err = project.OpenArchive(path)
		if err != nil {
			return err
		}
		proj = archive.Project
	} else {
		proj, err = project.Load(path)
		if err != nil {
			return err
		}
	}

	st, err := proj.OpenStore()
	if err != nil {
		if archive != nil {
			archive.Close()
		}
		return err
	}

	s.CloseProject()

	scene := editor.NewScene(st, s.Registry)
	scene.On(editor.EventImageModified, func(interface{}) { s.SetModified(true) })
	scene.On(editor.EventSaved, func(interface{}) { s.SetModified(false) })
	scene.On(editor.EventImageLoaded, func(data interface{}) {
		if i, ok := data.(int); ok {
			s.mu.Lock()
			s.shown = i
			s.mu.Unlock()
		}
	})
	if st.Len() > 0 {
		if err := scene.Load(0); err != nil {
			log.Printf("State: %v", err)
		}
		if proj.NumLayers() > 1 {
			if err := scene.SetActiveLayer(1); err != nil {
				log.Printf("State: %v", err)
			}
		}
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Project = proj
	s.Archive = archive
	s.Store = st
	s.Scene = scene
	s.Modified = false
	s.mu.Unlock()

	log.Printf("State: loaded %s (%d images, %d layers)", path, st.Len(), st.NumLayers())
	s.Emit(EventProjectLoaded, path)
	return nil
}

// SaveProject writes every modified image to disk. For archives the archive
// file is rewritten too.
func (s *State) SaveProject() error {
	s.mu.RLock()
	scene, archive, path := s.Scene, s.Archive, s.ProjectPath
	s.mu.RUnlock()
	if scene == nil {
		return ErrNoProject
	}

	if err := scene.SaveToDisk(); err != nil {
		return fmt.Errorf("save images: %w", err)
	}
	if archive != nil {
		if err := archive.Write(); err != nil {
			return fmt.Errorf("save archive: %w", err)
		}
	}

	s.SetModified(false)
	s.Emit(EventProjectSaved, path)
	return nil
}

// SaveProjectAs writes the project file to path. The data stays where it is.
func (s *State) SaveProjectAs(path string) error {
	s.mu.RLock()
	proj := s.Project
	s.mu.RUnlock()
	if proj == nil {
		return ErrNoProject
	}
	if filepath.Ext(path) == "" {
		path += project.Extension
	}
	if err := proj.Save(path); err != nil {
		return err
	}
	s.mu.Lock()
	s.ProjectPath = path
	s.mu.Unlock()
	s.Emit(EventProjectSaved, path)
	return nil
}

// ExportArchive unpacks the open archive into dir and returns the folder it
// was written to.
func (s *State) ExportArchive(dir string) (string, error) {
	s.mu.RLock()
	archive := s.Archive
	s.mu.RUnlock()
	if archive == nil {
		return "", fmt.Errorf("export: %w", ErrNoProject)
	}
	return archive.Export(dir)
}

// CloseProject drops the open project. Unsaved edits are lost.
func (s *State) CloseProject() {
	s.mu.Lock()
	archive := s.Archive
	open := s.Scene != nil
	s.ProjectPath = ""
	s.Project = nil
	s.Archive = nil
	s.Store = nil
	s.Scene = nil
	s.Modified = false
	s.shown = -1
	s.mu.Unlock()

	if archive != nil {
		if err := archive.Close(); err != nil {
			log.Printf("State: close archive: %v", err)
		}
	}
	if open {
		s.Emit(EventProjectClosed, nil)
	}
}

// MaskStats measures the mask layers of the loaded image.
func (s *State) MaskStats() ([]stats.MaskStats, error) {
	s.mu.RLock()
	scene, st := s.Scene, s.Store
	s.mu.RUnlock()
	if scene == nil {
		return nil, ErrNoProject
	}
	frame := scene.Layers().Data()
	return stats.Layers(frame, func(l int) bool { return st.Layer(l).Mask })
}
