// Package project provides project file handling and persistence.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"segmate/internal/store"
	"segmate/internal/version"
	"segmate/pkg/colorutil"
)

// Extension is the file extension of project files.
const Extension = ".spf"

// ErrInvalidProject is returned for project files whose layer lists do not
// line up.
var ErrInvalidProject = errors.New("invalid project")

// File represents a segmate project file (.spf). Masks, Editable and Colors
// are parallel to Folders.
type File struct {
	Version  string          `json:"version"`
	DataRoot string          `json:"data_root"`
	Folders  []string        `json:"folders"`
	Masks    []bool          `json:"masks"`
	Editable []bool          `json:"editable"`
	Colors   []colorutil.RGB `json:"colors"`

	relRoot bool // data_root was relative on disk
}

// New creates a project over dataRoot with the given layer folders. The first
// folder is the base image layer; every other folder is an editable mask.
func New(dataRoot string, folders ...string) *File {
	p := &File{
		Version:  version.Version,
		DataRoot: dataRoot,
	}
	for i, f := range folders {
		p.AddLayer(f, i > 0, i > 0, colorutil.PaletteColor(i))
	}
	return p
}

// AddLayer appends a layer folder.
func (p *File) AddLayer(folder string, isMask, editable bool, c colorutil.RGB) {
	p.Folders = append(p.Folders, folder)
	p.Masks = append(p.Masks, isMask)
	p.Editable = append(p.Editable, editable)
	p.Colors = append(p.Colors, c)
}

// Load loads a project from a .spf file. A relative data root is resolved
// against the directory of the project file, and Save writes it back
// relative.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProject, path, err)
	}
	if err := proj.Validate(); err != nil {
		return nil, err
	}
	if proj.DataRoot != "" && !filepath.IsAbs(proj.DataRoot) {
		proj.DataRoot = filepath.Join(filepath.Dir(path), proj.DataRoot)
		proj.relRoot = true
	}

	return &proj, nil
}

// Save saves the project to a file, creating the parent directory.
func (p *File) Save(path string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.Version = version.Version

	out := *p
	out.DataRoot = p.storedRoot(path)
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// storedRoot returns the data root as written to path.
func (p *File) storedRoot(path string) string {
	if !p.relRoot || p.DataRoot == "" {
		return p.DataRoot
	}
	rel, err := filepath.Rel(filepath.Dir(path), p.DataRoot)
	if err != nil {
		return p.DataRoot
	}
	return rel
}

// Validate checks that the per-layer lists are parallel and non-empty.
func (p *File) Validate() error {
	n := len(p.Folders)
	if n == 0 {
		return fmt.Errorf("%w: no layer folders", ErrInvalidProject)
	}
	if len(p.Masks) != n || len(p.Editable) != n || len(p.Colors) != n {
		return fmt.Errorf("%w: %d folders but %d masks, %d editable, %d colors",
			ErrInvalidProject, n, len(p.Masks), len(p.Editable), len(p.Colors))
	}
	seen := make(map[string]bool, n)
	for _, f := range p.Folders {
		if f == "" {
			return fmt.Errorf("%w: empty folder name", ErrInvalidProject)
		}
		if seen[f] {
			return fmt.Errorf("%w: duplicate folder %q", ErrInvalidProject, f)
		}
		seen[f] = true
	}
	return nil
}

// NumLayers returns the number of layers.
func (p *File) NumLayers() int {
	return len(p.Folders)
}

// LayerSpecs returns the store description of every layer.
func (p *File) LayerSpecs() []store.LayerSpec {
	specs := make([]store.LayerSpec, len(p.Folders))
	for i, f := range p.Folders {
		specs[i] = store.LayerSpec{
			Folder:   f,
			Mask:     p.Masks[i],
			Editable: p.Editable[i],
			Color:    p.Colors[i],
		}
	}
	return specs
}

// OpenStore creates the data store for the project.
func (p *File) OpenStore() (*store.Store, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return store.New(p.DataRoot, p.LayerSpecs())
}
