// Package store loads and caches the per-layer images of a project and writes
// edited layers back to disk.
package store

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"segmate/internal/draw"
	imgpkg "segmate/internal/image"
	"segmate/internal/mask"
	"segmate/pkg/colorutil"
)

// ErrIndexOutOfRange is returned for image indices outside [0, Len()).
var ErrIndexOutOfRange = errors.New("image index out of range")

// LayerSpec describes one layer folder of the data root.
type LayerSpec struct {
	Folder   string
	Mask     bool
	Editable bool
	Color    colorutil.RGB
}

// Store caches decoded layers by image index and tracks which indices hold
// unsaved edits.
type Store struct {
	root   string
	layers []LayerSpec
	files  []string

	cache map[int][]*image.RGBA
	dirty map[int]bool

	// write encodes one layer file. Replaced in tests to count writes.
	write func(path string, img image.Image) error
}

// New lists the files of the first layer folder under root and returns an
// empty store for them. Files are paired across folders by name.
func New(root string, layers []LayerSpec) (*Store, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("store needs at least one layer")
	}
	files, err := listFiles(filepath.Join(root, layers[0].Folder))
	if err != nil {
		return nil, err
	}
	log.Printf("Store: %d files in %s", len(files), filepath.Join(root, layers[0].Folder))
	return &Store{
		root:   root,
		layers: append([]LayerSpec(nil), layers...),
		files:  files,
		cache:  make(map[int][]*image.RGBA),
		dirty:  make(map[int]bool),
		write:  imgpkg.Save,
	}, nil
}

var suffixRe = regexp.MustCompile(`(\d+)\D*$`)

// NumericSuffix returns the last run of digits in the file stem, e.g. 12 for
// "frame-12.png".
func NumericSuffix(name string) (int, bool) {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	m := suffixRe.FindStringSubmatch(stem)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	type numbered struct {
		name string
		n    int
	}
	var found []numbered
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !imgpkg.IsSupportedFormat(e.Name()) {
			log.Printf("Store: skipping %s: unsupported format", e.Name())
			continue
		}
		n, ok := NumericSuffix(e.Name())
		if !ok {
			log.Printf("Store: skipping %s: no numeric suffix", e.Name())
			continue
		}
		found = append(found, numbered{name: e.Name(), n: n})
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].n != found[j].n {
			return found[i].n < found[j].n
		}
		return found[i].name < found[j].name
	})

	files := make([]string, len(found))
	for i, f := range found {
		files[i] = f.name
	}
	return files, nil
}

// Len returns the number of images.
func (s *Store) Len() int {
	return len(s.files)
}

// NumLayers returns the number of layers per image.
func (s *Store) NumLayers() int {
	return len(s.layers)
}

// Layer returns the description of layer l.
func (s *Store) Layer(l int) LayerSpec {
	return s.layers[l]
}

// Layers returns the layer descriptions in display order.
func (s *Store) Layers() []LayerSpec {
	return append([]LayerSpec(nil), s.layers...)
}

// Files returns the image file names in index order.
func (s *Store) Files() []string {
	return append([]string(nil), s.files...)
}

// Root returns the data root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the file of layer l for image i.
func (s *Store) Path(i, l int) string {
	return filepath.Join(s.root, s.layers[l].Folder, s.files[i])
}

// Get returns the layers of image i, loading them on first access. Mask
// layers come back recolored: the layer color with full alpha on nonzero
// pixels, fully transparent elsewhere. The returned buffers are the cached
// ones; callers that edit them must go through Set.
func (s *Store) Get(i int) ([]*image.RGBA, error) {
	if i < 0 || i >= len(s.files) {
		return nil, fmt.Errorf("get %d of %d: %w", i, len(s.files), ErrIndexOutOfRange)
	}
	if data, ok := s.cache[i]; ok {
		return data, nil
	}

	data := make([]*image.RGBA, len(s.layers))
	for l, spec := range s.layers {
		path := s.Path(i, l)
		if !spec.Mask {
			img, err := imgpkg.Load(path)
			if err != nil {
				return nil, fmt.Errorf("layer %s: %w", spec.Folder, err)
			}
			data[l] = img
			continue
		}
		g, err := imgpkg.LoadGray(path)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", spec.Folder, err)
		}
		data[l] = mask.Color(mask.Binary(g), spec.Color)
	}

	s.cache[i] = data
	return data, nil
}

// Set replaces the cached layers of image i with copies of data and marks i
// dirty.
func (s *Store) Set(i int, data []*image.RGBA) error {
	if i < 0 || i >= len(s.files) {
		return fmt.Errorf("set %d of %d: %w", i, len(s.files), ErrIndexOutOfRange)
	}
	if len(data) != len(s.layers) {
		return fmt.Errorf("set %d: got %d layers, want %d", i, len(data), len(s.layers))
	}
	copied := make([]*image.RGBA, len(data))
	for l, img := range data {
		copied[l] = draw.Clone(img)
	}
	s.cache[i] = copied
	s.dirty[i] = true
	return nil
}

// Dirty returns the indices with unsaved edits in ascending order.
func (s *Store) Dirty() []int {
	out := make([]int, 0, len(s.dirty))
	for i := range s.dirty {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// IsDirty reports whether image i has unsaved edits.
func (s *Store) IsDirty(i int) bool {
	return s.dirty[i]
}

// SaveToDisk writes the editable layers of every dirty image. Mask layers are
// written as single channel 0/255 images. The dirty set is cleared only when
// every write succeeded.
func (s *Store) SaveToDisk() error {
	if len(s.dirty) == 0 {
		return nil
	}
	for _, i := range s.Dirty() {
		data := s.cache[i]
		for l, spec := range s.layers {
			if !spec.Editable || data[l] == nil {
				continue
			}
			var out image.Image = data[l]
			if spec.Mask {
				out = mask.Binary(data[l])
			}
			path := s.Path(i, l)
			if err := s.write(path, out); err != nil {
				return fmt.Errorf("save %s: %w", path, err)
			}
		}
	}
	log.Printf("Store: saved %d images", len(s.dirty))
	clear(s.dirty)
	return nil
}
