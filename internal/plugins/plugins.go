// Package plugins loads the tool plugin table.
//
// A plugin is a directory under the plugins directory holding a plugin.json
// manifest:
//
//	{
//	  "name": "Threshold",
//	  "module": "segmate.tools",
//	  "class": "Threshold",
//	  "dependencies": ["opencv>=4.6"]
//	}
//
// The entry point "module.class" must name a factory registered with
// Provide. The directory name becomes the tool key.
package plugins

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"segmate/internal/editor"
)

// ManifestName is the file name of a plugin manifest.
const ManifestName = "plugin.json"

// ErrUnknownEntryPoint is returned when a manifest names an entry point no
// factory was provided for.
var ErrUnknownEntryPoint = errors.New("unknown entry point")

// Manifest is the content of plugin.json.
type Manifest struct {
	Name         string   `json:"name"`
	Module       string   `json:"module"`
	Class        string   `json:"class"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// EntryPoint returns "module.class".
func (m Manifest) EntryPoint() string {
	return m.Module + "." + m.Class
}

// Descriptor is one loaded plugin.
type Descriptor struct {
	Key      string // plugin directory name
	Name     string
	Manifest Manifest
	Factory  editor.Factory
}

var (
	mu        sync.RWMutex
	factories = make(map[string]editor.Factory)
)

// Provide makes a tool factory available under an entry point.
func Provide(entryPoint string, f editor.Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[entryPoint] = f
}

// Lookup returns the factory provided for entryPoint.
func Lookup(entryPoint string) (editor.Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[entryPoint]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntryPoint, entryPoint)
	}
	return f, nil
}

// DefaultDir returns <UserConfigDir>/segmate/plugins.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "segmate", "plugins"), nil
}

// Load builds the descriptor table from dir. Entries that cannot be loaded
// are logged and skipped. A missing dir yields an empty table.
func Load(dir string) []Descriptor {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Plugins: cannot read %s: %v", dir, err)
		}
		return nil
	}

	var out []Descriptor
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		m, ok := readManifest(filepath.Join(dir, e.Name()))
		if !ok {
			continue
		}
		if m.Name == "" || m.Module == "" || m.Class == "" {
			log.Printf("Plugins: '%s/%s' needs name, module and class, skipping", e.Name(), ManifestName)
			continue
		}
		f, err := Lookup(m.EntryPoint())
		if err != nil {
			log.Printf("Plugins: error loading the plugin '%s': %v, skipping", e.Name(), err)
			continue
		}
		out = append(out, Descriptor{Key: e.Name(), Name: m.Name, Manifest: m, Factory: f})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func readManifest(pluginDir string) (Manifest, bool) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(pluginDir, ManifestName))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Plugins: %v", err)
		}
		return m, false
	}
	if err := json.Unmarshal(data, &m); err != nil {
		log.Printf("Plugins: '%s/%s': %v", filepath.Base(pluginDir), ManifestName, err)
		return m, false
	}
	return m, true
}

// Install registers every descriptor's tool under its key.
func Install(reg *editor.Registry, descriptors []Descriptor) {
	for _, d := range descriptors {
		if reg.Has(d.Key) {
			log.Printf("Plugins: '%s' replaces an existing tool", d.Key)
		}
		reg.Register(d.Key, d.Name, d.Factory)
	}
}

var requirementName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*`)

// MissingDependencies lists the declared dependencies of descriptors whose
// names are not in installed. Version specifiers are ignored and names
// compare case-insensitively. The result is sorted.
func MissingDependencies(descriptors []Descriptor, installed []string) []string {
	have := make(map[string]bool, len(installed))
	for _, name := range installed {
		have[strings.ToLower(name)] = true
	}

	var missing []string
	seen := make(map[string]bool)
	for _, d := range descriptors {
		for _, dep := range d.Manifest.Dependencies {
			name := strings.ToLower(requirementName.FindString(strings.TrimSpace(dep)))
			if name == "" || have[name] || seen[name] {
				continue
			}
			seen[name] = true
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
