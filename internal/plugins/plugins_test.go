package plugins

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"segmate/internal/editor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	editor.BaseTool
}

func writePlugin(t *testing.T, dir, name, manifest string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(p, 0755))
	if manifest != "" {
		require.NoError(t, os.WriteFile(filepath.Join(p, ManifestName), []byte(manifest), 0644))
	}
}

func TestLoadSkipsBrokenPlugins(t *testing.T) {
	assert := assert.New(t)

	Provide("test.tools.Stub", func() editor.Tool { return &stubTool{} })

	dir := t.TempDir()
	writePlugin(t, dir, "stub", `{"name": "Stub", "module": "test.tools", "class": "Stub", "dependencies": ["NumPy>=1.0", "scipy"]}`)
	writePlugin(t, dir, ".hidden", `{"name": "Hidden", "module": "test.tools", "class": "Stub"}`)
	writePlugin(t, dir, "nomanifest", "")
	writePlugin(t, dir, "malformed", `{"name": `)
	writePlugin(t, dir, "incomplete", `{"name": "Incomplete", "module": "test.tools"}`)
	writePlugin(t, dir, "unknown", `{"name": "Unknown", "module": "test.tools", "class": "Missing"}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("not a plugin"), 0644))

	ds := Load(dir)
	require.Len(t, ds, 1)
	assert.Equal("stub", ds[0].Key)
	assert.Equal("Stub", ds[0].Name)
	assert.Equal("test.tools.Stub", ds[0].Manifest.EntryPoint())

	reg := editor.NewRegistry()
	Install(reg, ds)
	assert.True(reg.Has("stub"))
	assert.Equal("Stub", reg.Title("stub"))
	tool, err := reg.New("stub")
	require.NoError(t, err)
	assert.IsType(&stubTool{}, tool)

	assert.Equal([]string{"numpy"}, MissingDependencies(ds, []string{"SciPy"}))
	assert.Empty(MissingDependencies(ds, []string{"numpy", "scipy"}))
}

func TestMissingDependenciesSorted(t *testing.T) {
	ds := []Descriptor{
		{Key: "b", Manifest: Manifest{Dependencies: []string{"zlib", "Watershed_Tool"}}},
		{Key: "a", Manifest: Manifest{Dependencies: []string{"watershed_tool >= 2", "alpha"}}},
	}
	assert.Equal(t, []string{"alpha", "watershed_tool", "zlib"}, MissingDependencies(ds, nil))
	assert.Equal(t, []string{"alpha", "zlib"}, MissingDependencies(ds, []string{"WATERSHED_TOOL"}))
}

func TestLoadMissingDir(t *testing.T) {
	assert.Empty(t, Load(filepath.Join(t.TempDir(), "plugins")))
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("nowhere.Nothing")
	assert.True(t, errors.Is(err, ErrUnknownEntryPoint))
}
