package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndReload(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "segmate", prefsFile)

	p := LoadFrom(path)
	assert.Equal("", p.String(KeyLastProject))
	assert.Equal(1280, p.Int(KeyWindowWidth, 1280))

	p.SetString(KeyLastProject, "/data/cells.spf")
	p.SetInt(KeyLastImage, 7)
	p.SetFloat(KeyWindowWidth, 1024)
	p.SetBool("fit", true)
	require.NoError(t, p.Save())

	q := LoadFrom(path)
	assert.Equal("/data/cells.spf", q.String(KeyLastProject))
	assert.Equal(7, q.Int(KeyLastImage, 0))
	assert.Equal(1024.0, q.Float(KeyWindowWidth))
	assert.True(q.Bool("fit", false))
	assert.False(q.Bool("missing", false))
}

func TestLoadIgnoresGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), prefsFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	p := LoadFrom(path)
	assert.Equal(t, 3, p.Int(KeyLastImage, 3))
}
