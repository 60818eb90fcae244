package project

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"segmate/internal/version"
	"segmate/pkg/colorutil"
)

// ArchiveExtension is the file extension of project archives.
const ArchiveExtension = ".segmate"

const (
	metaName = "meta"
	dataDir  = "data"
)

// archiveMeta is the JSON document stored as "meta" inside an archive.
type archiveMeta struct {
	Version  string          `json:"version"`
	Layers   []string        `json:"layers"`
	Masks    []bool          `json:"masks"`
	Editable []bool          `json:"editable"`
	Colors   []colorutil.RGB `json:"colors"`
}

// Archive is a project packed into a single zip file. While open, its
// contents live in a temporary directory whose data folder is the project's
// data root.
type Archive struct {
	Path    string
	Project *File

	tempDir string
}

// IsArchive reports whether path names a project archive rather than a
// project file.
func IsArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ArchiveExtension)
}

// NewArchive copies the layer folders of p into a fresh temporary directory
// and returns an archive that will be written to archivePath. Nothing is
// written until Write.
func NewArchive(archivePath string, p *File) (*Archive, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	tempDir, err := os.MkdirTemp("", "segmate-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	for _, folder := range p.Folders {
		if err := copyFolder(filepath.Join(p.DataRoot, folder), filepath.Join(tempDir, dataDir, folder)); err != nil {
			os.RemoveAll(tempDir)
			return nil, err
		}
	}

	a := &Archive{Path: archivePath, tempDir: tempDir}
	a.Project = &File{
		Version:  version.Version,
		DataRoot: filepath.Join(tempDir, dataDir),
		Folders:  append([]string(nil), p.Folders...),
		Masks:    append([]bool(nil), p.Masks...),
		Editable: append([]bool(nil), p.Editable...),
		Colors:   append([]colorutil.RGB(nil), p.Colors...),
	}
	if err := a.writeMeta(); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}
	return a, nil
}

// OpenArchive extracts the archive at path into a temporary directory.
func OpenArchive(path string) (*Archive, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer r.Close()

	tempDir, err := os.MkdirTemp("", "segmate-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	for _, f := range r.File {
		if err := extract(f, tempDir); err != nil {
			os.RemoveAll(tempDir)
			return nil, err
		}
	}

	data, err := os.ReadFile(filepath.Join(tempDir, metaName))
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("%w: archive has no meta: %v", ErrInvalidProject, err)
	}
	var meta archiveMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("%w: archive meta: %v", ErrInvalidProject, err)
	}

	p := &File{
		Version:  meta.Version,
		DataRoot: filepath.Join(tempDir, dataDir),
		Folders:  meta.Layers,
		Masks:    meta.Masks,
		Editable: meta.Editable,
		Colors:   meta.Colors,
	}
	if err := p.Validate(); err != nil {
		os.RemoveAll(tempDir)
		return nil, err
	}

	log.Printf("Project: opened archive %s (%d layers)", path, len(p.Folders))
	return &Archive{Path: path, Project: p, tempDir: tempDir}, nil
}

func extract(f *zip.File, dir string) error {
	target := filepath.Join(dir, filepath.FromSlash(f.Name))
	if !strings.HasPrefix(target, filepath.Clean(dir)+string(os.PathSeparator)) {
		return fmt.Errorf("%w: archive entry %q escapes the archive", ErrInvalidProject, f.Name)
	}
	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return dst.Close()
}

// DataRoot returns the extracted data directory.
func (a *Archive) DataRoot() string {
	return a.Project.DataRoot
}

func (a *Archive) writeMeta() error {
	meta := archiveMeta{
		Version:  version.Version,
		Layers:   a.Project.Folders,
		Masks:    a.Project.Masks,
		Editable: a.Project.Editable,
		Colors:   a.Project.Colors,
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(a.tempDir, metaName), data, 0644)
}

// Write packs the temporary directory into a new zip next to it and then
// replaces the archive file.
func (a *Archive) Write() error {
	if err := a.writeMeta(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(a.Path), ".segmate-*")
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	tmpName := tmp.Name()

	zw := zip.NewWriter(tmp)
	walkErr := filepath.WalkDir(a.tempDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(a.tempDir, path)
		if err != nil {
			return err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: filepath.ToSlash(rel), Method: zip.Store})
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if walkErr == nil {
		walkErr = zw.Close()
	}
	if closeErr := tmp.Close(); walkErr == nil {
		walkErr = closeErr
	}
	if walkErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write archive: %w", walkErr)
	}

	if err := os.Rename(tmpName, a.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace archive: %w", err)
	}
	log.Printf("Project: wrote archive %s", a.Path)
	return nil
}

// Export copies the data folders to <dir>/<archive name>, replacing an
// existing folder of that name.
func (a *Archive) Export(dir string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(a.Path), filepath.Ext(a.Path))
	target := filepath.Join(dir, name)
	if err := os.RemoveAll(target); err != nil {
		return "", err
	}
	if err := copyFolder(a.DataRoot(), target); err != nil {
		return "", err
	}
	return target, nil
}

// Close removes the temporary directory.
func (a *Archive) Close() error {
	if a.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(a.tempDir)
	a.tempDir = ""
	return err
}

// copyFolder copies the regular files below src into dst.
func copyFolder(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to copy %s: %w", src, err)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
