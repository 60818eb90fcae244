package app

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"
)

// HotReloader polls the running binary and any other registered files for
// modification. A newer binary stops the watcher and calls OnNewBinary, so a
// restart can be offered after recompilation. Other files (the open project
// file) call OnFileChanged and keep being watched.
type HotReloader struct {
	mu            sync.Mutex
	execPath      string
	files         map[string]time.Time // path -> baseline mtime
	checkInterval time.Duration
	stopCh        chan struct{}

	onNewBinary   func()
	onFileChanged func(path string)
	onTick        func()
}

// NewHotReloader creates a reloader that watches the current executable.
// Returns nil if the executable path cannot be determined.
func NewHotReloader(checkInterval time.Duration) *HotReloader {
	execPath, err := os.Executable()
	if err != nil {
		return nil
	}
	// go build replaces the file; follow the symlink to what actually runs.
	if realPath, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = realPath
	}

	h := &HotReloader{
		execPath:      execPath,
		files:         make(map[string]time.Time),
		checkInterval: checkInterval,
		stopCh:        make(chan struct{}),
	}
	if err := h.Watch(execPath); err != nil {
		return nil
	}
	return h
}

// Watch adds path with its current modification time as the baseline.
func (h *HotReloader) Watch(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.files[path] = info.ModTime()
	h.mu.Unlock()
	return nil
}

// Unwatch removes path. The executable cannot be removed.
func (h *HotReloader) Unwatch(path string) {
	if path == h.execPath {
		return
	}
	h.mu.Lock()
	delete(h.files, path)
	h.mu.Unlock()
}

// Watched returns the watched paths, sorted.
func (h *HotReloader) Watched() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	paths := make([]string, 0, len(h.files))
	for p := range h.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// OnNewBinary sets the callback to invoke when a newer binary is detected.
// Callbacks run on the watcher goroutine. They must not touch the scene or
// the exported State fields; State.Snapshot is safe.
func (h *HotReloader) OnNewBinary(callback func()) {
	h.onNewBinary = callback
}

// OnFileChanged sets the callback for watched files other than the binary.
func (h *HotReloader) OnFileChanged(callback func(path string)) {
	h.onFileChanged = callback
}

// OnTick sets a callback invoked on every check interval.
func (h *HotReloader) OnTick(callback func()) {
	h.onTick = callback
}

// Start begins watching in a background goroutine.
func (h *HotReloader) Start() {
	h.stopCh = make(chan struct{})
	go h.watchLoop(h.stopCh)
}

// Stop stops the watcher goroutine.
func (h *HotReloader) Stop() {
	close(h.stopCh)
}

func (h *HotReloader) watchLoop(stop chan struct{}) {
	ticker := time.NewTicker(h.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if h.onTick != nil {
				h.onTick()
			}
			for _, path := range h.Changed() {
				if path == h.execPath {
					if h.onNewBinary != nil {
						h.onNewBinary()
						return
					}
					continue
				}
				h.resetFile(path)
				if h.onFileChanged != nil {
					h.onFileChanged(path)
				}
			}
		}
	}
}

// Changed returns the watched paths modified since their baseline. Files
// that cannot be stat'ed are skipped.
func (h *HotReloader) Changed() []string {
	var changed []string
	for _, path := range h.Watched() {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		h.mu.Lock()
		base := h.files[path]
		h.mu.Unlock()
		if info.ModTime().After(base) {
			changed = append(changed, path)
		}
	}
	return changed
}

// ExecPath returns the path to the current executable.
func (h *HotReloader) ExecPath() string {
	return h.execPath
}

// StartupTime returns the binary's modification time baseline.
func (h *HotReloader) StartupTime() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.files[h.execPath]
}

// ResetBaseline moves the binary's baseline to its current modification
// time. Call it when the user declines a restart.
func (h *HotReloader) ResetBaseline() {
	h.resetFile(h.execPath)
}

func (h *HotReloader) resetFile(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	h.mu.Lock()
	if _, ok := h.files[path]; ok {
		h.files[path] = info.ModTime()
	}
	h.mu.Unlock()
}

// Restart replaces the current process with a new instance of the binary.
// This function does not return on success.
func (h *HotReloader) Restart() error {
	return RestartProcess(h.execPath)
}

// RestartProcess replaces the current process with execPath, keeping the
// command line and environment.
func RestartProcess(execPath string) error {
	return syscall.Exec(execPath, os.Args, os.Environ())
}
