package metrics

import (
	"fmt"
	"os"
	"sync"
)

// File appends to path, creating it on the first Write. A run that never
// records a metric leaves no file behind.
type File struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

// NewFile returns a File for path without touching the filesystem.
func NewFile(path string) *File {
	return &File{path: path}
}

func (w *File) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return 0, fmt.Errorf("failed to open metrics file: %w", err)
		}
		w.f = f
	}
	return w.f.Write(p)
}

// Sync flushes the file if it was opened.
func (w *File) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	return w.f.Sync()
}

func (w *File) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
