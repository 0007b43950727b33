package db

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Document is a single JSON file holding one collection or singleton.
//
// Reads never fail: a missing file is created from the default, and an
// unreadable or corrupt file degrades to the default with an error log.
// Writes replace the whole file through a temp file and rename.
type Document[T any] struct {
	path   string
	def    func() T
	logger *slog.Logger

	mu sync.Mutex
}

// NewDocument returns a document stored at path. def must return a fresh
// value on each call since callers mutate what Load returns.
func NewDocument[T any](path string, def func() T, logger *slog.Logger) *Document[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Document[T]{path: path, def: def, logger: logger}
}

// Path returns the file backing the document.
func (d *Document[T]) Path() string {
	return d.path
}

// Load returns the current document contents.
func (d *Document[T]) Load() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadLocked()
}

// Save overwrites the document.
func (d *Document[T]) Save(v T) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saveLocked(v)
}

// Update loads the document, applies fn and saves the result while
// holding the document lock. When fn fails nothing is written.
func (d *Document[T]) Update(fn func(*T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := d.loadLocked()
	if err := fn(&v); err != nil {
		return err
	}
	return d.saveLocked(v)
}

func (d *Document[T]) loadLocked() T {
	b, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			v := d.def()
			if err := d.saveLocked(v); err != nil {
				d.logger.Error("write default document", "path", d.path, "error", err)
			}
			return v
		}
		d.logger.Error("read document", "path", d.path, "error", err)
		return d.def()
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return d.def()
	}

	v := d.def()
	if err := json.Unmarshal(b, &v); err != nil {
		d.logger.Error("parse document", "path", d.path, "error", err)
		return d.def()
	}
	return v
}

func (d *Document[T]) saveLocked(v T) error {
	dir := filepath.Dir(d.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &StorageError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Path: d.path, Err: err}
	}
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return &StorageError{Op: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, d.path); err != nil {
		_ = os.Remove(tmp)
		return &StorageError{Op: "rename", Path: d.path, Err: err}
	}
	return nil
}
