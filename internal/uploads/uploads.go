// Package uploads stores admin-uploaded files on disk and hands back the
// public path they are served under.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// PublicPrefix is the URL path uploaded files are served from.
const PublicPrefix = "/uploads/"

type Store struct {
	dir     string
	logger  *slog.Logger
	newName func() string
}

func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:     dir,
		logger:  logger,
		newName: func() string { return strings.ToLower(ulid.Make().String()) },
	}
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save copies the uploaded file into the store and returns its public path.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := s.newName() + extension(fh.Filename)
	if err := s.write(name, src); err != nil {
		return "", err
	}
	s.logger.Info("file uploaded", "name", name, "original", fh.Filename, "size", fh.Size)
	return PublicPrefix + name, nil
}

// SaveAll saves every file and returns their public paths in order. Files
// written before a failure are left in place.
func (s *Store) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	out := make([]string, 0, len(files))
	for _, fh := range files {
		p, err := s.Save(fh)
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Remove deletes files previously returned by Save. Paths that do not
// point at a file directly inside the store are ignored.
func (s *Store) Remove(paths ...string) {
	for _, p := range paths {
		name, ok := strings.CutPrefix(p, PublicPrefix)
		if !ok || name == "" || name == ".." || name != filepath.Base(name) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("remove upload", "name", name, "error", err)
		}
	}
}

func (s *Store) write(name string, src io.Reader) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	dst := filepath.Join(s.dir, name)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("close upload: %w", err)
	}
	return nil
}

// extension returns the lowercase extension of the client file name,
// ignoring anything that is not a plain dotted suffix.
func extension(filename string) string {
	ext := strings.ToLower(path.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
