package db

import (
	"errors"
	"fmt"
	"os"

	"github.com/NayabMushtaq/NayMish-blog/internal/models"
)

// BootstrapAdmin records the configured admin secret in admin.json the
// first time the data directory is used. An existing file is left alone.
func (s *Store) BootstrapAdmin(password string) error {
	_, err := os.Stat(s.admin.Path())
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat admin file: %w", err)
	}
	if err := s.admin.Save(models.AdminFile{Password: password}); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	s.logger.Info("admin file created", "path", s.admin.Path())
	return nil
}
