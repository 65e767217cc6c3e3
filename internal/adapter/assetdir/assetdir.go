// Package assetdir stores compressed assets as flat files in one directory.
package assetdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwygoda/imagepress/internal/domain"
)

// Store implements domain.AssetStore on the local filesystem.
type Store struct {
	dir string
}

// New creates the asset directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create asset dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes one asset under the given filename.
func (s *Store) Save(filename string, data []byte) error {
	if !validName(filename) {
		return fmt.Errorf("invalid asset filename %q", filename)
	}
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write asset %s: %w", filename, err)
	}
	return nil
}

// Path resolves a stored filename to its filesystem path. Names that
// could escape the directory resolve to domain.ErrAssetNotFound rather
// than an error of their own.
func (s *Store) Path(filename string) (string, error) {
	if !validName(filename) {
		return "", domain.ErrAssetNotFound
	}
	path := filepath.Join(s.dir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", domain.ErrAssetNotFound
	}
	return path, nil
}

func validName(filename string) bool {
	if filename == "" || filename == "." || filename == ".." {
		return false
	}
	return !strings.ContainsAny(filename, `/\`)
}
