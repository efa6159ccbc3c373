package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lexilocal/lexilocal/internal/core/domain"
)

// Storage keeps raw uploaded files on the local filesystem under a single
// root directory. Keys are sanitized to their base name so a crafted key
// cannot escape the root.
type Storage struct {
	root string
}

func New(root string) (*Storage, error) {
	if strings.TrimSpace(root) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "localfs", fmt.Errorf("root directory is empty"))
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "localfs", err)
	}
	return &Storage{root: root}, nil
}

func (s *Storage) Save(ctx context.Context, key string, data io.Reader) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "save object", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return domain.WrapError(domain.ErrPersistence, "save object", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.WrapError(domain.ErrPersistence, "save object", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return domain.WrapError(domain.ErrPersistence, "save object", err)
	}
	return nil
}

func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "open object", fmt.Errorf("key %q", key))
		}
		return nil, domain.WrapError(domain.ErrPersistence, "open object", err)
	}
	return file, nil
}

// Delete removes the object. A missing key is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.WrapError(domain.ErrPersistence, "delete object", err)
	}
	return nil
}

func (s *Storage) path(key string) (string, error) {
	base := filepath.Base(strings.TrimSpace(key))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", domain.WrapError(domain.ErrInvalidInput, "object key", fmt.Errorf("key %q", key))
	}
	return filepath.Join(s.root, base), nil
}
