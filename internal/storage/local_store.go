package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/maheshrc27/postflow-suggestions/internal/apperr"
)

type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, publicBaseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: publicBaseURL}
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Exists(ctx context.Context, name string) (bool, error) {
	path, err := s.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	slog.Info(err.Error())
	return false, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
}

// Save writes to a temp file in the same directory and renames it into place,
// so readers never observe a partial image.
func (s *LocalStore) Save(ctx context.Context, name string, body io.Reader, contentType string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".tmp-*")
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		slog.Info(err.Error())
		return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}
	return nil
}

func (s *LocalStore) URL(name string) string {
	return joinURL(s.baseURL, name)
}

func (s *LocalStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name[0] == '.' {
		return "", fmt.Errorf("%w: invalid file name %q", apperr.ErrStorage, name)
	}
	return filepath.Join(s.dir, name), nil
}
