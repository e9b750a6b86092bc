package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jaevor/go-nanoid"
)

// LocalStorage keeps one file per blob directly under basePath.
type LocalStorage struct {
	basePath string
	tempName func() string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}

	tempName, err := nanoid.Standard(12)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	return &LocalStorage{basePath: basePath, tempName: tempName}, nil
}

func (ls *LocalStorage) pathFor(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(ls.basePath, key), nil
}

// Save writes to a temporary sibling and renames it into place, so readers
// never observe a partially written blob.
func (ls *LocalStorage) Save(ctx context.Context, key string, data io.Reader) error {
	filePath, err := ls.pathFor(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmpPath := filepath.Join(ls.basePath, ".tmp-"+ls.tempName())
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err = io.Copy(file, data); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	if err = file.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err = os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (ls *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	filePath, err := ls.pathFor(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("blob %s: %w", key, ErrBlobNotFound)
		}
		return nil, err
	}

	return file, nil
}

func (ls *LocalStorage) Delete(ctx context.Context, key string) error {
	filePath, err := ls.pathFor(key)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blob %s: %w", key, ErrBlobNotFound)
	}

	return err
}

func (ls *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	filePath, err := ls.pathFor(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(filePath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
