package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DirStore serves objects from a local directory. This backs file
// connections that point at a folder on disk.
type DirStore struct {
	root string
}

func NewDirStore(root string) (*DirStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("directory is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat source directory %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %q is not a directory", root)
	}
	return &DirStore{root: root}, nil
}

func (d *DirStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (ObjectInfo, error) {
	local, err := d.localPath(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return ObjectInfo{}, fmt.Errorf("create directory for %q: %w", key, err)
	}
	file, err := os.Create(local)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create file %q: %w", local, err)
	}
	size, err := io.Copy(file, body)
	if err != nil {
		_ = file.Close()
		return ObjectInfo{}, fmt.Errorf("write file %q: %w", local, err)
	}
	if err := file.Close(); err != nil {
		return ObjectInfo{}, fmt.Errorf("close file %q: %w", local, err)
	}
	return ObjectInfo{Key: key, Size: size}, nil
}

func (d *DirStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	local, err := d.localPath(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(local)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open file %q: %w", local, err)
	}
	return file, nil
}

func (d *DirStore) Stat(_ context.Context, key string) (ObjectInfo, error) {
	local, err := d.localPath(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	info, err := os.Stat(local)
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, fmt.Errorf("stat file %q: %w", local, err)
	}
	return ObjectInfo{Key: key, Size: info.Size(), LastModified: info.ModTime()}, nil
}

func (d *DirStore) localPath(key string) (string, error) {
	key = strings.TrimSpace(strings.TrimPrefix(key, "/"))
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	cleaned := path.Clean(key)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(d.root, filepath.FromSlash(cleaned)), nil
}
