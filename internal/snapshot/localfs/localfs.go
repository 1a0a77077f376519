// Package localfs implements the snapshot.Backend interface over the
// local filesystem, grounded on original_source/Crawler/src/storage/local.rs's
// crash-safety comments (write-to-temp-then-rename) and the teacher's
// own defensive file persistence in internal/telegramreader/auth.go.
package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Backend writes snapshot objects under root/prefix using
// write-to-temp-then-rename for crash safety: a reader can never
// observe a partially written file.
type Backend struct {
	root   string
	prefix string
}

// New builds a filesystem-backed Backend rooted at root, with every
// key namespaced under prefix (e.g. "uRing").
func New(root, prefix string) *Backend {
	return &Backend{root: root, prefix: strings.Trim(prefix, "/")}
}

func (b *Backend) path(key string) string {
	return filepath.Join(b.root, b.prefix, filepath.FromSlash(key))
}

// Put writes data to key via a temp file in the same directory,
// followed by os.Rename, so a crash mid-write never leaves a
// half-written object visible under key.
func (b *Backend) Put(_ context.Context, key string, data []byte, _, _ string) error {
	dest := b.path(key)
	dir := filepath.Dir(dest)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("localfs: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("localfs: create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("localfs: write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("localfs: sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("localfs: close %s: %w", key, err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("localfs: rename into place %s: %w", key, err)
	}

	return nil
}

// Get reads the object at key.
func (b *Backend) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		return nil, fmt.Errorf("localfs: read %s: %w", key, err)
	}
	return data, nil
}

// Exists reports whether key is present.
func (b *Backend) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(b.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("localfs: stat %s: %w", key, err)
}

// List returns every key under prefix, relative to the backend's own
// prefix (not including it), walking the filesystem tree rooted at
// root/prefix/prefix.
func (b *Backend) List(_ context.Context, prefix string) ([]string, error) {
	base := filepath.Join(b.root, b.prefix)
	start := filepath.Join(base, filepath.FromSlash(prefix))

	var keys []string
	err := filepath.Walk(start, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("localfs: list %s: %w", prefix, err)
	}

	sort.Strings(keys)
	return keys, nil
}

// Delete best-effort removes the object at key; a missing key is not
// an error, matching the commit protocol's "best-effort delete
// _IN_PROGRESS" step.
func (b *Backend) Delete(_ context.Context, key string) error {
	if err := os.Remove(b.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("localfs: delete %s: %w", key, err)
	}
	return nil
}
