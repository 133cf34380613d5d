package docfill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// BlobStore is the object storage the service reads templates from and
// writes filled documents to. Keys are slash-separated paths within the
// store's namespace.
type BlobStore interface {
	// Fetch returns the object stored under key. A missing object is an
	// error satisfying os.IsNotExist via errors unwrapping where the backend
	// supports it.
	Fetch(ctx context.Context, key string) ([]byte, error)
	// Store writes the object under key, replacing any existing object.
	Store(ctx context.Context, key string, data []byte) error
	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// FileStore is a BlobStore backed by a directory tree.
type FileStore struct {
	root string
}

// NewFileStore creates a filesystem-backed store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// resolve maps a store key to a filesystem path, rejecting keys that would
// escape the root.
func (s *FileStore) resolve(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid store key: %s", key)
	}
	return filepath.Join(s.root, cleaned), nil
}

func (s *FileStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (s *FileStore) Store(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// MemoryStore is an in-memory BlobStore, safe for concurrent use. It backs
// tests and ad-hoc runs that should not touch the filesystem.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s: %w", key, os.ErrNotExist)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (s *MemoryStore) Store(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.mu.Lock()
	s.objects[key] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// uniqueOutputKey returns key if it is free, otherwise probes numeric
// suffixes (name_2, name_3, ...) within the configured window before giving
// up and appending a timestamp, which is unique for practical purposes. The
// suffix goes before the file extension.
func uniqueOutputKey(ctx context.Context, store BlobStore, key string, window int) (string, error) {
	taken, err := store.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !taken {
		return key, nil
	}

	base, ext := splitKeyExt(key)
	for i := 2; i < window+2; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		taken, err := store.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	stamp := time.Now().UTC().Format("20060102T150405")
	return fmt.Sprintf("%s_%s%s", base, stamp, ext), nil
}

// splitKeyExt splits a store key into its stem and extension. Only the final
// path segment is searched for a dot, so dotted directories do not confuse
// the split.
func splitKeyExt(key string) (string, string) {
	slash := strings.LastIndex(key, "/")
	dot := strings.LastIndex(key, ".")
	if dot <= slash {
		return key, ""
	}
	return key[:dot], key[dot:]
}
