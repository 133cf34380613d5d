package docfill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	if err := store.Store(ctx, "out/report.docx", []byte("payload")); err != nil {
		t.Fatalf("store: %v", err)
	}

	ok, err := store.Exists(ctx, "out/report.docx")
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v; want true", ok, err)
	}

	data, err := store.Fetch(ctx, "out/report.docx")
	if err != nil || string(data) != "payload" {
		t.Fatalf("fetch = %q, %v", data, err)
	}
}

func TestFileStoreMissingObject(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	if _, err := store.Fetch(ctx, "nope.docx"); !os.IsNotExist(err) {
		t.Errorf("fetch of missing object = %v, want not-exist", err)
	}
	ok, err := store.Exists(ctx, "nope.docx")
	if err != nil || ok {
		t.Errorf("exists = %v, %v; want false", ok, err)
	}
}

func TestFileStoreRejectsEscapingKeys(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "root"))
	ctx := context.Background()

	for _, key := range []string{"../outside.docx", "/etc/passwd", "a/../../b"} {
		if err := store.Store(ctx, key, []byte("x")); err == nil {
			t.Errorf("key %q was accepted", key)
		}
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := []byte("abc")
	if err := store.Store(ctx, "k", original); err != nil {
		t.Fatalf("store: %v", err)
	}
	original[0] = 'z'

	data, err := store.Fetch(ctx, "k")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(data) != "abc" {
		t.Errorf("stored data was aliased to the caller's slice: %q", data)
	}
}

func TestUniqueOutputKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// Free key comes back unchanged.
	key, err := uniqueOutputKey(ctx, store, "IDS_Generated.docx", 8)
	if err != nil || key != "IDS_Generated.docx" {
		t.Fatalf("key = %q, %v", key, err)
	}

	// A taken key probes numeric suffixes before the extension.
	store.Store(ctx, "IDS_Generated.docx", []byte("x"))
	key, err = uniqueOutputKey(ctx, store, "IDS_Generated.docx", 8)
	if err != nil || key != "IDS_Generated_2.docx" {
		t.Fatalf("key = %q, %v; want IDS_Generated_2.docx", key, err)
	}

	store.Store(ctx, "IDS_Generated_2.docx", []byte("x"))
	key, err = uniqueOutputKey(ctx, store, "IDS_Generated.docx", 8)
	if err != nil || key != "IDS_Generated_3.docx" {
		t.Fatalf("key = %q, %v; want IDS_Generated_3.docx", key, err)
	}
}

func TestUniqueOutputKeyExhaustedWindowUsesTimestamp(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Store(ctx, "out.docx", []byte("x"))
	for i := 2; i < 10; i++ {
		store.Store(ctx, fmt.Sprintf("out_%d.docx", i), []byte("x"))
	}

	key, err := uniqueOutputKey(ctx, store, "out.docx", 8)
	if err != nil {
		t.Fatalf("uniqueOutputKey: %v", err)
	}
	if len(key) <= len("out_.docx") || key == "out.docx" {
		t.Errorf("key = %q, want timestamped fallback", key)
	}
	if got, _ := store.Exists(ctx, key); got {
		t.Errorf("fallback key %q collides", key)
	}
}

func TestSplitKeyExt(t *testing.T) {
	tests := []struct {
		key, base, ext string
	}{
		{"a.docx", "a", ".docx"},
		{"dir/a.docx", "dir/a", ".docx"},
		{"dir.v2/a", "dir.v2/a", ""},
		{"noext", "noext", ""},
	}
	for _, tt := range tests {
		base, ext := splitKeyExt(tt.key)
		if base != tt.base || ext != tt.ext {
			t.Errorf("splitKeyExt(%q) = %q, %q; want %q, %q", tt.key, base, ext, tt.base, tt.ext)
		}
	}
}
