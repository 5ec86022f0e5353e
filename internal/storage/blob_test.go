package storage

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestPutAndReadAll(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	body := []byte("artifact bytes")
	digest, size, err := store.Put("lodash", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if size != int64(len(body)) {
		t.Fatalf("expected size %d, got %d", len(body), size)
	}
	if digest != Digest(body) {
		t.Fatalf("put digest %s does not match Digest()", digest)
	}

	got, err := store.ReadAll("lodash")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("read back %q, want %q", got, body)
	}
}

func TestPutLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, _, err := store.Put("pkg", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("put: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestRemoveMissingIsNoError(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Remove("never-stored"); err != nil {
		t.Fatalf("remove of missing artifact: %v", err)
	}
}

func TestRemoveDeletesArtifact(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, _, err := store.Put("pkg", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Remove("pkg"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := store.ReadAll("pkg"); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist after remove, got %v", err)
	}
}

func TestFileNameFlattensScopedNames(t *testing.T) {
	if got := FileName("@types/node"); got != "@types__node" {
		t.Fatalf("unexpected file name %s", got)
	}
	if got := FileName("lodash"); got != "lodash" {
		t.Fatalf("unexpected file name %s", got)
	}
}
