package stats

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWalkArtifacts(t *testing.T) {
	dir := t.TempDir()
	for name, size := range map[string]int{"a.zip": 10, "b.zip": 20} {
		if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	count, bytes := walkArtifacts(dir)
	if count != 2 || bytes != 30 {
		t.Fatalf("walkArtifacts = %d files, %d bytes; want 2, 30", count, bytes)
	}
}

func TestUpdateWithoutRepository(t *testing.T) {
	s := &RegistryStats{}
	s.update(t.TempDir(), nil)

	artifactCount, artifactBytes, packageCount, lastUpdated := s.Get()
	if artifactCount != 0 || artifactBytes != 0 || packageCount != 0 {
		t.Fatalf("expected zero stats, got %d/%d/%d", artifactCount, artifactBytes, packageCount)
	}
	if lastUpdated.IsZero() {
		t.Fatal("LastUpdated not set")
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		512:        "512 B",
		1024:       "1.00 KB",
		1536:       "1.50 KB",
		1048576:    "1.00 MB",
		5368709120: "5.00 GB",
	}
	for in, want := range cases {
		if got := FormatBytes(in); got != want {
			t.Errorf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
