// Package storage is the durable artifact store: opaque package archives
// addressable by name.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating artifact dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Put streams the artifact to a temp file, hashes it on the way through,
// verifies the written size, and renames into place. Readers never see a
// partial artifact; any failure removes the temp file.
func (s *Store) Put(name string, r io.Reader) (digest string, size int64, err error) {
	finalPath := s.Path(name)
	tempPath := finalPath + ".tmp"

	out, err := os.Create(tempPath)
	if err != nil {
		return "", 0, fmt.Errorf("creating temp artifact: %w", err)
	}

	hash := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, hash), r)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return "", 0, fmt.Errorf("writing artifact %s: %w", name, err)
	}

	if stat, statErr := os.Stat(tempPath); statErr != nil || stat.Size() != written {
		os.Remove(tempPath)
		return "", 0, fmt.Errorf("artifact %s size verification failed", name)
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return "", 0, fmt.Errorf("moving artifact %s into place: %w", name, err)
	}

	return hex.EncodeToString(hash.Sum(nil)), written, nil
}

func (s *Store) ReadAll(name string) ([]byte, error) {
	return os.ReadFile(s.Path(name))
}

func (s *Store) Remove(name string) error {
	err := os.Remove(s.Path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, FileName(name))
}

// FileName flattens a package name to a single path segment. Scoped names
// like @types/node become @types__node.
func FileName(name string) string {
	name = strings.ReplaceAll(name, "/", "__")
	return filepath.Base(name)
}

// Digest hashes artifact bytes the same way Put does, for duplicate
// checks that run before anything is written.
func Digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
