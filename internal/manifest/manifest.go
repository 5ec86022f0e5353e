// Package manifest reads the self-declared descriptor out of an uploaded
// archive and resolves authoritative package metadata.
package manifest

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

var (
	// ErrNoManifest means the archive carries no package.json at all,
	// as opposed to a manifest that is present but unreadable.
	ErrNoManifest = errors.New("archive has no package.json")
)

// Manifest holds the descriptor fields the pipeline consumes. All fields
// are optional in the source document; absent or mistyped values are
// empty here.
type Manifest struct {
	Name         string
	Version      string
	Homepage     string
	Dependencies map[string]string
}

// Parse opens the uploaded zip archive and decodes the shallowest
// package.json outside node_modules.
func Parse(raw []byte) (*Manifest, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	var best *zip.File
	bestDepth := -1
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, "package.json") {
			continue
		}
		if base := f.Name[strings.LastIndex(f.Name, "/")+1:]; base != "package.json" {
			continue
		}
		if strings.Contains(f.Name, "node_modules/") {
			continue
		}
		depth := strings.Count(f.Name, "/")
		if bestDepth == -1 || depth < bestDepth {
			best = f
			bestDepth = depth
		}
	}
	if best == nil {
		return nil, ErrNoManifest
	}

	rc, err := best.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", best.Name, err)
	}
	defer rc.Close()

	var doc map[string]interface{}
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", best.Name, err)
	}

	return &Manifest{
		Name:         stringField(doc, "name"),
		Version:      stringField(doc, "version"),
		Homepage:     stringField(doc, "homepage"),
		Dependencies: stringMapField(doc, "dependencies"),
	}, nil
}

// stringField reads an optional string; a missing key or a non-string
// value both read as absent.
func stringField(doc map[string]interface{}, key string) string {
	if s, ok := doc[key].(string); ok {
		return s
	}
	return ""
}

func stringMapField(doc map[string]interface{}, key string) map[string]string {
	raw, ok := doc[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
