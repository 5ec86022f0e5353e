package manifest

import (
	"context"
	"errors"

	"github.com/trustmod/registry/internal/resolver"
)

// ErrIncomplete means name or version stayed empty after every fallback;
// no package may be admitted without both.
var ErrIncomplete = errors.New("package name or version could not be resolved")

// Metadata is the resolved identity of a submission.
type Metadata struct {
	Name    string
	Version string
}

// Resolve produces authoritative metadata. A manifest carrying both name
// and version wins outright; otherwise the repository name and release
// list of the canonical URL decide.
func Resolve(ctx context.Context, r *resolver.Resolver, canonicalURL string, m *Manifest) (Metadata, error) {
	if m != nil && m.Name != "" && m.Version != "" {
		return Metadata{Name: m.Name, Version: m.Version}, nil
	}

	md := Metadata{
		Name:    resolver.RepoName(canonicalURL),
		Version: r.ResolveVersion(ctx, canonicalURL),
	}
	if md.Name == "" || md.Version == "" {
		return Metadata{}, ErrIncomplete
	}
	return md, nil
}
