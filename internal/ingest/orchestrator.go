// Package ingest wires the full pipeline: a submission of raw content or
// a source URL becomes a deduplicated, identified, scored, and durably
// stored package record with an audit trail.
package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trustmod/registry/db/models"
	"github.com/trustmod/registry/db/repositories"
	"github.com/trustmod/registry/internal/apierr"
	"github.com/trustmod/registry/internal/fetch"
	"github.com/trustmod/registry/internal/history"
	"github.com/trustmod/registry/internal/logging"
	"github.com/trustmod/registry/internal/manifest"
	"github.com/trustmod/registry/internal/rating"
	"github.com/trustmod/registry/internal/resolver"
	"github.com/trustmod/registry/internal/storage"
)

// reservedName is the wildcard token used by the query surface and never
// admissible as a package name.
const reservedName = "*"

// Submission is the upload request body. Exactly one of Content and URL
// is meaningful.
type Submission struct {
	Content   string
	URL       string
	JSProgram string
}

// Result is a fully materialized package: the persisted record plus the
// artifact bytes rehydrated for the response.
type Result struct {
	Package models.Package
	Content string
}

type Orchestrator struct {
	packages  *repositories.PackageRepository
	ratings   *repositories.RatingRepository
	ledger    *history.Ledger
	resolver  *resolver.Resolver
	engine    *rating.Engine
	store     *storage.Store
	fetcher   *fetch.Fetcher
	githubAPI string
}

func New(
	packages *repositories.PackageRepository,
	ratings *repositories.RatingRepository,
	ledger *history.Ledger,
	res *resolver.Resolver,
	engine *rating.Engine,
	store *storage.Store,
	fetcher *fetch.Fetcher,
	githubAPI string,
) *Orchestrator {
	return &Orchestrator{
		packages:  packages,
		ratings:   ratings,
		ledger:    ledger,
		resolver:  res,
		engine:    engine,
		store:     store,
		fetcher:   fetcher,
		githubAPI: githubAPI,
	}
}

// Ingest runs the admission state machine. Every step gates the next;
// nothing is committed on any failure path.
func (o *Orchestrator) Ingest(ctx context.Context, actor history.Actor, sub Submission) (*Result, error) {
	if sub.Content == "" && sub.URL == "" {
		return nil, apierr.InvalidContent("Either Content or URL must be set")
	}
	if sub.Content != "" && sub.URL != "" {
		return nil, apierr.InvalidContent("Content and URL are mutually exclusive")
	}

	var (
		raw []byte
		m   *manifest.Manifest
		err error
	)
	sourceURL := sub.URL

	if sub.Content != "" {
		raw, err = base64.StdEncoding.DecodeString(sub.Content)
		if err != nil {
			return nil, apierr.InvalidContent("Content is not valid base64")
		}

		// Duplicate check by content identity.
		if err := o.checkNoMatch(ctx, func() (models.Package, error) {
			return o.packages.FindByContentDigest(ctx, storage.Digest(raw))
		}); err != nil {
			return nil, err
		}

		m, err = manifest.Parse(raw)
		if err != nil {
			logging.Log.Infow("upload rejected, unreadable manifest", "error", err)
			return nil, apierr.InvalidContent("Invalid Content")
		}
		if m.Homepage == "" {
			logging.Log.Infow("upload rejected, manifest has no homepage", "name", m.Name)
			return nil, apierr.InvalidContent("Invalid Content (could not find url)")
		}
		sourceURL = m.Homepage
	} else {
		// Duplicate check by submitted URL.
		if err := o.checkNoMatch(ctx, func() (models.Package, error) {
			return o.packages.FindByURL(ctx, sub.URL)
		}); err != nil {
			return nil, err
		}
	}

	canonical := o.resolver.ResolveSourceURL(ctx, sourceURL)

	md, err := manifest.Resolve(ctx, o.resolver, canonical, m)
	if err != nil {
		logging.Log.Infow("upload rejected, unresolvable metadata", "url", canonical)
		return nil, apierr.InvalidContentOrURL()
	}
	if md.Name == reservedName {
		logging.Log.Infow("upload rejected, reserved name")
		return nil, apierr.InvalidContentOrURL()
	}

	// Name collision is distinct from the content/URL match above: two
	// different submissions can resolve to the same logical name.
	if err := o.checkNoMatch(ctx, func() (models.Package, error) {
		return o.packages.FindByName(ctx, md.Name)
	}); err != nil {
		return nil, err
	}

	var deps map[string]string
	if m != nil {
		deps = m.Dependencies
	}
	pkgRating := o.engine.Score(ctx, canonical, deps)
	if !o.engine.Admit(pkgRating.NetScore) {
		logging.Log.Infow("upload rejected by rating gate",
			"name", md.Name, "net_score", pkgRating.NetScore)
		return nil, apierr.DisqualifiedRating()
	}

	if raw == nil {
		raw, err = o.fetchContent(ctx, canonical)
		if err != nil {
			logging.Log.Infow("upload rejected, content fetch failed",
				"url", canonical, "error", err)
			return nil, apierr.InvalidContentOrURL()
		}
	}

	contentRef := storage.FileName(md.Name) + ".zip"
	digest, size, err := o.store.Put(contentRef, bytes.NewReader(raw))
	if err != nil {
		return nil, apierr.Storage(err)
	}

	pkg := models.Package{
		ID:            uuid.NewString(),
		Name:          md.Name,
		Version:       md.Version,
		URL:           canonical,
		ContentRef:    contentRef,
		ContentDigest: digest,
		JSProgram:     sub.JSProgram,
	}
	pkgRating.PackageID = pkg.ID

	if err := o.packages.CreateWithRating(ctx, &pkg, &pkgRating); err != nil {
		// The artifact must not outlive a failed commit.
		if removeErr := o.store.Remove(contentRef); removeErr != nil {
			logging.Log.Errorw("orphaned artifact cleanup failed",
				"artifact", contentRef, "error", removeErr)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent ingestion won the name; the unique index is
			// the final arbiter.
			return nil, apierr.AlreadyExists()
		}
		return nil, apierr.Storage(err)
	}

	logging.Log.Infow("package ingested",
		"name", pkg.Name, "version", pkg.Version, "id", pkg.ID, "bytes", size)

	o.ledger.Append(ctx, actor, pkg, history.ActionCreate)

	return &Result{
		Package: pkg,
		Content: base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// checkNoMatch converts "record found" into AlreadyExists and passes real
// store failures through; only a clean miss lets ingestion continue.
func (o *Orchestrator) checkNoMatch(ctx context.Context, find func() (models.Package, error)) error {
	_, err := find()
	switch {
	case err == nil:
		return apierr.AlreadyExists()
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return apierr.Storage(err)
	}
}

// fetchContent materializes artifact bytes through the hosting
// provider's archive API. Only repository URLs can be materialized.
func (o *Orchestrator) fetchContent(ctx context.Context, canonical string) ([]byte, error) {
	if !strings.HasPrefix(canonical, "https://github.com/") {
		return nil, fmt.Errorf("cannot materialize content from %s", canonical)
	}
	owner, repo, ok := resolver.RepoPath(canonical)
	if !ok {
		return nil, fmt.Errorf("no owner/repo segments in %s", canonical)
	}
	return o.fetcher.Zipball(ctx, o.githubAPI, owner, repo)
}
