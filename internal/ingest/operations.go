package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"

	"gorm.io/gorm"

	"github.com/trustmod/registry/db/models"
	"github.com/trustmod/registry/internal/apierr"
	"github.com/trustmod/registry/internal/history"
	"github.com/trustmod/registry/internal/logging"
)

// Get returns a package with its content rehydrated from the artifact
// store and records the download.
func (o *Orchestrator) Get(ctx context.Context, actor history.Actor, id string) (*Result, error) {
	pkg, err := o.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	raw, err := o.store.ReadAll(pkg.ContentRef)
	if err != nil {
		return nil, apierr.Storage(err)
	}

	o.ledger.Append(ctx, actor, pkg, history.ActionDownload)

	return &Result{
		Package: pkg,
		Content: base64.StdEncoding.EncodeToString(raw),
	}, nil
}

// Rate returns the rating computed at ingestion time.
func (o *Orchestrator) Rate(ctx context.Context, actor history.Actor, id string) (models.PackageRating, error) {
	pkg, err := o.findByID(ctx, id)
	if err != nil {
		return models.PackageRating{}, err
	}

	r, err := o.ratings.GetByPackageID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PackageRating{}, apierr.NotFound()
	}
	if err != nil {
		return models.PackageRating{}, apierr.Storage(err)
	}

	o.ledger.Append(ctx, actor, pkg, history.ActionRate)
	return r, nil
}

// Update replaces the stored content of an existing package. Name,
// version, and ID in the request must match the record.
func (o *Orchestrator) Update(ctx context.Context, actor history.Actor, id, name, version string, sub Submission) error {
	pkg, err := o.findByID(ctx, id)
	if err != nil {
		return err
	}
	if pkg.Name != name || pkg.Version != version {
		return apierr.NotFound()
	}
	if sub.Content == "" {
		return apierr.InvalidContent("Content must be set")
	}

	raw, err := base64.StdEncoding.DecodeString(sub.Content)
	if err != nil {
		return apierr.InvalidContent("Content is not valid base64")
	}

	digest, _, err := o.store.Put(pkg.ContentRef, bytes.NewReader(raw))
	if err != nil {
		return apierr.Storage(err)
	}
	if err := o.packages.UpdateContent(ctx, id, pkg.ContentRef, digest); err != nil {
		return apierr.Storage(err)
	}

	o.ledger.Append(ctx, actor, pkg, history.ActionUpdate)
	return nil
}

// Delete removes the record, its rating, and the stored artifact. The
// history ledger keeps its entries.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	pkg, err := o.findByID(ctx, id)
	if err != nil {
		return err
	}
	return o.deletePackage(ctx, pkg)
}

// DeleteByName is Delete keyed by resolved package name.
func (o *Orchestrator) DeleteByName(ctx context.Context, name string) error {
	pkg, err := o.packages.FindByName(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierr.NotFound()
	}
	if err != nil {
		return apierr.Storage(err)
	}
	return o.deletePackage(ctx, pkg)
}

// HistoryByName returns the audit trail for a package name.
func (o *Orchestrator) HistoryByName(ctx context.Context, name string) ([]models.PackageHistoryEntry, error) {
	entries, err := o.ledger.List(ctx, name)
	if err != nil {
		return nil, apierr.Storage(err)
	}
	if len(entries) == 0 {
		return nil, apierr.NotFound()
	}
	return entries, nil
}

func (o *Orchestrator) findByID(ctx context.Context, id string) (models.Package, error) {
	pkg, err := o.packages.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Package{}, apierr.NotFound()
	}
	if err != nil {
		return models.Package{}, apierr.Storage(err)
	}
	return pkg, nil
}

func (o *Orchestrator) deletePackage(ctx context.Context, pkg models.Package) error {
	if err := o.packages.DeleteWithRating(ctx, pkg.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound()
		}
		return apierr.Storage(err)
	}
	if err := o.store.Remove(pkg.ContentRef); err != nil {
		logging.Log.Errorw("artifact removal failed",
			"artifact", pkg.ContentRef, "error", err)
	}
	return nil
}
