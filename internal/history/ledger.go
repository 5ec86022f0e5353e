// Package history is the append-only audit ledger of actions taken
// against a package's metadata.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/trustmod/registry/db/models"
	"github.com/trustmod/registry/db/repositories"
	"github.com/trustmod/registry/internal/logging"
)

const (
	ActionCreate   = "CREATE"
	ActionUpdate   = "UPDATE"
	ActionDownload = "DOWNLOAD"
	ActionRate     = "RATE"
)

// Actor is the pre-authorized caller identity attached by the auth
// boundary.
type Actor struct {
	Name    string
	IsAdmin bool
}

type Ledger struct {
	repo *repositories.HistoryRepository
}

func NewLedger(repo *repositories.HistoryRepository) *Ledger {
	return &Ledger{repo: repo}
}

// Append records an action against the package's metadata snapshot.
// It is best-effort: store failures are retried with backoff and then
// logged, never propagated, so a ledger outage cannot roll back an
// otherwise successful operation.
func (l *Ledger) Append(ctx context.Context, actor Actor, pkg models.Package, action string) *models.PackageHistoryEntry {
	if !validAction(action) {
		logging.Log.Errorw("history append refused", "action", action)
		return nil
	}

	entry := &models.PackageHistoryEntry{
		UserName:  actor.Name,
		IsAdmin:   actor.IsAdmin,
		Date:      time.Now().UTC(),
		Name:      pkg.Name,
		Version:   pkg.Version,
		PackageID: pkg.ID,
		Action:    action,
	}

	operation := func() (struct{}, error) {
		return struct{}{}, l.repo.Append(ctx, entry)
	}
	if _, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
	); err != nil {
		logging.Log.Errorw("history append failed",
			"package", pkg.Name, "action", action, "error", err)
		return nil
	}
	return entry
}

func validAction(action string) bool {
	switch action {
	case ActionCreate, ActionUpdate, ActionDownload, ActionRate:
		return true
	}
	return false
}

// List returns the recorded entries for a package name in insertion
// order.
func (l *Ledger) List(ctx context.Context, name string) ([]models.PackageHistoryEntry, error) {
	entries, err := l.repo.ListByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("listing history for %s: %w", name, err)
	}
	return entries, nil
}
