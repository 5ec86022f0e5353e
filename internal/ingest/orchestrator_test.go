package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/trustmod/registry/config"
	"github.com/trustmod/registry/db/repositories"
	"github.com/trustmod/registry/initializers"
	"github.com/trustmod/registry/internal/apierr"
	"github.com/trustmod/registry/internal/fetch"
	"github.com/trustmod/registry/internal/history"
	"github.com/trustmod/registry/internal/npmreg"
	"github.com/trustmod/registry/internal/rating"
	"github.com/trustmod/registry/internal/resolver"
	"github.com/trustmod/registry/internal/storage"
)

var testActor = history.Actor{Name: "ece30861defaultadminuser", IsAdmin: true}

type harness struct {
	orch       *Orchestrator
	packages   *repositories.PackageRepository
	ledger     *history.Ledger
	artifacts  string
	githubHits *int
}

// newHarness wires the pipeline against sqlite, a local artifact dir, and
// a stub source host serving releases and zipballs.
func newHarness(t *testing.T, enforceGate bool) *harness {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "registry.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := initializers.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	hits := 0
	github := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		switch {
		case strings.HasSuffix(r.URL.Path, "/releases"):
			w.Write([]byte(`[{"tag_name":"v2.0.0"}]`))
		case strings.HasSuffix(r.URL.Path, "/zipball"):
			w.Write(zipArchive(t, map[string]string{"repo-main/index.js": "module.exports = 1"}))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(github.Close)

	npm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"repository":{"url":"git+https://github.com/acme/widget.git"}}`))
	}))
	t.Cleanup(npm.Close)

	artifacts := t.TempDir()
	store, err := storage.New(artifacts)
	if err != nil {
		t.Fatalf("artifact store: %v", err)
	}

	cfg := config.RatingConfig{
		EnforceGate: enforceGate,
		MinNetScore: 0.5,
		Weights: config.RatingWeights{
			BusFactor: 1, Correctness: 1, RampUp: 1, ResponsiveMaintainer: 1,
			LicenseScore: 1, GoodPinningPractice: 1, GoodEngineeringProcess: 1,
		},
	}

	packages := repositories.NewPackageRepository(db)
	ledger := history.NewLedger(repositories.NewHistoryRepository(db))
	res := resolver.New(npmreg.New(npm.URL), resolver.NewGitHubClient(github.URL, ""))
	fetcher := fetch.New(
		fetch.WithHTTPClient(&http.Client{}),
		fetch.WithMaxTries(2),
		fetch.WithBaseDelay(time.Millisecond),
	)
	t.Cleanup(fetcher.Close)

	orch := New(
		packages,
		repositories.NewRatingRepository(db),
		ledger,
		res,
		rating.NewEngine(rating.Unmeasured(), cfg),
		store,
		fetcher,
		github.URL,
	)

	return &harness{orch: orch, packages: packages, ledger: ledger, artifacts: artifacts, githubHits: &hits}
}

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func contentFor(t *testing.T, manifestJSON string) string {
	raw := zipArchive(t, map[string]string{"pkg/package.json": manifestJSON})
	return base64.StdEncoding.EncodeToString(raw)
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected status %d, got nil error", status)
	}
	if got, _ := apierr.StatusOf(err); got != status {
		t.Fatalf("expected status %d, got %d (%v)", status, got, err)
	}
}

func TestIngestFromURL(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	res, err := h.orch.Ingest(ctx, testActor, Submission{URL: "https://github.com/acme/widget"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Package.Name != "widget" {
		t.Fatalf("expected name widget, got %s", res.Package.Name)
	}
	if res.Package.Version != "2.0.0" {
		t.Fatalf("expected release version 2.0.0, got %s", res.Package.Version)
	}
	if res.Package.ID == "" {
		t.Fatal("expected assigned package id")
	}
	if res.Content == "" {
		t.Fatal("expected rehydrated content in result")
	}
	if _, err := os.Stat(filepath.Join(h.artifacts, res.Package.ContentRef)); err != nil {
		t.Fatalf("artifact not persisted: %v", err)
	}

	entries, err := h.ledger.List(ctx, "widget")
	if err != nil || len(entries) != 1 || entries[0].Action != history.ActionCreate {
		t.Fatalf("expected single CREATE entry, got %v, %v", entries, err)
	}
}

func TestIngestNPMPageURLIsCanonicalized(t *testing.T) {
	h := newHarness(t, false)

	res, err := h.orch.Ingest(context.Background(), testActor, Submission{URL: "https://www.npmjs.com/package/widget"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Package.URL != "https://github.com/acme/widget" {
		t.Fatalf("expected canonical repository URL, got %s", res.Package.URL)
	}
}

func TestIngestFromContent(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	content := contentFor(t, `{
		"name": "left-pad",
		"version": "1.3.0",
		"homepage": "https://github.com/acme/left-pad",
		"dependencies": {"util-deprecate": "1.0.2"}
	}`)

	res, err := h.orch.Ingest(ctx, testActor, Submission{Content: content, JSProgram: "process.exit(0)"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Package.Name != "left-pad" || res.Package.Version != "1.3.0" {
		t.Fatalf("manifest identity not honored: %+v", res.Package)
	}
	if res.Package.JSProgram != "process.exit(0)" {
		t.Fatalf("JSProgram not carried: %+v", res.Package)
	}
	if res.Content != content {
		t.Fatal("stored content does not round-trip")
	}
	// Submitted bytes are authoritative; nothing is fetched upstream.
	if *h.githubHits != 0 {
		t.Fatalf("expected no upstream fetches, saw %d", *h.githubHits)
	}
}

func TestIngestRejectsDuplicateContent(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	content := contentFor(t, `{"name":"dup","version":"1.0.0","homepage":"https://github.com/acme/dup"}`)
	if _, err := h.orch.Ingest(ctx, testActor, Submission{Content: content}); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	_, err := h.orch.Ingest(ctx, testActor, Submission{Content: content})
	wantStatus(t, err, http.StatusConflict)
}

func TestIngestRejectsDuplicateURL(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	url := "https://github.com/acme/widget"
	if _, err := h.orch.Ingest(ctx, testActor, Submission{URL: url}); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	_, err := h.orch.Ingest(ctx, testActor, Submission{URL: url})
	wantStatus(t, err, http.StatusConflict)
}

func TestIngestRejectsNameCollision(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	first := contentFor(t, `{"name":"same","version":"1.0.0","homepage":"https://github.com/acme/same"}`)
	if _, err := h.orch.Ingest(ctx, testActor, Submission{Content: first}); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	// Different bytes, same resolved name.
	second := contentFor(t, `{"name":"same","version":"2.0.0","homepage":"https://github.com/acme/same-fork"}`)
	_, err := h.orch.Ingest(ctx, testActor, Submission{Content: second})
	wantStatus(t, err, http.StatusConflict)
}

func TestIngestRejectsReservedName(t *testing.T) {
	h := newHarness(t, false)

	content := contentFor(t, `{"name":"*","version":"1.0.0","homepage":"https://github.com/acme/star"}`)
	_, err := h.orch.Ingest(context.Background(), testActor, Submission{Content: content})
	wantStatus(t, err, http.StatusBadRequest)
}

func TestIngestRejectsBothFieldsAndNeither(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	_, err := h.orch.Ingest(ctx, testActor, Submission{})
	wantStatus(t, err, http.StatusBadRequest)

	_, err = h.orch.Ingest(ctx, testActor, Submission{Content: "aGk=", URL: "https://github.com/a/b"})
	wantStatus(t, err, http.StatusBadRequest)
}

func TestIngestRejectsBadBase64(t *testing.T) {
	h := newHarness(t, false)
	_, err := h.orch.Ingest(context.Background(), testActor, Submission{Content: "%%% not base64 %%%"})
	wantStatus(t, err, http.StatusBadRequest)
}

func TestIngestRejectsManifestWithoutHomepage(t *testing.T) {
	h := newHarness(t, false)

	content := contentFor(t, `{"name":"orphan","version":"1.0.0"}`)
	_, err := h.orch.Ingest(context.Background(), testActor, Submission{Content: content})
	wantStatus(t, err, http.StatusBadRequest)
	if !strings.Contains(err.Error(), "could not find url") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestIngestGateRejectionCommitsNothing(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	// Unmeasured external scores keep the net score below the floor.
	content := contentFor(t, `{"name":"gated","version":"1.0.0","homepage":"https://github.com/acme/gated"}`)
	_, err := h.orch.Ingest(ctx, testActor, Submission{Content: content})
	wantStatus(t, err, http.StatusLocked)

	if _, err := h.packages.FindByName(ctx, "gated"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected no record after gate rejection, got %v", err)
	}
	entries, err := os.ReadDir(h.artifacts)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty artifact dir after gate rejection, found %d files", len(entries))
	}
}
