package npmreg

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func registryServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestRepositoryURLObjectShape(t *testing.T) {
	c := registryServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lodash" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"name":"lodash","repository":{"type":"git","url":"git+https://github.com/lodash/lodash.git"}}`))
	})

	got, err := c.RepositoryURL(context.Background(), "lodash")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != "https://github.com/lodash/lodash" {
		t.Fatalf("unexpected repository url: %s", got)
	}
}

func TestRepositoryURLStringShape(t *testing.T) {
	c := registryServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"repository":"github.com/expressjs/express"}`))
	})

	got, err := c.RepositoryURL(context.Background(), "express")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != "https://github.com/expressjs/express" {
		t.Fatalf("unexpected repository url: %s", got)
	}
}

func TestRepositoryURLMissingField(t *testing.T) {
	c := registryServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"no-repo"}`))
	})

	if _, err := c.RepositoryURL(context.Background(), "no-repo"); !errors.Is(err, ErrNoRepository) {
		t.Fatalf("expected ErrNoRepository, got %v", err)
	}
}

func TestRepositoryURLNotFound(t *testing.T) {
	c := registryServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if _, err := c.RepositoryURL(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for 404 package document")
	}
}

func TestRepositoryURLScopedNameEscaped(t *testing.T) {
	var gotPath string
	c := registryServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"repository":"https://github.com/types/node"}`))
	})

	if _, err := c.RepositoryURL(context.Background(), "@types/node"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if gotPath != "/@types%2Fnode" {
		t.Fatalf("expected escaped scoped path, got %s", gotPath)
	}
}

func TestNormalizeGitURL(t *testing.T) {
	cases := map[string]string{
		"git+https://github.com/a/b.git": "https://github.com/a/b",
		"git://github.com/a/b.git":       "https://github.com/a/b",
		"ssh://git@github.com/a/b.git":   "https://github.com/a/b",
		"github.com/a/b":                 "https://github.com/a/b",
		"https://github.com/a/b":         "https://github.com/a/b",
	}
	for in, want := range cases {
		if got := normalizeGitURL(in); got != want {
			t.Errorf("normalizeGitURL(%q) = %q, want %q", in, got, want)
		}
	}
}
