// Package resolver determines the canonical source location of a
// submission: npm package pages are rewritten to their upstream
// repository, and versions are resolved from the hosting provider's
// release list.
package resolver

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/mod/semver"

	"github.com/trustmod/registry/internal/logging"
	"github.com/trustmod/registry/internal/npmreg"
)

// DefaultVersion is the absorbing fallback: malformed URLs, unreachable
// hosts, and empty release lists all resolve to it.
const DefaultVersion = "1.0.0"

const (
	npmPackagePrefix = "https://www.npmjs.com/package/"
	githubPrefix     = "https://github.com/"
)

type Resolver struct {
	npm     *npmreg.Client
	gh      *github.Client
	timeout time.Duration
}

func New(npm *npmreg.Client, gh *github.Client) *Resolver {
	return &Resolver{npm: npm, gh: gh, timeout: 10 * time.Second}
}

// NewGitHubClient builds the release-list client. apiBase is overridable
// for tests and GitHub Enterprise; it must resolve with a trailing slash.
func NewGitHubClient(apiBase, token string) *github.Client {
	gh := github.NewClient(nil)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	if apiBase != "" && apiBase != "https://api.github.com" {
		if u, err := url.Parse(strings.TrimSuffix(apiBase, "/") + "/"); err == nil {
			gh.BaseURL = u
			gh.UploadURL = u
		}
	}
	return gh
}

// ResolveSourceURL rewrites an npm package-page URL to the upstream
// repository URL declared in the registry. Any lookup failure is absorbed:
// the input comes back unchanged and downstream fallbacks apply.
func (r *Resolver) ResolveSourceURL(ctx context.Context, rawURL string) string {
	if !strings.HasPrefix(rawURL, npmPackagePrefix) {
		return rawURL
	}

	name := strings.Trim(strings.TrimPrefix(rawURL, npmPackagePrefix), "/")
	if name == "" {
		return rawURL
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	repo, err := r.npm.RepositoryURL(ctx, name)
	if err != nil {
		logging.Log.Debugw("npm repository lookup failed, keeping original URL",
			"package", name, "error", err)
		return rawURL
	}
	return repo
}

// ResolveVersion returns the tag of the most recent release for the
// repository behind url, or DefaultVersion. It is total: no input and no
// upstream failure makes it return an error.
func (r *Resolver) ResolveVersion(ctx context.Context, rawURL string) string {
	u := rawURL
	if strings.HasPrefix(u, npmPackagePrefix) {
		u = r.ResolveSourceURL(ctx, u)
	}
	if !strings.HasPrefix(u, githubPrefix) {
		logging.Log.Debugw("version resolution skipped for unrecognized URL", "url", rawURL)
		return DefaultVersion
	}

	owner, repo, ok := RepoPath(u)
	if !ok {
		return DefaultVersion
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	releases, _, err := r.gh.Repositories.ListReleases(ctx, owner, repo, &github.ListOptions{PerPage: 1})
	if err != nil || len(releases) == 0 {
		// Network failure and "no releases" deliberately collapse into
		// the same default.
		return DefaultVersion
	}
	return canonicalTag(releases[0].GetTagName())
}

// RepoPath extracts owner and repository from the URL's first two path
// segments.
func RepoPath(rawURL string) (owner, repo string, ok bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", "", false
	}
	return segments[0], segments[1], true
}

// RepoName returns the final path segment of a source URL, the fallback
// package name when no manifest is available.
func RepoName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	name := segments[len(segments)-1]
	return strings.TrimSuffix(name, ".git")
}

// canonicalTag strips the leading v from semver-shaped tags and passes
// everything else through untouched.
func canonicalTag(tag string) string {
	if tag == "" {
		return DefaultVersion
	}
	if semver.IsValid(tag) {
		return strings.TrimPrefix(tag, "v")
	}
	return tag
}
