// Package npmreg is a minimal client for the npm registry metadata
// endpoint, used to map a package name to its upstream source repository.
package npmreg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const DefaultURL = "https://registry.npmjs.org"

// ErrNoRepository means the package document exists but declares no
// usable repository URL.
var ErrNoRepository = errors.New("package document has no repository url")

type Client struct {
	baseURL string
	hc      *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
}

// packageDocument keeps repository untyped: npm documents declare it as a
// string, an object, or an array depending on publisher.
type packageDocument struct {
	Name       string      `json:"name"`
	Repository interface{} `json:"repository"`
}

// RepositoryURL fetches GET {registry}/{name} and returns the declared
// repository URL, normalized to an https source-hosting URL.
func (c *Client) RepositoryURL(ctx context.Context, name string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching package document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("registry returned status %d for %s", resp.StatusCode, name)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("reading package document: %w", err)
	}

	var doc packageDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("decoding package document: %w", err)
	}

	repo := extractRepoURL(doc.Repository)
	if repo == "" {
		return "", ErrNoRepository
	}
	return repo, nil
}

// extractRepoURL handles the repository field shapes seen in the wild:
// a bare string, {url: ...}, or an array of either.
func extractRepoURL(v interface{}) string {
	switch r := v.(type) {
	case string:
		return normalizeGitURL(r)
	case map[string]interface{}:
		if u, ok := r["url"].(string); ok {
			return normalizeGitURL(u)
		}
	case []interface{}:
		if len(r) > 0 {
			return extractRepoURL(r[0])
		}
	}
	return ""
}

func normalizeGitURL(u string) string {
	u = strings.TrimSpace(u)
	u = strings.TrimPrefix(u, "git+")
	if strings.HasPrefix(u, "git://") {
		u = "https://" + strings.TrimPrefix(u, "git://")
	}
	if strings.HasPrefix(u, "ssh://git@") {
		u = "https://" + strings.TrimPrefix(u, "ssh://git@")
	}
	u = strings.TrimSuffix(u, ".git")
	if strings.HasPrefix(u, "github.com/") {
		u = "https://" + u
	}
	return u
}
