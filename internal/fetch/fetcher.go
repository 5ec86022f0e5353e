// Package fetch acquires artifact bytes from upstream hosts with retry,
// circuit breaking, and a DNS-cached transport.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/dnscache"
	circuit "github.com/rubyist/circuitbreaker"
)

var (
	ErrNotFound     = errors.New("artifact not found")
	ErrRateLimited  = errors.New("rate limited by upstream")
	ErrUpstreamDown = errors.New("upstream host unavailable")
)

const maxArtifactSize = 256 << 20

type Fetcher struct {
	client    *http.Client
	userAgent string
	maxTries  uint
	baseDelay time.Duration

	mu       sync.Mutex
	breakers map[string]*circuit.Breaker

	closeOnce sync.Once
	done      chan struct{}
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func WithMaxTries(n uint) Option {
	return func(f *Fetcher) { f.maxTries = n }
}

func WithBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) { f.baseDelay = d }
}

func New(opts ...Option) *Fetcher {
	resolver := &dnscache.Resolver{}
	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}

	f := &Fetcher{
		client: &http.Client{
			Timeout: 2 * time.Minute,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					host, port, err := net.SplitHostPort(addr)
					if err != nil {
						return nil, err
					}
					ips, err := resolver.LookupHost(ctx, host)
					if err != nil {
						return nil, err
					}
					for _, ip := range ips {
						conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
						if err == nil {
							return conn, nil
						}
					}
					return nil, fmt.Errorf("failed to dial any resolved IP for %s", host)
				},
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: "trustmod-registry/1.0",
		maxTries:  3,
		baseDelay: 500 * time.Millisecond,
		breakers:  make(map[string]*circuit.Breaker),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				resolver.Refresh(true)
			case <-f.done:
				return
			}
		}
	}()

	return f
}

// Close stops the DNS refresh goroutine. Safe to call more than once.
func (f *Fetcher) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

// Zipball fetches the default-branch archive of a repository through the
// hosting provider's API.
func (f *Fetcher) Zipball(ctx context.Context, apiBase, owner, repo string) ([]byte, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/zipball", strings.TrimSuffix(apiBase, "/"), owner, repo)
	return f.Fetch(ctx, u)
}

// Fetch downloads an artifact with bounded retry. Not-found and open
// breakers fail immediately; rate limits and server errors back off.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	breaker := f.breaker(hostOf(rawURL))

	operation := func() ([]byte, error) {
		if !breaker.Ready() {
			return nil, backoff.Permanent(fmt.Errorf("circuit open for %s: %w", hostOf(rawURL), ErrUpstreamDown))
		}
		var body []byte
		err := breaker.Call(func() error {
			var fetchErr error
			body, fetchErr = f.doFetch(ctx, rawURL)
			return fetchErr
		}, 0)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return body, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = f.baseDelay

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(f.maxTries),
	)
}

func (f *Fetcher) doFetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching artifact: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactSize))
		if err != nil {
			return nil, fmt.Errorf("reading artifact body: %w", err)
		}
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, ErrUpstreamDown
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(snippet))
	}
}

// breaker returns the per-host circuit breaker, tripping after five
// consecutive failures.
func (f *Fetcher) breaker(host string) *circuit.Breaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if br, ok := f.breakers[host]; ok {
		return br
	}
	br := circuit.NewThresholdBreaker(5)
	f.breakers[host] = br
	return br
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}
