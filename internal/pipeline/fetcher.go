package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ppiankov/borrowbot/internal/cache"
	"github.com/ppiankov/borrowbot/internal/util"
	"github.com/ppiankov/borrowbot/internal/worker"
)

// StatusError is a response outside the 2xx range
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// Fetcher is the shared outbound HTTP transport: page fetches, JSON lookups
// and single-hop redirect resolution. All requests are paced per host.
type Fetcher struct {
	httpClient  *http.Client
	probeClient *http.Client
	userAgent   string
	maxBytes    int64
	limiter     *worker.Limiter
	robots      *util.RobotsChecker
	redirects   cache.Cache
	redirectTTL time.Duration
}

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	Timeout       time.Duration
	UserAgent     string
	MaxBytes      int64
	HTTPProxy     string
	HTTPSProxy    string
	NoProxy       string
	RespectRobots bool
	Limiter       *worker.Limiter // nil disables pacing
	Redirects     cache.Cache     // nil disables redirect memoization
	RedirectTTL   time.Duration
}

// NewFetcher creates a fetcher from opts
func NewFetcher(opts FetcherOptions) *Fetcher {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy),
	}

	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 2_000_000
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		probeClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent:   opts.UserAgent,
		maxBytes:    opts.MaxBytes,
		limiter:     opts.Limiter,
		redirects:   opts.Redirects,
		redirectTTL: opts.RedirectTTL,
	}

	if opts.RespectRobots {
		f.robots = util.NewRobotsChecker(f.httpClient, opts.UserAgent)
	}

	return f
}

// FetchPage retrieves an HTML page body, capped at the configured size
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) (string, error) {
	resp, err := f.do(ctx, f.httpClient, http.MethodGet, rawURL, "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

// GetJSON decodes a JSON response into v. The status code is returned even
// when err is non-nil so callers can tell "absent" (404) from a failure.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, v any) (int, error) {
	resp, err := f.do(ctx, f.httpClient, http.MethodGet, rawURL, "application/json")
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBytes))
		return resp.StatusCode, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, f.maxBytes)).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("decode json: %w", err)
	}
	return resp.StatusCode, nil
}

// Resolve follows at most one redirect with a HEAD request and returns the
// Location target, or rawURL unchanged on any failure or non-redirect.
func (f *Fetcher) Resolve(ctx context.Context, rawURL string) string {
	key := cache.Key("redirect", rawURL)
	if f.redirects != nil {
		if val, found := f.redirects.Get(key); found {
			return string(val)
		}
	}

	resolved := f.resolve(ctx, rawURL)

	// only successful hops are memoized; failures may be transient
	if f.redirects != nil && resolved != rawURL {
		_ = f.redirects.Set(key, []byte(resolved), f.redirectTTL)
	}
	return resolved
}

func (f *Fetcher) resolve(ctx context.Context, rawURL string) string {
	resp, err := f.do(ctx, f.probeClient, http.MethodHead, rawURL, "")
	if err != nil {
		return rawURL
	}
	defer func() { _ = resp.Body.Close() }()

	location := resp.Header.Get("Location")
	if location == "" {
		return rawURL
	}

	target, err := resp.Request.URL.Parse(location)
	if err != nil {
		return rawURL
	}
	return target.String()
}

// IsAllowed reports whether robots.txt permits fetching rawURL.
// Always true when robots checking is disabled.
func (f *Fetcher) IsAllowed(ctx context.Context, rawURL string) bool {
	if f.robots == nil {
		return true
	}
	return f.robots.IsAllowed(ctx, rawURL)
}

func (f *Fetcher) do(ctx context.Context, client *http.Client, method, rawURL, accept string) (*http.Response, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("create request: unsupported scheme %q", parsed.Scheme)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return resp, nil
}
