package adapters

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/ppiankov/borrowbot/internal/cache"
)

// ErrDisallowed is returned when robots.txt forbids fetching a page
var ErrDisallowed = errors.New("disallowed by robots.txt")

// GoodreadsAdapter fetches a cataloging-site book page and reads its printed ISBN13
type GoodreadsAdapter struct {
	BaseAdapter
	fetcher   PageFetcher
	cache     cache.Cache
	cacheTTL  time.Duration
	bookPath  *regexp.Regexp
	rawLabel  *regexp.Regexp
	textLabel *regexp.Regexp
}

// GoodreadsOption customizes a GoodreadsAdapter
type GoodreadsOption func(*GoodreadsAdapter)

// WithPageCache memoizes extracted candidates per page URL
func WithPageCache(c cache.Cache, ttl time.Duration) GoodreadsOption {
	return func(a *GoodreadsAdapter) {
		a.cache = c
		a.cacheTTL = ttl
	}
}

// NewGoodreadsAdapter creates an adapter that scrapes book pages through fetcher
func NewGoodreadsAdapter(fetcher PageFetcher, opts ...GoodreadsOption) *GoodreadsAdapter {
	a := &GoodreadsAdapter{
		fetcher:   fetcher,
		bookPath:  regexp.MustCompile(`/book/show/([0-9]+)`),
		rawLabel:  regexp.MustCompile(`ISBN13.*>([0-9X-]+)`),
		textLabel: regexp.MustCompile(`ISBN13:?\s*([0-9X-]{13,17})`),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the adapter name
func (a *GoodreadsAdapter) Name() string {
	return "goodreads"
}

// CanHandle only checks the work-path shape; the host is not required so
// mirrors and mobile subdomains also match
func (a *GoodreadsAdapter) CanHandle(rawURL string) bool {
	return a.bookPath.MatchString(rawURL)
}

// Extract fetches the book page and returns the ISBN-13 it lists
func (a *GoodreadsAdapter) Extract(ctx context.Context, rawURL string) ([]string, error) {
	if !a.CanHandle(rawURL) {
		return nil, nil
	}

	key := cache.Key("goodreads", rawURL)
	if cached, found := cache.GetStrings(a.cache, key); found {
		return cached, nil
	}

	if !a.fetcher.IsAllowed(ctx, rawURL) {
		return nil, ErrDisallowed
	}

	page, err := a.fetcher.FetchPage(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	candidates := a.fromHTML(page)
	_ = cache.SetStrings(a.cache, key, candidates, a.cacheTTL)

	return candidates, nil
}

// fromHTML matches the label against raw markup first; if the markup shape
// differs it falls back to the page's visible text.
func (a *GoodreadsAdapter) fromHTML(page string) []string {
	var candidates []string
	for _, m := range a.rawLabel.FindAllStringSubmatch(page, -1) {
		candidates = append(candidates, m[1])
	}
	if len(candidates) > 0 {
		return candidates
	}

	doc, err := a.ParseHTML(page)
	if err != nil {
		return nil
	}
	for _, m := range a.textLabel.FindAllStringSubmatch(a.ExtractText(doc), -1) {
		candidates = append(candidates, m[1])
	}
	return candidates
}
