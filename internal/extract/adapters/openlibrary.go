package adapters

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

// OpenLibraryAdapter reads ISBNs out of openlibrary.org /isbn/ links
type OpenLibraryAdapter struct {
	pattern *regexp.Regexp
}

// NewOpenLibraryAdapter creates an adapter for openlibrary.org /isbn/ links
func NewOpenLibraryAdapter() *OpenLibraryAdapter {
	return &OpenLibraryAdapter{
		pattern: regexp.MustCompile(`/isbn/([0-9Xx-]{10,17})`),
	}
}

// Name returns the adapter name
func (a *OpenLibraryAdapter) Name() string {
	return "openlibrary"
}

// CanHandle reports whether rawURL is an Open Library ISBN page
func (a *OpenLibraryAdapter) CanHandle(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == "openlibrary.org" || strings.HasSuffix(host, ".openlibrary.org")
}

// Extract returns the ISBN in the link path
func (a *OpenLibraryAdapter) Extract(ctx context.Context, rawURL string) ([]string, error) {
	m := a.pattern.FindStringSubmatch(rawURL)
	if m == nil {
		return nil, nil
	}
	return []string{m[1]}, nil
}
