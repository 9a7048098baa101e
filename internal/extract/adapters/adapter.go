package adapters

import (
	"context"
	"strings"

	"golang.org/x/net/html"
)

// Adapter extracts raw ISBN candidates for one known content source
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle reports whether the URL belongs to this source
	CanHandle(url string) bool

	// Extract returns unvalidated candidates found for the URL
	Extract(ctx context.Context, url string) ([]string, error)
}

// PageFetcher is the slice of the HTTP transport that page-scraping adapters need
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
	IsAllowed(ctx context.Context, url string) bool
}

// Registry is the ordered list of adapters run against every resolved link
type Registry struct {
	adapters []Adapter
}

// NewRegistry returns a registry holding adapters in the given order
func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// NewDefaultRegistry registers the built-in sources
func NewDefaultRegistry(fetcher PageFetcher, opts ...GoodreadsOption) *Registry {
	return NewRegistry(
		NewAmazonAdapter(),
		NewGoodreadsAdapter(fetcher, opts...),
		NewOpenLibraryAdapter(),
	)
}

// Adapters returns the registered adapters in order
func (r *Registry) Adapters() []Adapter {
	return r.adapters
}

// BaseAdapter provides HTML helpers shared by page-scraping adapters
type BaseAdapter struct{}

// ParseHTML parses HTML string into a node tree
func (b *BaseAdapter) ParseHTML(htmlContent string) (*html.Node, error) {
	return html.Parse(strings.NewReader(htmlContent))
}

// ExtractText returns the visible text of a node, skipping script and style
func (b *BaseAdapter) ExtractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return ""
	}

	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := b.ExtractText(c); text != "" {
			buf.WriteString(text)
			buf.WriteString(" ")
		}
	}
	return strings.TrimSpace(buf.String())
}
