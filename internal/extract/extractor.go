// Package extract finds ISBNs in free text and in the links it contains.
package extract

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/borrowbot/internal/extract/adapters"
	"github.com/ppiankov/borrowbot/internal/isbn"
	"github.com/ppiankov/borrowbot/internal/logging"
	"github.com/ppiankov/borrowbot/internal/model"
)

// ErrInvalidText is returned for text that cannot be tokenized
var ErrInvalidText = errors.New("text is not valid UTF-8")

// LinkResolver maps a possibly-shortened URL to its target
type LinkResolver interface {
	Resolve(ctx context.Context, url string) string
}

// Extractor turns arbitrary text into a deduplicated list of canonical ISBN-13s
type Extractor struct {
	resolver LinkResolver
	registry *adapters.Registry
}

// NewExtractor creates an extractor that follows links through resolver and
// hands them to the adapters in registry
func NewExtractor(resolver LinkResolver, registry *adapters.Registry) *Extractor {
	if registry == nil {
		registry = adapters.NewRegistry()
	}
	return &Extractor{
		resolver: resolver,
		registry: registry,
	}
}

// FindIdentifiers returns the valid ISBNs in text in order of first appearance.
// Per-link and per-adapter failures only drop that contribution; the call
// fails as a whole only when the text itself is unusable.
func (e *Extractor) FindIdentifiers(ctx context.Context, text string) ([]string, error) {
	if !utf8.ValidString(text) {
		return nil, &model.ExtractionError{Text: text, Err: ErrInvalidText}
	}
	if err := ctx.Err(); err != nil {
		return nil, &model.ExtractionError{Text: text, Err: err}
	}

	var candidates []string
	for _, token := range strings.Fields(text) {
		if strings.HasPrefix(token, "http") {
			candidates = append(candidates, e.fromLink(ctx, token)...)
			continue
		}
		candidates = append(candidates, isbn.FindLike(token)...)
	}

	return canonicalize(candidates), nil
}

func (e *Extractor) fromLink(ctx context.Context, token string) []string {
	target := token
	if e.resolver != nil {
		target = e.resolver.Resolve(ctx, token)
	}

	var candidates []string
	for _, adapter := range e.registry.Adapters() {
		if !adapter.CanHandle(target) {
			continue
		}
		found, err := adapter.Extract(ctx, target)
		if err != nil {
			logging.FromContext(ctx).Debug("scraper failed",
				slog.Any("error", &model.ScrapeError{Adapter: adapter.Name(), URL: target, Err: err}))
			continue
		}
		candidates = append(candidates, found...)
	}
	return candidates
}

func canonicalize(candidates []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(candidates))
	for _, c := range candidates {
		canonical, ok := isbn.Normalize(c)
		if !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		result = append(result, canonical)
	}
	return result
}
