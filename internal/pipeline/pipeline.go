package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/borrowbot/internal/availability"
	"github.com/ppiankov/borrowbot/internal/cache"
	"github.com/ppiankov/borrowbot/internal/extract"
	"github.com/ppiankov/borrowbot/internal/extract/adapters"
	"github.com/ppiankov/borrowbot/internal/logging"
	"github.com/ppiankov/borrowbot/internal/model"
	"github.com/ppiankov/borrowbot/internal/reply"
	"github.com/ppiankov/borrowbot/internal/worker"
)

// Pipeline wires the lookup chain shared by the bot and the check command:
// fetcher, identifier extractor, availability resolver and reply composer.
type Pipeline struct {
	fetcher   *Fetcher
	limiter   *worker.Limiter
	pages     cache.Cache // scraped page results, memory + disk
	redirects cache.Cache // link resolutions, memory only
	extractor *extract.Extractor
	resolver  *availability.Resolver
	composer  *reply.Composer
	config    *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	var pages, redirects cache.Cache
	if cfg.Cache.Enabled {
		pages = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		redirects = cache.NewMemoryCache(cfg.Cache.MemoryTTL, 10*time.Minute)
	}

	fetcher := NewFetcher(FetcherOptions{
		Timeout:       cfg.HTTP.Timeout,
		UserAgent:     cfg.HTTP.UserAgent,
		MaxBytes:      cfg.HTTP.MaxBodyBytes,
		HTTPProxy:     cfg.HTTP.HTTPProxy,
		HTTPSProxy:    cfg.HTTP.HTTPSProxy,
		NoProxy:       cfg.HTTP.NoProxy,
		RespectRobots: cfg.HTTP.RespectRobots,
		Limiter:       limiter,
		Redirects:     redirects,
		RedirectTTL:   cfg.Cache.MemoryTTL,
	})

	var opts []adapters.GoodreadsOption
	if pages != nil {
		opts = append(opts, adapters.WithPageCache(pages, cfg.Cache.DiskTTL))
	}
	registry := adapters.NewDefaultRegistry(fetcher, opts...)

	catalog := availability.NewClient(fetcher, cfg.Catalog.OpenLibraryURL, cfg.Catalog.ArchiveURL, cfg.Catalog.SearchRows)

	return &Pipeline{
		fetcher:   fetcher,
		limiter:   limiter,
		pages:     pages,
		redirects: redirects,
		extractor: extract.NewExtractor(fetcher, registry),
		resolver:  availability.NewResolver(catalog),
		composer:  reply.NewComposer(cfg.Catalog.OpenLibraryURL, cfg.Bot.HelpURL),
		config:    cfg,
	}
}

func (p *Pipeline) Extractor() *extract.Extractor     { return p.extractor }
func (p *Pipeline) Resolver() *availability.Resolver { return p.resolver }
func (p *Pipeline) Composer() *reply.Composer        { return p.composer }
func (p *Pipeline) Limiter() *worker.Limiter         { return p.limiter }

// ClearCache drops every cached redirect and scraped page
func (p *Pipeline) ClearCache() error {
	var errs []error
	for _, c := range []cache.Cache{p.pages, p.redirects} {
		if c == nil {
			continue
		}
		if err := c.Clear(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Lookup is the answer for one identifier
type Lookup struct {
	ISBN    string        `json:"isbn"`
	Outcome model.Outcome `json:"outcome"`
	Reply   string        `json:"reply,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// CheckResult contains everything found for a piece of text
type CheckResult struct {
	Text    string   `json:"text"`
	ISBNs   []string `json:"isbns"`
	Lookups []Lookup `json:"lookups"`
	Reply   string   `json:"reply,omitempty"` // set when nothing was found
}

// Check runs text through extraction and resolution without posting anything.
// A failing identifier is reported in its Lookup and does not stop the others.
func (p *Pipeline) Check(ctx context.Context, text string) (*CheckResult, error) {
	ctx = logging.WithComponent(ctx, "check")

	isbns, err := p.extractor.FindIdentifiers(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	result := &CheckResult{Text: text, ISBNs: isbns}
	if len(isbns) == 0 {
		result.Reply = p.composer.NotFound()
		return result, nil
	}

	for _, id := range isbns {
		lookup := Lookup{ISBN: id}
		outcome, err := p.resolver.Resolve(ctx, id)
		if err != nil {
			logging.FromContext(ctx).Warn("resolve failed",
				slog.String("isbn", id),
				slog.String("kind", model.KindOf(err).String()),
				slog.Any("error", err))
			lookup.Error = err.Error()
		} else {
			lookup.Outcome = outcome
			lookup.Reply = p.composer.Compose(outcome)
		}
		result.Lookups = append(result.Lookups, lookup)
	}

	return result, nil
}
