package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ppiankov/borrowbot/internal/logging"
	"github.com/ppiankov/borrowbot/internal/model"
	"github.com/ppiankov/borrowbot/internal/worker"
)

// MentionSource lists mentions newer than a cursor
type MentionSource interface {
	Mentions(ctx context.Context, sinceID int64) ([]model.Mention, error)
}

// Handler processes one mention
type Handler interface {
	Handle(ctx context.Context, m model.Mention) Result
}

// PollerOptions configures a Poller
type PollerOptions struct {
	Source      MentionSource
	Handler     Handler
	Cursor      CursorStore
	Interval    time.Duration
	Limit       int // mentions handled per cycle; 0 means unlimited
	Concurrency int
}

// Poller fetches new mentions on an interval and hands them to the handler
// on a bounded set of goroutines.
type Poller struct {
	source      MentionSource
	handler     Handler
	cursor      CursorStore
	interval    time.Duration
	limit       int
	concurrency int
}

// NewPoller creates a poller. Concurrency below one means one handler.
func NewPoller(opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Poller{
		source:      opts.Source,
		handler:     opts.Handler,
		cursor:      opts.Cursor,
		interval:    opts.Interval,
		limit:       opts.Limit,
		concurrency: opts.Concurrency,
	}
}

// Run polls until ctx is cancelled. A failed cycle is logged and the next
// one proceeds as usual.
func (p *Poller) Run(ctx context.Context) error {
	ctx = logging.WithComponent(ctx, "poller")
	logger := logging.FromContext(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("poll failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Poll runs one cycle and returns the results ordered by mention id.
//
// Mentions are taken oldest first. When more than the limit are pending the
// newest are left for the next cycle; the cursor never passes them because
// it only advances to ids that were actually claimed.
func (p *Poller) Poll(ctx context.Context) ([]Result, error) {
	logger := logging.FromContext(ctx)

	since, ok, err := p.cursor.Read()
	if err != nil {
		return nil, err
	}

	fetched, err := p.source.Mentions(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetch mentions: %w", err)
	}

	mentions := make([]model.Mention, 0, len(fetched))
	for _, m := range fetched {
		if m.ID > since {
			mentions = append(mentions, m)
		}
	}
	if len(mentions) == 0 {
		return nil, nil
	}
	sort.Slice(mentions, func(i, j int) bool { return mentions[i].ID < mentions[j].ID })

	if !ok {
		newest := mentions[len(mentions)-1].ID
		logger.Info("no cursor yet, claiming newest mention without replying",
			slog.Int64("mention_id", newest),
			slog.Int("backlog", len(mentions)))
		return nil, p.cursor.Advance(newest)
	}

	if p.limit > 0 && len(mentions) > p.limit {
		logger.Warn("too many mentions, deferring newest to next cycle",
			slog.Int("pending", len(mentions)),
			slog.Int("limit", p.limit))
		mentions = mentions[:p.limit]
	}

	jobs := make([]worker.Job, len(mentions))
	for i, m := range mentions {
		jobs[i] = &mentionJob{handler: p.handler, mention: m}
	}

	pool := worker.NewPool(ctx, p.concurrency)
	pool.Start()

	var results []Result
	for _, r := range pool.Run(jobs) {
		if res, ok := r.(Result); ok {
			results = append(results, res)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].MentionID < results[j].MentionID })

	logger.Info("poll cycle complete", slog.Int("mentions", len(results)))
	return results, nil
}

type mentionJob struct {
	handler Handler
	mention model.Mention
}

func (j *mentionJob) Execute(ctx context.Context) worker.Result {
	return j.handler.Handle(ctx, j.mention)
}
