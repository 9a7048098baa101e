// Package bot answers mentions: it claims each one on the cursor, finds the
// books it refers to, checks their availability and replies.
package bot

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ppiankov/borrowbot/internal/logging"
	"github.com/ppiankov/borrowbot/internal/model"
)

// State is where a mention is in its lifecycle
type State string

const (
	StateClaimed          State = "claimed"
	StateExtractingSelf   State = "extracting_self"
	StateExtractingParent State = "extracting_parent"
	StateResolving        State = "resolving"
	StateReplying         State = "replying"
	StateDone             State = "done"
	StateSkipped          State = "skipped"
	StateFailed           State = "failed"
)

// Extractor finds canonical ISBN-13s in text
type Extractor interface {
	FindIdentifiers(ctx context.Context, text string) ([]string, error)
}

// Resolver maps an ISBN to an availability outcome
type Resolver interface {
	Resolve(ctx context.Context, isbn string) (model.Outcome, error)
}

// Composer renders reply bodies
type Composer interface {
	Compose(outcome model.Outcome) string
	NotFound() string
	InternalError() string
}

// TweetGetter fetches a parent post
type TweetGetter interface {
	GetTweet(ctx context.Context, id string) (model.Mention, error)
}

// Result reports how one mention was handled
type Result struct {
	MentionID int64
	State     State
	Replies   []string // message bodies that were sent
	Err       error
}

func (r Result) GetError() error {
	return r.Err
}

// OrchestratorOptions wires an Orchestrator. Identity is the bot's own account.
type OrchestratorOptions struct {
	Identity  model.Identity
	Extractor Extractor
	Resolver  Resolver
	Composer  Composer
	Tweets    TweetGetter
	Sender    *Sender
	Cursor    CursorStore
}

// Orchestrator runs the per-mention state machine. Handle is safe for
// concurrent use; the only shared state is the cursor and the sender.
type Orchestrator struct {
	me        model.Identity
	extractor Extractor
	resolver  Resolver
	composer  Composer
	tweets    TweetGetter
	sender    *Sender
	cursor    CursorStore
}

// NewOrchestrator creates an orchestrator from opts
func NewOrchestrator(opts OrchestratorOptions) *Orchestrator {
	return &Orchestrator{
		me:        opts.Identity,
		extractor: opts.Extractor,
		resolver:  opts.Resolver,
		composer:  opts.Composer,
		tweets:    opts.Tweets,
		sender:    opts.Sender,
		cursor:    opts.Cursor,
	}
}

// Handle processes one mention to completion. It replies at most once per
// resolved identifier and never retries.
func (o *Orchestrator) Handle(ctx context.Context, m model.Mention) Result {
	ctx = logging.WithComponent(logging.WithMention(ctx, m.ID), "orchestrator")
	logger := logging.FromContext(ctx)

	res := Result{MentionID: m.ID, State: StateClaimed}

	// Claim before any network call so a crash never causes a second reply.
	if err := o.cursor.Advance(m.ID); err != nil {
		logger.Error("cursor write failed, mention abandoned", slog.Any("error", err))
		res.State = StateFailed
		res.Err = err
		return res
	}

	res.State = StateExtractingSelf
	isbns, err := o.extractor.FindIdentifiers(ctx, m.Text)
	if err != nil {
		return o.fail(ctx, m, res, err)
	}

	var parent *model.Mention
	if len(isbns) == 0 && m.HasParent() {
		res.State = StateExtractingParent
		p, err := o.fetchParent(ctx, m.InReplyToStatusID)
		if err != nil {
			return o.fail(ctx, m, res, err)
		}
		parent = &p

		isbns, err = o.extractor.FindIdentifiers(ctx, p.Text)
		if err != nil {
			return o.fail(ctx, m, res, err)
		}
	}

	if len(isbns) == 0 {
		if o.isOwnPost(m, parent) {
			logger.Info("no books found in a reply to our own post, skipping")
			res.State = StateSkipped
			res.Err = model.ErrSkipped
			return res
		}
		res.State = StateReplying
		o.reply(ctx, m, o.composer.NotFound(), &res)
		res.State = StateDone
		return res
	}

	logger.Debug("identifiers found", slog.Any("isbns", isbns))

	res.State = StateResolving
	var bodies []string
	for _, id := range isbns {
		outcome, err := o.resolver.Resolve(ctx, id)
		if err != nil {
			logger.Warn("resolve failed, identifier skipped",
				slog.String("isbn", id),
				slog.String("kind", model.KindOf(err).String()),
				slog.Any("error", err))
			continue
		}
		logger.Debug("resolved", slog.String("isbn", id), slog.String("outcome", string(outcome.Kind)))
		bodies = append(bodies, o.composer.Compose(outcome))
	}

	res.State = StateReplying
	for _, body := range bodies {
		o.reply(ctx, m, body, &res)
	}
	res.State = StateDone
	return res
}

func (o *Orchestrator) fetchParent(ctx context.Context, id string) (model.Mention, error) {
	if !isPositiveDecimal(id) {
		return model.Mention{}, &model.GetTweetError{ID: id, Err: model.ErrMalformedID}
	}
	parent, err := o.tweets.GetTweet(ctx, id)
	if err != nil {
		return model.Mention{}, &model.GetTweetError{ID: id, Err: err}
	}
	return parent, nil
}

// isOwnPost reports whether the conversation leads back to the bot itself
func (o *Orchestrator) isOwnPost(m model.Mention, parent *model.Mention) bool {
	if parent != nil && o.isMe(parent.AuthorID, parent.AuthorHandle) {
		return true
	}
	if o.me.ID != "" && m.InReplyToUserID == o.me.ID {
		return true
	}
	return o.isMe(m.AuthorID, m.AuthorHandle)
}

func (o *Orchestrator) isMe(id, handle string) bool {
	if o.me.ID != "" && id == o.me.ID {
		return true
	}
	return o.me.Handle != "" && strings.EqualFold(strings.TrimPrefix(handle, "@"), o.me.Handle)
}

func (o *Orchestrator) reply(ctx context.Context, m model.Mention, body string, res *Result) {
	err := o.sender.Send(ctx, model.Reply{MentionID: m.ID, Handle: m.AuthorHandle, Text: body})
	if err != nil {
		if res.Err == nil {
			res.Err = err
		}
		return
	}
	res.Replies = append(res.Replies, body)
}

// fail aborts the mention and, when it can be addressed, tells the author
func (o *Orchestrator) fail(ctx context.Context, m model.Mention, res Result, err error) Result {
	logging.FromContext(ctx).Error("mention failed",
		slog.String("state", string(res.State)),
		slog.String("kind", model.KindOf(err).String()),
		slog.Any("error", err))

	res.State = StateFailed
	res.Err = err

	if m.AuthorHandle == "" || m.ID <= 0 {
		return res
	}
	sendErr := o.sender.Send(ctx, model.Reply{MentionID: m.ID, Handle: m.AuthorHandle, Text: o.composer.InternalError()})
	if sendErr == nil {
		res.Replies = append(res.Replies, o.composer.InternalError())
	}
	return res
}

func isPositiveDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return err == nil && n > 0
}
