package bot

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ppiankov/borrowbot/internal/logging"
	"github.com/ppiankov/borrowbot/internal/model"
)

// Poster publishes a reply on the platform
type Poster interface {
	PostReply(ctx context.Context, inReplyTo int64, text string) error
}

// Greeter addresses a message body to a handle
type Greeter interface {
	Greeting(handle, msg string) string
}

// Sender is the single egress for replies. Sends are serialized so the
// platform is never called from two handlers at once.
type Sender struct {
	poster  Poster
	greeter Greeter
	dryRun  bool

	mu   sync.Mutex
	sent int
}

// NewSender creates a sender posting through poster. In dry-run mode replies
// are only logged.
func NewSender(poster Poster, greeter Greeter, dryRun bool) *Sender {
	return &Sender{poster: poster, greeter: greeter, dryRun: dryRun}
}

// Send posts one reply. Failures are logged, returned and never retried.
func (s *Sender) Send(ctx context.Context, r model.Reply) error {
	logger := logging.FromContext(ctx)

	var rejected error
	switch {
	case r.Handle == "":
		rejected = model.NewStructuralSendError(r.MentionID, "reply target has no author handle")
	case r.MentionID <= 0:
		rejected = model.NewStructuralSendError(r.MentionID, "reply target has no id")
	}
	if rejected != nil {
		logger.Error("reply failed",
			slog.String("kind", model.KindOf(rejected).String()),
			slog.Any("error", rejected))
		return rejected
	}

	message := s.greeter.Greeting(r.Handle, r.Text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dryRun {
		s.sent++
		logger.Info("dry run, reply not posted", slog.String("text", message))
		return nil
	}

	if err := s.poster.PostReply(ctx, r.MentionID, message); err != nil {
		sendErr := &model.SendError{MentionID: r.MentionID, Message: message, Err: err}
		logger.Error("reply failed",
			slog.String("kind", model.KindOf(sendErr).String()),
			slog.Any("error", sendErr))
		return sendErr
	}
	s.sent++
	logger.Info("reply sent", slog.String("text", message))
	return nil
}

// Sent returns the number of replies posted (or logged in dry-run mode)
func (s *Sender) Sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}
