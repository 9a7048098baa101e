// Package platform connects the bot to the social network it answers on.
package platform

import (
	"context"

	"github.com/ppiankov/borrowbot/internal/model"
)

// Client is the social platform surface used by the bot
type Client interface {
	// Me returns the bot's own account
	Me(ctx context.Context) (model.Identity, error)
	// Mentions returns mentions newer than sinceID, in any order. sinceID 0 means no lower bound.
	Mentions(ctx context.Context, sinceID int64) ([]model.Mention, error)
	// GetTweet fetches a single post by its decimal id
	GetTweet(ctx context.Context, id string) (model.Mention, error)
	// PostReply publishes text as a reply to the given post
	PostReply(ctx context.Context, inReplyTo int64, text string) error
}
