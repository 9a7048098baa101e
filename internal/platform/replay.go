package platform

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/borrowbot/internal/model"
)

// ReplayFile is the on-disk shape read by Replay
type ReplayFile struct {
	Me       model.Identity  `yaml:"me"`
	Tweets   []model.Mention `yaml:"tweets"`   // posts reachable as parents
	Mentions []model.Mention `yaml:"mentions"` // posts directed at the bot
}

// Replay serves mentions from a YAML file and prints replies instead of posting them
type Replay struct {
	data ReplayFile
	out  io.Writer

	mu      sync.Mutex
	replies []model.Reply
}

// NewReplay creates a platform serving data. Replies are written to out.
func NewReplay(data ReplayFile, out io.Writer) *Replay {
	if out == nil {
		out = io.Discard
	}
	return &Replay{data: data, out: out}
}

// LoadReplay reads a replay file from disk
func LoadReplay(path string, out io.Writer) (*Replay, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replay file: %w", err)
	}

	var data ReplayFile
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse replay file %s: %w", path, err)
	}
	return NewReplay(data, out), nil
}

func (r *Replay) Me(_ context.Context) (model.Identity, error) {
	return r.data.Me, nil
}

// Mentions returns the recorded mentions newer than sinceID
func (r *Replay) Mentions(_ context.Context, sinceID int64) ([]model.Mention, error) {
	var out []model.Mention
	for _, m := range r.data.Mentions {
		if m.ID > sinceID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *Replay) GetTweet(_ context.Context, id string) (model.Mention, error) {
	want, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return model.Mention{}, fmt.Errorf("tweet id %q: %w", id, err)
	}
	for _, group := range [][]model.Mention{r.data.Tweets, r.data.Mentions} {
		for _, m := range group {
			if m.ID == want {
				return m, nil
			}
		}
	}
	return model.Mention{}, fmt.Errorf("tweet %s not found in replay file", id)
}

func (r *Replay) PostReply(_ context.Context, inReplyTo int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.replies = append(r.replies, model.Reply{MentionID: inReplyTo, Text: text})
	_, err := fmt.Fprintf(r.out, "↳ %d: %s\n", inReplyTo, text)
	return err
}

// Replies returns everything posted so far
func (r *Replay) Replies() []model.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Reply(nil), r.replies...)
}
