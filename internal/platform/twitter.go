package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/borrowbot/internal/model"
	"github.com/ppiankov/borrowbot/internal/worker"
)

const (
	tweetFields     = "author_id,in_reply_to_user_id,referenced_tweets"
	mentionPageSize = 100
)

// ErrMissingToken is returned when no bearer token is configured
var ErrMissingToken = errors.New("twitter bearer token is not set")

// APIError is a non-2xx answer from the API
type APIError struct {
	Code   int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("twitter api: status %d", e.Code)
	}
	return fmt.Sprintf("twitter api: status %d: %s", e.Code, e.Detail)
}

// TwitterOptions configures the v2 REST client
type TwitterOptions struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
	UserAgent   string
	Limiter     *worker.Limiter
}

// Twitter talks to the v2 REST API with a bearer token
type Twitter struct {
	client  *http.Client
	baseURL string
	token   string
	ua      string
	limiter *worker.Limiter
}

// NewTwitter creates a v2 API client. It fails with ErrMissingToken when no
// bearer token is set.
func NewTwitter(opts TwitterOptions) (*Twitter, error) {
	if opts.BearerToken == "" {
		return nil, ErrMissingToken
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.twitter.com"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	return &Twitter{
		client:  &http.Client{Timeout: opts.Timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.BearerToken,
		ua:      opts.UserAgent,
		limiter: opts.Limiter,
	}, nil
}

type apiUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type apiTweet struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	AuthorID         string `json:"author_id"`
	InReplyToUserID  string `json:"in_reply_to_user_id"`
	ReferencedTweets []struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"referenced_tweets"`
}

type includes struct {
	Users []apiUser `json:"users"`
}

func (i includes) handle(userID string) string {
	for _, u := range i.Users {
		if u.ID == userID {
			return u.Username
		}
	}
	return ""
}

func (t apiTweet) toMention(inc includes) (model.Mention, error) {
	id, err := strconv.ParseInt(t.ID, 10, 64)
	if err != nil {
		return model.Mention{}, fmt.Errorf("tweet id %q: %w", t.ID, err)
	}

	m := model.Mention{
		ID:              id,
		AuthorID:        t.AuthorID,
		AuthorHandle:    inc.handle(t.AuthorID),
		Text:            t.Text,
		InReplyToUserID: t.InReplyToUserID,
	}
	for _, ref := range t.ReferencedTweets {
		if ref.Type == "replied_to" {
			m.InReplyToStatusID = ref.ID
			break
		}
	}
	return m, nil
}

// Me returns the authenticated account
func (tw *Twitter) Me(ctx context.Context) (model.Identity, error) {
	var resp struct {
		Data apiUser `json:"data"`
	}
	if err := tw.do(ctx, http.MethodGet, "/2/users/me", nil, nil, &resp); err != nil {
		return model.Identity{}, fmt.Errorf("get me: %w", err)
	}
	return model.Identity{ID: resp.Data.ID, Handle: resp.Data.Username}, nil
}

// Mentions pages through the mention timeline of the authenticated user.
// Pages arrive newest first; all of them are read so the oldest pending
// mentions are always included.
func (tw *Twitter) Mentions(ctx context.Context, sinceID int64) ([]model.Mention, error) {
	me, err := tw.Me(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("max_results", strconv.Itoa(mentionPageSize))
	params.Set("tweet.fields", tweetFields)
	params.Set("expansions", "author_id")
	if sinceID > 0 {
		params.Set("since_id", strconv.FormatInt(sinceID, 10))
	}

	var mentions []model.Mention
	for {
		var resp struct {
			Data     []apiTweet `json:"data"`
			Includes includes   `json:"includes"`
			Meta     struct {
				NextToken string `json:"next_token"`
			} `json:"meta"`
		}
		path := "/2/users/" + url.PathEscape(me.ID) + "/mentions"
		if err := tw.do(ctx, http.MethodGet, path, params, nil, &resp); err != nil {
			return nil, fmt.Errorf("get mentions: %w", err)
		}

		for _, t := range resp.Data {
			m, err := t.toMention(resp.Includes)
			if err != nil {
				return nil, err
			}
			mentions = append(mentions, m)
		}

		if resp.Meta.NextToken == "" {
			break
		}
		params.Set("pagination_token", resp.Meta.NextToken)
	}

	return mentions, nil
}

// GetTweet fetches a single tweet with its author
func (tw *Twitter) GetTweet(ctx context.Context, id string) (model.Mention, error) {
	params := url.Values{}
	params.Set("tweet.fields", tweetFields)
	params.Set("expansions", "author_id")

	var resp struct {
		Data     apiTweet `json:"data"`
		Includes includes `json:"includes"`
	}
	if err := tw.do(ctx, http.MethodGet, "/2/tweets/"+url.PathEscape(id), params, nil, &resp); err != nil {
		return model.Mention{}, err
	}
	return resp.Data.toMention(resp.Includes)
}

// PostReply posts text as a reply to tweet inReplyTo
func (tw *Twitter) PostReply(ctx context.Context, inReplyTo int64, text string) error {
	body := map[string]any{
		"text": text,
		"reply": map[string]string{
			"in_reply_to_tweet_id": strconv.FormatInt(inReplyTo, 10),
		},
	}
	return tw.do(ctx, http.MethodPost, "/2/tweets", nil, body, nil)
}

func (tw *Twitter) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	endpoint := tw.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	if tw.limiter != nil {
		if err := tw.limiter.Wait(ctx, endpoint); err != nil {
			return err
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tw.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tw.ua != "" {
		req.Header.Set("User-Agent", tw.ua)
	}

	resp, err := tw.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Code: resp.StatusCode, Detail: strings.TrimSpace(string(detail))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
