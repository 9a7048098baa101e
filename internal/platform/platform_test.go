package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var _ Client = (*Twitter)(nil)
var _ Client = (*Replay)(nil)

func newTwitterServer(t *testing.T, mux *http.ServeMux) *Twitter {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	tw, err := NewTwitter(TwitterOptions{BaseURL: server.URL, BearerToken: "secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tw
}

func TestNewTwitter_RequiresToken(t *testing.T) {
	if _, err := NewTwitter(TwitterOptions{}); !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}

func TestTwitter_Mentions(t *testing.T) {
	var sinceIDs []string
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"data":{"id":"42","username":"borrowbot"}}`)
	})
	mux.HandleFunc("/2/users/42/mentions", func(w http.ResponseWriter, r *http.Request) {
		sinceIDs = append(sinceIDs, r.URL.Query().Get("since_id"))
		if r.URL.Query().Get("pagination_token") == "" {
			_, _ = fmt.Fprint(w, `{
				"data":[{"id":"1002","text":"@borrowbot 0141439513","author_id":"7"}],
				"includes":{"users":[{"id":"7","username":"reader"}]},
				"meta":{"next_token":"p2"}}`)
			return
		}
		_, _ = fmt.Fprint(w, `{
			"data":[{"id":"1001","text":"@borrowbot this","author_id":"8","in_reply_to_user_id":"9",
				"referenced_tweets":[{"type":"quoted","id":"5"},{"type":"replied_to","id":"900"}]}],
			"includes":{"users":[{"id":"8","username":"other"}]},
			"meta":{}}`)
	})

	tw := newTwitterServer(t, mux)
	mentions, err := tw.Mentions(context.Background(), 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mentions) != 2 {
		t.Fatalf("expected 2 mentions, got %d", len(mentions))
	}
	if mentions[0].ID != 1002 || mentions[0].AuthorHandle != "reader" || mentions[0].HasParent() {
		t.Errorf("unexpected first mention: %+v", mentions[0])
	}
	if mentions[1].InReplyToStatusID != "900" || mentions[1].InReplyToUserID != "9" {
		t.Errorf("expected replied_to parent 900, got %+v", mentions[1])
	}
	for _, since := range sinceIDs {
		if since != "1000" {
			t.Errorf("expected since_id=1000, got %q", since)
		}
	}
}

func TestTwitter_GetTweetAndErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/2/tweets/900", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"data":{"id":"900","text":"read 9780141439518","author_id":"7"},
			"includes":{"users":[{"id":"7","username":"reader"}]}}`)
	})
	mux.HandleFunc("/2/tweets/901", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"title":"Not Found Error"}`, http.StatusNotFound)
	})

	tw := newTwitterServer(t, mux)

	parent, err := tw.GetTweet(context.Background(), "900")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parent.Text != "read 9780141439518" || parent.AuthorID != "7" {
		t.Errorf("unexpected parent: %+v", parent)
	}

	_, err = tw.GetTweet(context.Background(), "901")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		t.Errorf("expected APIError 404, got %v", err)
	}
}

func TestTwitter_PostReply(t *testing.T) {
	var got map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/2/tweets", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprint(w, `{"data":{"id":"2000","text":"ok"}}`)
	})

	tw := newTwitterServer(t, mux)
	if err := tw.PostReply(context.Background(), 1002, "Hi 👋 @reader hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["text"] != "Hi 👋 @reader hello" {
		t.Errorf("unexpected text: %v", got["text"])
	}
	reply, _ := got["reply"].(map[string]any)
	if reply["in_reply_to_tweet_id"] != "1002" {
		t.Errorf("expected in_reply_to_tweet_id 1002, got %v", reply)
	}
}

const replayYAML = `
me:
  id: "42"
  handle: borrowbot
tweets:
  - id: 900
    author_id: "7"
    author_handle: reader
    text: read 9780141439518
mentions:
  - id: 1001
    author_handle: reader
    text: "@borrowbot 0141439513"
  - id: 1002
    author_handle: reader
    text: "@borrowbot this one"
    in_reply_to_status_id: "900"
`

func TestReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mentions.yaml")
	if err := os.WriteFile(path, []byte(replayYAML), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	var out bytes.Buffer
	r, err := LoadReplay(path, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	me, _ := r.Me(ctx)
	if me.ID != "42" || me.Handle != "borrowbot" {
		t.Errorf("unexpected identity: %+v", me)
	}

	mentions, _ := r.Mentions(ctx, 1001)
	if len(mentions) != 1 || mentions[0].ID != 1002 {
		t.Errorf("expected only mention 1002, got %+v", mentions)
	}

	parent, err := r.GetTweet(ctx, "900")
	if err != nil || parent.AuthorHandle != "reader" {
		t.Errorf("expected parent 900, got %+v %v", parent, err)
	}
	if _, err := r.GetTweet(ctx, "12345"); err == nil {
		t.Error("expected error for unknown tweet")
	}

	if err := r.PostReply(ctx, 1002, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "1002: hello") {
		t.Errorf("expected reply printed, got %q", out.String())
	}
	if replies := r.Replies(); len(replies) != 1 || replies[0].MentionID != 1002 {
		t.Errorf("unexpected replies: %+v", replies)
	}
}

func TestLoadReplay_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("mentions: [: nope"), 0o644)

	if _, err := LoadReplay(path, nil); err == nil {
		t.Error("expected parse error")
	}
}
