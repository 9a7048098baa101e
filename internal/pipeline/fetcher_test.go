package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/borrowbot/internal/cache"
)

func newTestFetcher() *Fetcher {
	return NewFetcher(FetcherOptions{
		Timeout:   5 * time.Second,
		UserAgent: "test-agent",
		MaxBytes:  1 << 20,
	})
}

func TestFetchPage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("expected User-Agent test-agent, got %s", ua)
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	html, err := newTestFetcher().FetchPage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if html != "<html><body>OK</body></html>" {
		t.Errorf("unexpected HTML: %s", html)
	}
}

func TestFetchPage_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher().FetchPage(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if got := err.Error(); got != "unexpected status: 404 404 Not Found" {
		t.Errorf("unexpected error: %s", got)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Errorf("expected StatusError 404, got %v", err)
	}
}

func TestFetchPage_NoRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := newTestFetcher().FetchPage(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 503")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", attempts.Load())
	}
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			_, _ = fmt.Fprint(w, `{"ocaid":"prideprejudice00aust"}`)
		case "/bad.json":
			_, _ = fmt.Fprint(w, `{not json`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	f := newTestFetcher()
	ctx := context.Background()

	var out struct {
		OCAID string `json:"ocaid"`
	}
	status, err := f.GetJSON(ctx, server.URL+"/ok.json", &out)
	if err != nil || status != http.StatusOK {
		t.Fatalf("expected 200 without error, got %d %v", status, err)
	}
	if out.OCAID != "prideprejudice00aust" {
		t.Errorf("unexpected decode result: %+v", out)
	}

	status, err = f.GetJSON(ctx, server.URL+"/missing.json", &out)
	var statusErr *StatusError
	if status != http.StatusNotFound || !errors.As(err, &statusErr) {
		t.Errorf("expected 404 StatusError, got %d %v", status, err)
	}

	status, err = f.GetJSON(ctx, server.URL+"/bad.json", &out)
	if err == nil || status != http.StatusOK {
		t.Errorf("expected decode error with status 200, got %d %v", status, err)
	}
}

func TestResolve_FollowsOneHop(t *testing.T) {
	var finalHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD request, got %s", r.Method)
		}
		http.Redirect(w, r, "/dp/0141439513/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/dp/0141439513/", func(w http.ResponseWriter, r *http.Request) {
		finalHits.Add(1)
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	got := newTestFetcher().Resolve(context.Background(), server.URL+"/short")
	if got != server.URL+"/dp/0141439513/" {
		t.Errorf("expected single hop to /dp/0141439513/, got %s", got)
	}
	if finalHits.Load() != 0 {
		t.Error("expected the redirect target not to be requested")
	}
}

func TestResolve_NoRedirectOrFailureReturnsOriginal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := newTestFetcher()
	ctx := context.Background()

	if got := f.Resolve(ctx, server.URL+"/page"); got != server.URL+"/page" {
		t.Errorf("expected original URL, got %s", got)
	}

	dead := "http://127.0.0.1:1/unreachable"
	if got := f.Resolve(ctx, dead); got != dead {
		t.Errorf("expected original URL on transport failure, got %s", got)
	}

	if got := f.Resolve(ctx, "httpfoo"); got != "httpfoo" {
		t.Errorf("expected original token for non-URL, got %s", got)
	}
}

func TestResolve_Memoized(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Location", "https://www.amazon.com/dp/0141439513/")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer server.Close()

	f := NewFetcher(FetcherOptions{
		Timeout:   5 * time.Second,
		Redirects: cache.NewMemoryCache(time.Minute, time.Minute),
	})

	for i := 0; i < 3; i++ {
		got := f.Resolve(context.Background(), server.URL+"/abc")
		if got != "https://www.amazon.com/dp/0141439513/" {
			t.Fatalf("unexpected resolution: %s", got)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 probe with memoization, got %d", hits.Load())
	}
}
