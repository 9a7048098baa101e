package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
)

func TestNewProxyFunc_Explicit(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure.local:3128", "internal.example")

	tests := []struct {
		target string
		want   string
	}{
		{"http://openlibrary.org/isbn/1.json", "http://proxy.local:3128"},
		{"https://archive.org/advancedsearch.php", "http://secure.local:3128"},
		{"https://internal.example/x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			u, _ := url.Parse(tt.target)
			got, err := proxy(&http.Request{URL: u})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("expected no proxy, got %v", got)
				}
				return
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("expected %s, got %v", tt.want, got)
			}
		})
	}
}

func TestRobotsChecker_IsAllowed(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			hits.Add(1)
			_, _ = fmt.Fprint(w, "User-agent: BorrowBot\nDisallow: /private\n\nUser-agent: *\nDisallow: /\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "BorrowBot/0.1 (+https://example.com)")
	ctx := context.Background()

	if !checker.IsAllowed(ctx, server.URL+"/book/show/1") {
		t.Error("expected /book/show/1 to be allowed for BorrowBot")
	}
	if checker.IsAllowed(ctx, server.URL+"/private/page") {
		t.Error("expected /private/page to be disallowed")
	}
	if hits.Load() != 1 {
		t.Errorf("expected robots.txt fetched once, got %d", hits.Load())
	}
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "BorrowBot/0.1")
	if !checker.IsAllowed(context.Background(), server.URL+"/anything") {
		t.Error("expected missing robots.txt to allow everything")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	if got := NormalizeUserAgent("BorrowBot/0.1 (+https://x)"); got != "BorrowBot" {
		t.Errorf("expected BorrowBot, got %s", got)
	}
	if got := NormalizeUserAgent(""); got != "" {
		t.Errorf("expected empty, got %s", got)
	}
}
