package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://openlibrary.org/isbn/9780141439518.json"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://archive.org/advancedsearch.php"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if len(limiter.limiters) != 2 {
		t.Errorf("expected one limiter per host, got %d", len(limiter.limiters))
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	target := "https://openlibrary.org"

	if err := limiter.Wait(ctx, target); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	shortCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(shortCtx, target); err == nil {
		t.Error("expected second wait to exceed the deadline")
	}
}

func TestLimiter_DisabledWhenZeroRate(t *testing.T) {
	limiter := NewLimiter(0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 20; i++ {
		if err := limiter.Wait(ctx, "https://archive.org"); err != nil {
			t.Fatalf("wait %d failed with limiting disabled: %v", i, err)
		}
	}
}

func TestLimiter_BadURL(t *testing.T) {
	limiter := NewLimiter(10, 1)
	if err := limiter.Wait(context.Background(), "://bad"); err == nil {
		t.Error("expected error for unparseable URL")
	}
}
