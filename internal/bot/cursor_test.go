package bot

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ppiankov/borrowbot/internal/model"
)

func TestFileCursor_AbsentThenAdvance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_seen_id.txt")
	c := NewFileCursor(path)

	if _, ok, err := c.Read(); ok || err != nil {
		t.Fatalf("expected absent cursor, got ok=%v err=%v", ok, err)
	}

	if err := c.Advance(1500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "1500" {
		t.Errorf("expected file content 1500, got %q", raw)
	}

	// a fresh reader sees the persisted value
	id, ok, err := NewFileCursor(path).Read()
	if err != nil || !ok || id != 1500 {
		t.Errorf("expected 1500, got %d ok=%v err=%v", id, ok, err)
	}
}

func TestFileCursor_Monotonic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursor")
	c := NewFileCursor(path)

	_ = c.Advance(20)
	_ = c.Advance(10)

	id, _, _ := c.Read()
	if id != 20 {
		t.Errorf("expected cursor to stay at 20, got %d", id)
	}
}

func TestFileCursor_ConcurrentAdvanceKeepsMax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursor")
	c := NewFileCursor(path)

	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if err := c.Advance(id); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	id, _, _ := NewFileCursor(path).Read()
	if id != 50 {
		t.Errorf("expected 50, got %d", id)
	}
}

func TestFileCursor_Malformed(t *testing.T) {
	for _, content := range []string{"abc", "12 13", "-4", "+7", "0"} {
		path := filepath.Join(t.TempDir(), "cursor")
		_ = os.WriteFile(path, []byte(content), 0o644)

		_, _, err := NewFileCursor(path).Read()
		if !errors.Is(err, ErrMalformedCursor) {
			t.Errorf("%q: expected ErrMalformedCursor, got %v", content, err)
		}
		if model.KindOf(err) != model.KindStructural {
			t.Errorf("%q: expected structural, got %s", content, model.KindOf(err))
		}
	}
}

func TestFileCursor_TrailingNewlineAccepted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursor")
	_ = os.WriteFile(path, []byte("1234\n"), 0o644)

	id, ok, err := NewFileCursor(path).Read()
	if err != nil || !ok || id != 1234 {
		t.Errorf("expected 1234, got %d ok=%v err=%v", id, ok, err)
	}
}

func TestFileCursor_RejectsNonPositive(t *testing.T) {
	c := NewFileCursor(filepath.Join(t.TempDir(), "cursor"))

	var cursorErr *model.CursorError
	if err := c.Advance(0); !errors.As(err, &cursorErr) {
		t.Errorf("expected CursorError, got %v", err)
	}
}
