package bot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ppiankov/borrowbot/internal/model"
)

// ErrMalformedCursor is returned when the cursor file does not hold a single decimal id
var ErrMalformedCursor = errors.New("malformed cursor")

// CursorStore persists the id of the most recently claimed mention
type CursorStore interface {
	Read() (int64, bool, error)
	Advance(id int64) error
}

// FileCursor keeps the cursor as a single decimal id in a file.
// Writes never move it backwards.
type FileCursor struct {
	path string

	mu      sync.Mutex
	loaded  bool
	present bool
	current int64
}

// NewFileCursor creates a cursor stored at path
func NewFileCursor(path string) *FileCursor {
	return &FileCursor{path: path}
}

// Read returns the stored id. ok is false when no cursor has been written yet.
func (c *FileCursor) Read() (id int64, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Advance stores max(current, id)
func (c *FileCursor) Advance(id int64) error {
	if id <= 0 {
		return &model.CursorError{Path: c.path, Op: "write", Err: model.ErrMalformedID}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current, present, err := c.load()
	if err != nil {
		return err
	}
	if present && id <= current {
		return nil
	}

	if err := c.write(id); err != nil {
		return &model.CursorError{Path: c.path, Op: "write", Err: err}
	}
	c.current = id
	c.present = true
	return nil
}

func (c *FileCursor) load() (int64, bool, error) {
	if c.loaded {
		return c.current, c.present, nil
	}

	raw, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		c.loaded = true
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &model.CursorError{Path: c.path, Op: "read", Err: err}
	}

	text := strings.TrimSpace(string(raw))
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 || strings.HasPrefix(text, "+") {
		return 0, false, &model.CursorError{
			Path: c.path,
			Op:   "read",
			Err:  fmt.Errorf("%w: %q", ErrMalformedCursor, text),
		}
	}

	c.loaded = true
	c.present = true
	c.current = id
	return id, true, nil
}

func (c *FileCursor) write(id int64) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".cursor-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(strconv.FormatInt(id, 10)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
