package model

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the orchestrator
type Kind int

const (
	KindUnknown    Kind = iota
	KindTransport       // network, timeout, unexpected status
	KindStructural      // malformed identifier, mention or missing field; never retried
	KindNotFound        // legitimate empty result
	KindPolicy          // deliberate no-op, e.g. a reply loop
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStructural:
		return "structural"
	case KindNotFound:
		return "not_found"
	case KindPolicy:
		return "policy"
	default:
		return "unknown"
	}
}

// ErrSkipped marks a mention that was deliberately left unanswered
var ErrSkipped = errors.New("mention skipped")

// ErrMalformedID is returned for ids that are not positive decimal integers
var ErrMalformedID = errors.New("id must be a positive integer")

// KindOf returns the classification of err, KindUnknown if none applies
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, ErrSkipped) {
		return KindPolicy
	}
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// ExtractionError aborts identifier extraction for a whole text
type ExtractionError struct {
	Text string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("find isbns: text=%q: %v", e.Text, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
func (e *ExtractionError) Kind() Kind    { return KindStructural }

// ScrapeError is a single source adapter failing on a URL
type ScrapeError struct {
	Adapter string
	URL     string
	Err     error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("%s: scrape %q: %v", e.Adapter, e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }
func (e *ScrapeError) Kind() Kind    { return KindTransport }

// GetTweetError is a failure to fetch a parent post
type GetTweetError struct {
	ID  string
	Err error
}

func (e *GetTweetError) Error() string {
	return fmt.Sprintf("get tweet %q: %v", e.ID, e.Err)
}

func (e *GetTweetError) Unwrap() error { return e.Err }

func (e *GetTweetError) Kind() Kind {
	if errors.Is(e.Err, ErrMalformedID) {
		return KindStructural
	}
	return KindTransport
}

// EditionError is a failed bibliographic lookup (not an absent record)
type EditionError struct {
	ISBN string
	Err  error
}

func (e *EditionError) Error() string {
	return fmt.Sprintf("get edition %q: %v", e.ISBN, e.Err)
}

func (e *EditionError) Unwrap() error { return e.Err }
func (e *EditionError) Kind() Kind    { return KindTransport }

// AvailabilityError is a failed lending-status lookup
type AvailabilityError struct {
	Identifier string
	Err        error
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("get availability %q: %v", e.Identifier, e.Err)
}

func (e *AvailabilityError) Unwrap() error { return e.Err }
func (e *AvailabilityError) Kind() Kind    { return KindTransport }

// WorkSearchError is a failed work-level alternate edition search
type WorkSearchError struct {
	WorkID string
	Err    error
}

func (e *WorkSearchError) Error() string {
	return fmt.Sprintf("find available work %q: %v", e.WorkID, e.Err)
}

func (e *WorkSearchError) Unwrap() error { return e.Err }
func (e *WorkSearchError) Kind() Kind    { return KindTransport }

// SendError is a reply that could not be posted
type SendError struct {
	MentionID  int64
	Message    string
	Err        error
	structural bool
}

// NewStructuralSendError reports a reply rejected before reaching the platform
func NewStructuralSendError(mentionID int64, reason string) *SendError {
	return &SendError{MentionID: mentionID, Err: errors.New(reason), structural: true}
}

func (e *SendError) Error() string {
	if e.structural {
		return fmt.Sprintf("send reply: %v", e.Err)
	}
	return fmt.Sprintf("send reply %q to mention %d: %v", e.Message, e.MentionID, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

func (e *SendError) Kind() Kind {
	if e.structural {
		return KindStructural
	}
	return KindTransport
}

// CursorError is a failure reading or writing the durable cursor
type CursorError struct {
	Path string
	Op   string // "read" or "write"
	Err  error
}

func (e *CursorError) Error() string {
	return fmt.Sprintf("cursor %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CursorError) Unwrap() error { return e.Err }
func (e *CursorError) Kind() Kind    { return KindStructural }
