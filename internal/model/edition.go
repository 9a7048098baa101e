package model

import "strings"

// Edition is one published instance of a book as recorded in the bibliographic catalog.
// It is fetched fresh for every resolution and never cached.
type Edition struct {
	ISBN         string         `json:"isbn"`
	OCAID        string         `json:"ocaid,omitempty"` // Internet Archive identifier, if scanned
	Works        []WorkRef      `json:"works,omitempty"`
	Availability *LendingStatus `json:"-"`
}

// WorkRef points an edition at its abstract work
type WorkRef struct {
	Key string `json:"key"` // e.g. "/works/OL45883W"
}

// WorkID returns the bare work identifier of the first work reference
func (e *Edition) WorkID() string {
	if e == nil || len(e.Works) == 0 {
		return ""
	}
	key := strings.TrimRight(e.Works[0].Key, "/")
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		key = key[idx+1:]
	}
	return key
}

// LendingStatus holds the access tiers reported by the lending catalog
type LendingStatus struct {
	IsReadable      bool `json:"is_readable"`
	IsLendable      bool `json:"is_lendable"`
	IsPrintDisabled bool `json:"is_printdisabled"`
}

// LendingTier describes how a digital copy may be accessed
type LendingTier string

const (
	TierNone          LendingTier = ""
	TierReadable      LendingTier = "readable"      // Open to read, no loan needed
	TierLendable      LendingTier = "lendable"      // Can be borrowed
	TierPrintDisabled LendingTier = "printdisabled" // Preview / print-disabled access only
)

// Tier returns the highest-priority tier that is set.
// Priority is fixed: readable > lendable > printdisabled.
func (s *LendingStatus) Tier() LendingTier {
	switch {
	case s == nil:
		return TierNone
	case s.IsReadable:
		return TierReadable
	case s.IsLendable:
		return TierLendable
	case s.IsPrintDisabled:
		return TierPrintDisabled
	default:
		return TierNone
	}
}

// Verb returns the reply verb for the tier
func (t LendingTier) Verb() string {
	switch t {
	case TierReadable:
		return "read"
	case TierLendable:
		return "borrow"
	case TierPrintDisabled:
		return "preview"
	default:
		return ""
	}
}

// OutcomeKind tags an availability outcome
type OutcomeKind string

const (
	OutcomeReadableNow      OutcomeKind = "readable_now"
	OutcomeAlternateEdition OutcomeKind = "alternate_edition"
	OutcomeUnavailable      OutcomeKind = "unavailable"
	OutcomeNotFound         OutcomeKind = "not_found"
)

// Outcome is the result of resolving one identifier. Exactly one Kind holds;
// use the constructors rather than building the struct by hand.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Tier   LendingTier `json:"tier,omitempty"`
	ISBN   string      `json:"isbn,omitempty"`
	WorkID string      `json:"work_id,omitempty"`
}

func ReadableNow(tier LendingTier, isbn string) Outcome {
	return Outcome{Kind: OutcomeReadableNow, Tier: tier, ISBN: isbn}
}

func AlternateEdition(workID string) Outcome {
	return Outcome{Kind: OutcomeAlternateEdition, WorkID: workID}
}

func Unavailable(isbn string) Outcome {
	return Outcome{Kind: OutcomeUnavailable, ISBN: isbn}
}

func NotFound() Outcome {
	return Outcome{Kind: OutcomeNotFound}
}
