// Package reply turns availability outcomes into reply text.
package reply

import (
	"fmt"
	"strings"

	"github.com/ppiankov/borrowbot/internal/model"
)

const (
	TemplateAvailable     = "available"
	TemplateAlternate     = "alternate_edition"
	TemplateUnavailable   = "unavailable"
	TemplateNotFound      = "not_found"
	TemplateInternalError = "internal_error"
)

// templates are filled with fmt verbs in the order documented beside each entry
var templates = map[string]string{
	// verb, openlibrary base, isbn
	TemplateAvailable: "you're in luck. This book appears to be %sable on @openlibrary: %s/isbn/%s",
	// openlibrary base, work id
	TemplateAlternate: "this exact edition doesn't appear to be available, however it seems a similar edition may be: %s/works/%s",
	// openlibrary base, isbn
	TemplateUnavailable: "this book doesn't appear to have a readable option yet, however you can still add it to your Want To Read list here: %s/isbn/%s",
	// help url
	TemplateNotFound: "sorry, I was unable to spot any books! Learn more about how I work here: %s\nIn short, I need an ISBN10, ISBN13, or Amazon link",
	// help url
	TemplateInternalError: "Woops, something broke over here! Learn more about how I work here: %s\nIn short, I need an ISBN10, ISBN13, or Amazon Link",
}

const greeting = "Hi 👋 @%s %s"

// Composer renders reply messages. It has no side effects.
type Composer struct {
	OpenLibraryURL string
	HelpURL        string
}

// NewComposer creates a composer linking books to openLibraryURL and help
// requests to helpURL
func NewComposer(openLibraryURL, helpURL string) *Composer {
	return &Composer{
		OpenLibraryURL: strings.TrimRight(openLibraryURL, "/"),
		HelpURL:        helpURL,
	}
}

// Compose renders the message body for an outcome
func (c *Composer) Compose(outcome model.Outcome) string {
	switch outcome.Kind {
	case model.OutcomeReadableNow:
		return fmt.Sprintf(templates[TemplateAvailable], outcome.Tier.Verb(), c.OpenLibraryURL, outcome.ISBN)
	case model.OutcomeAlternateEdition:
		return fmt.Sprintf(templates[TemplateAlternate], c.OpenLibraryURL, outcome.WorkID)
	case model.OutcomeUnavailable:
		return fmt.Sprintf(templates[TemplateUnavailable], c.OpenLibraryURL, outcome.ISBN)
	default:
		return c.NotFound()
	}
}

// NotFound is the reply for a mention without usable identifiers
func (c *Composer) NotFound() string {
	return fmt.Sprintf(templates[TemplateNotFound], c.HelpURL)
}

// InternalError is the reply sent when handling a mention failed
func (c *Composer) InternalError() string {
	return fmt.Sprintf(templates[TemplateInternalError], c.HelpURL)
}

// Greeting prefixes msg with the addressed handle
func (c *Composer) Greeting(handle, msg string) string {
	return fmt.Sprintf(greeting, strings.TrimPrefix(handle, "@"), msg)
}
