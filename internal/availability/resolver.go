package availability

import (
	"context"

	"github.com/ppiankov/borrowbot/internal/model"
)

// Catalog is the lookup surface the resolver depends on
type Catalog interface {
	GetEdition(ctx context.Context, isbn string) (*model.Edition, error)
	GetAvailability(ctx context.Context, identifier string) (*model.LendingStatus, error)
	FindAvailableWork(ctx context.Context, workID string) (string, error)
}

// Resolver maps one canonical ISBN to an availability outcome.
// It never retries; each failing step returns its own error type.
type Resolver struct {
	catalog Catalog
}

// NewResolver creates a resolver backed by catalog
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve decides what can be offered for isbn: the edition itself, another
// edition of the same work, or nothing.
func (r *Resolver) Resolve(ctx context.Context, isbn string) (model.Outcome, error) {
	edition, err := r.catalog.GetEdition(ctx, isbn)
	if err != nil {
		return model.Outcome{}, &model.EditionError{ISBN: isbn, Err: err}
	}
	if edition == nil {
		return model.NotFound(), nil
	}

	if edition.OCAID != "" {
		status, err := r.catalog.GetAvailability(ctx, edition.OCAID)
		if err != nil {
			return model.Outcome{}, &model.AvailabilityError{Identifier: edition.OCAID, Err: err}
		}
		edition.Availability = status
		if tier := status.Tier(); tier != model.TierNone {
			return model.ReadableNow(tier, isbn), nil
		}
	}

	if workID := edition.WorkID(); workID != "" {
		work, err := r.catalog.FindAvailableWork(ctx, workID)
		if err != nil {
			return model.Outcome{}, &model.WorkSearchError{WorkID: workID, Err: err}
		}
		if work != "" {
			return model.AlternateEdition(work), nil
		}
	}

	return model.Unavailable(isbn), nil
}
