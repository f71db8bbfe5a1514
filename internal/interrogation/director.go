package interrogation

import (
	"context"

	"github.com/mavunolabs/shamba/internal/domain"
)

// Director orchestrates a whole dialog flow (registration, one survey) out
// of interrogation units. Directors compete for an incoming session by bid:
// a positive bid means "I have work to do with this customer".
type Director interface {
	// ID is the director's stable identity. It is persisted in session
	// snapshots, so it must not change while sessions are in flight.
	ID() string

	// MakeBid returns the director's interest in the request. Zero or
	// negative means no interest. surveyTitle is the survey the request was
	// addressed to, or "" for the general line.
	MakeBid(ctx context.Context, c *domain.Customer, surveyTitle string) (float64, error)

	// Hello is the greeting prefixed to the first question of a new dialog.
	Hello(c *domain.Customer) string

	// Goodbye is the farewell for a normally completed dialog.
	Goodbye(c *domain.Customer) string

	// AskOrAnswer advances the flow one exchange, same protocol as
	// Interrogator.AskOrAnswer.
	AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error)
}

// Registry is the ordered set of known directors. Order matters twice: it
// breaks bid ties (earlier wins) and it is the resume path for persisted
// snapshots (Lookup by id).
type Registry struct {
	directors []Director
}

// NewRegistry builds a registry preserving the given order.
func NewRegistry(directors ...Director) *Registry {
	return &Registry{directors: directors}
}

// Select runs a bidding round and returns the director with the strictly
// highest positive bid. Ties go to the earlier registration. Returns nil when
// no director bids above zero.
func (r *Registry) Select(ctx context.Context, c *domain.Customer, surveyTitle string) (Director, error) {
	var best Director
	var bestBid float64
	for _, d := range r.directors {
		bid, err := d.MakeBid(ctx, c, surveyTitle)
		if err != nil {
			return nil, err
		}
		if bid > 0 && bid > bestBid {
			best, bestBid = d, bid
		}
	}
	return best, nil
}

// Lookup finds a director by id, or nil.
func (r *Registry) Lookup(id string) Director {
	for _, d := range r.directors {
		if d.ID() == id {
			return d
		}
	}
	return nil
}
