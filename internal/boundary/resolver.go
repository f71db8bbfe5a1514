// Package boundary resolves free-text place names to administrative-boundary
// records.
package boundary

import (
	"context"
	"log/slog"

	"github.com/mavunolabs/shamba/internal/domain"
	"github.com/mavunolabs/shamba/internal/store"
)

// Resolver resolves a free-text name within a candidate country to a single
// boundary record. Returns (nil, nil) when nothing matches.
type Resolver interface {
	Resolve(ctx context.Context, name, country string) (*domain.Boundary, error)
}

// StoreResolver resolves against the boundary reference table.
type StoreResolver struct {
	repo store.Repository
}

// NewStoreResolver creates a resolver backed by the repository.
func NewStoreResolver(repo store.Repository) *StoreResolver {
	return &StoreResolver{repo: repo}
}

// Resolve looks up boundary records by name. Two records with the same name
// is a data problem, not a user problem: it is reported to the log and
// resolved deterministically — first by id wins.
func (r *StoreResolver) Resolve(ctx context.Context, name, country string) (*domain.Boundary, error) {
	matches, err := r.repo.FindBoundaries(ctx, name, country)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		slog.Warn("ambiguous boundary name, using first by id",
			"name", name, "country", country, "candidates", ids)
	}
	return matches[0], nil
}
