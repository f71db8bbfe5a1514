package interrogation

import (
	"context"
	"strings"

	"github.com/mavunolabs/shamba/internal/boundary"
	"github.com/mavunolabs/shamba/internal/domain"
	"github.com/mavunolabs/shamba/internal/store"
)

// RegionInterrogator asks for the customer's administrative region by name
// and resolves it against the boundary reference table. A name with no
// matching boundary is treated like any invalid answer: re-prompt, persist
// nothing.
type RegionInterrogator struct {
	key      string
	question string
	country  string
	resolver boundary.Resolver
	repo     store.Repository
}

// NewRegion builds a region interrogator scoped to one country.
func NewRegion(key, question, country string, resolver boundary.Resolver, repo store.Repository) *RegionInterrogator {
	return &RegionInterrogator{key: key, question: question, country: country, resolver: resolver, repo: repo}
}

// Key names the interrogator.
func (ri *RegionInterrogator) Key() string { return ri.key }

// IsNeeded reports whether the customer still lacks a region.
func (ri *RegionInterrogator) IsNeeded(c *domain.Customer) bool { return !c.HasLocation() }

// AskOrAnswer runs one exchange.
func (ri *RegionInterrogator) AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Continue(ri.question), nil
	}

	b, err := ri.resolver.Resolve(ctx, input, ri.country)
	if err != nil {
		return Result{}, err
	}
	if b == nil {
		return Continue(tryAgainPrefix + ri.question), nil
	}

	if err := ri.repo.UpdateCustomerFields(ctx, c.ID, map[string]any{"region_id": b.ID}); err != nil {
		return Result{}, err
	}
	c.RegionID = b.ID
	return Complete(), nil
}
