package boundary

import (
	"context"
	"strings"
	"testing"

	"github.com/mavunolabs/shamba/internal/domain"
	"github.com/mavunolabs/shamba/internal/store"
)

type boundaryRepo struct {
	store.Repository
	rows []*domain.Boundary
}

func (r *boundaryRepo) FindBoundaries(ctx context.Context, name, country string) ([]*domain.Boundary, error) {
	var out []*domain.Boundary
	for _, b := range r.rows {
		if strings.EqualFold(b.Name, name) && strings.EqualFold(b.Country, country) {
			out = append(out, b)
		}
	}
	return out, nil
}

func TestResolveSingleMatch(t *testing.T) {
	repo := &boundaryRepo{rows: []*domain.Boundary{
		{ID: "b1", Name: "Nakuru", Country: "kenya"},
	}}
	r := NewStoreResolver(repo)

	got, err := r.Resolve(context.Background(), "nakuru", "kenya")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got == nil || got.ID != "b1" {
		t.Fatalf("Resolve = %+v, want b1", got)
	}
}

func TestResolveNoMatchReturnsNil(t *testing.T) {
	r := NewStoreResolver(&boundaryRepo{})

	got, err := r.Resolve(context.Background(), "atlantis", "kenya")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != nil {
		t.Fatalf("Resolve = %+v, want nil", got)
	}
}

func TestResolveAmbiguousTakesFirstByID(t *testing.T) {
	repo := &boundaryRepo{rows: []*domain.Boundary{
		{ID: "b1", Name: "Eldoret", Country: "kenya"},
		{ID: "b2", Name: "Eldoret", Country: "kenya"},
	}}
	r := NewStoreResolver(repo)

	got, err := r.Resolve(context.Background(), "Eldoret", "kenya")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got == nil || got.ID != "b1" {
		t.Fatalf("Resolve = %+v, want b1", got)
	}
}
