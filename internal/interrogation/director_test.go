package interrogation

import (
	"context"
	"testing"

	"github.com/mavunolabs/shamba/internal/domain"
)

type fakeDirector struct {
	id  string
	bid float64
}

func (f *fakeDirector) ID() string { return f.id }

func (f *fakeDirector) MakeBid(ctx context.Context, c *domain.Customer, surveyTitle string) (float64, error) {
	return f.bid, nil
}

func (f *fakeDirector) Hello(c *domain.Customer) string   { return "hello from " + f.id }
func (f *fakeDirector) Goodbye(c *domain.Customer) string { return "bye from " + f.id }

func (f *fakeDirector) AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error) {
	return Complete(), nil
}

func TestRegistrySelectsHighestBid(t *testing.T) {
	low := &fakeDirector{id: "low", bid: 1}
	high := &fakeDirector{id: "high", bid: 10}
	r := NewRegistry(low, high)

	got, err := r.Select(context.Background(), &domain.Customer{}, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got == nil || got.ID() != "high" {
		t.Fatalf("Select = %v, want high", got)
	}
}

func TestRegistryTieGoesToEarlierRegistration(t *testing.T) {
	first := &fakeDirector{id: "first", bid: 5}
	second := &fakeDirector{id: "second", bid: 5}
	r := NewRegistry(first, second)

	got, err := r.Select(context.Background(), &domain.Customer{}, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got == nil || got.ID() != "first" {
		t.Fatalf("Select = %v, want first", got)
	}
}

func TestRegistryNoPositiveBids(t *testing.T) {
	r := NewRegistry(&fakeDirector{id: "a", bid: 0}, &fakeDirector{id: "b", bid: -1})

	got, err := r.Select(context.Background(), &domain.Customer{}, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got != nil {
		t.Fatalf("Select = %v, want nil", got.ID())
	}
}

func TestRegistryLookup(t *testing.T) {
	d := &fakeDirector{id: "known", bid: 1}
	r := NewRegistry(d)

	if got := r.Lookup("known"); got != d {
		t.Errorf("Lookup(known) = %v", got)
	}
	if got := r.Lookup("missing"); got != nil {
		t.Errorf("Lookup(missing) = %v, want nil", got)
	}
}
