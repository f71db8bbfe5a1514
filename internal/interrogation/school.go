package interrogation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mavunolabs/shamba/internal/domain"
	"github.com/mavunolabs/shamba/internal/places"
	"github.com/mavunolabs/shamba/internal/store"
)

const (
	schoolCandidateCount = 3
	schoolCandidatesKey  = "school_candidates"
)

type schoolCandidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SchoolInterrogator asks for the customer's nearest school in two phases:
// free-text name entry, then a confirmation menu over the closest corpus
// matches. "None of these" restarts the name entry. The candidate list is
// carried in flow scratch so the confirmation survives a session resume.
type SchoolInterrogator struct {
	key      string
	question string
	index    *places.Index
	repo     store.Repository
}

// NewSchool builds a school interrogator over a pre-built place index.
func NewSchool(key, question string, index *places.Index, repo store.Repository) *SchoolInterrogator {
	return &SchoolInterrogator{key: key, question: question, index: index, repo: repo}
}

// Key names the interrogator.
func (si *SchoolInterrogator) Key() string { return si.key }

// IsNeeded reports whether the customer still lacks a school.
func (si *SchoolInterrogator) IsNeeded(c *domain.Customer) bool { return c.SchoolID == "" }

// AskOrAnswer runs one exchange.
func (si *SchoolInterrogator) AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error) {
	input = strings.TrimSpace(input)

	if raw := fs.Get(schoolCandidatesKey); raw != "" {
		return si.confirm(ctx, c, input, raw, fs)
	}

	if input == "" {
		return Continue(si.question), nil
	}

	hits := si.index.Lookup(input, c.RegionID, schoolCandidateCount)
	if len(hits) == 0 {
		return Continue(tryAgainPrefix + si.question), nil
	}

	cands := make([]schoolCandidate, len(hits))
	for i, h := range hits {
		cands[i] = schoolCandidate{ID: h.School.ID, Name: h.School.Name}
	}
	encoded, err := json.Marshal(cands)
	if err != nil {
		return Result{}, fmt.Errorf("encode school candidates: %w", err)
	}
	fs.Put(schoolCandidatesKey, string(encoded))
	return Continue(confirmMenu(cands)), nil
}

func (si *SchoolInterrogator) confirm(ctx context.Context, c *domain.Customer, input, raw string, fs *FlowState) (Result, error) {
	var cands []schoolCandidate
	if err := json.Unmarshal([]byte(raw), &cands); err != nil {
		// Scratch is ours; damage means start over rather than fail the dialog.
		fs.Drop(schoolCandidatesKey)
		return Continue(si.question), nil
	}

	if input == "" {
		return Continue(confirmMenu(cands)), nil
	}

	n, err := strconv.Atoi(input)
	if err != nil || n < 0 || n > len(cands) {
		return Continue(tryAgainPrefix + confirmMenu(cands)), nil
	}
	if n == 0 {
		fs.Drop(schoolCandidatesKey)
		return Continue(si.question), nil
	}

	chosen := cands[n-1]
	if err := si.repo.UpdateCustomerFields(ctx, c.ID, map[string]any{"school_id": chosen.ID}); err != nil {
		return Result{}, err
	}
	c.SchoolID = chosen.ID
	fs.Drop(schoolCandidatesKey)
	return Complete(), nil
}

func confirmMenu(cands []schoolCandidate) string {
	var b strings.Builder
	b.WriteString("Which of these is your school?")
	for i, cand := range cands {
		fmt.Fprintf(&b, "\n%d. %s", i+1, cand.Name)
	}
	b.WriteString("\n0. None of these")
	return b.String()
}
