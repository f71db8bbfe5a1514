package interrogation

import (
	"context"

	"github.com/mavunolabs/shamba/internal/domain"
)

// tryAgainPrefix is prepended to a question when the previous answer failed
// validation. The question itself is always re-included so the user never
// loses context.
const tryAgainPrefix = "Sorry, that was not understood. Please try again.\n"

// Interrogator is the atomic question unit: it asks one logical question
// (possibly across several round trips) and persists the answer with a
// narrow field-list update.
//
// AskOrAnswer is the single call-and-response primitive. With empty input it
// means "ask your first question" and must return a Continue result with
// non-empty text. With input present it means "process this answer": a fully
// collected attribute yields Complete; invalid input yields a Continue
// re-prompt without advancing state or persisting anything.
type Interrogator interface {
	// Key names the interrogator; used for logging and scratch namespacing.
	Key() string

	// IsNeeded reports whether this interrogator still has something to
	// collect. It is a pure predicate over the customer: no side effects,
	// safe to call repeatedly and from multiple directors.
	IsNeeded(c *domain.Customer) bool

	// AskOrAnswer runs one exchange. See the interface comment for the
	// input/result protocol.
	AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error)
}

// FlowState is the mutable, persisted portion of one director's progress:
// the question pointer plus whatever scratch the current unit needs to
// resume. It is plain data — behavior is reconstructed from the director
// registry on every request.
type FlowState struct {
	// Step is the director's current pointer into its ordered unit list.
	Step int `json:"step"`
	// StepBegun marks that the current unit has already asked its first
	// question, so its IsNeeded is no longer re-evaluated mid-flight.
	StepBegun bool `json:"step_begun,omitempty"`
	// FsmState is the active dialog-machine state tag, when the current
	// unit is an FSM interrogator.
	FsmState string `json:"fsm_state,omitempty"`
	// SurveyID is the bound survey document id, for survey flows.
	SurveyID string `json:"survey_id,omitempty"`
	// Scratch holds unit-private resume data (candidate lists, raw text).
	Scratch map[string]string `json:"scratch,omitempty"`
}

// Put stores a scratch value.
func (fs *FlowState) Put(key, value string) {
	if fs.Scratch == nil {
		fs.Scratch = map[string]string{}
	}
	fs.Scratch[key] = value
}

// Get reads a scratch value.
func (fs *FlowState) Get(key string) string {
	return fs.Scratch[key]
}

// Drop removes a scratch value.
func (fs *FlowState) Drop(key string) {
	delete(fs.Scratch, key)
}
