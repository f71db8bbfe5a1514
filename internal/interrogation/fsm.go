package interrogation

import (
	"context"
	"fmt"

	"github.com/mavunolabs/shamba/internal/domain"
)

// StateNone as a transition target means the machine is done.
const StateNone StateTag = ""

// maxEnterHops bounds eager on-enter chaining so a cyclic machine definition
// fails loudly instead of looping.
const maxEnterHops = 32

// StateTag identifies one dialog-machine state. Tags are persisted in
// FlowState, so renaming one invalidates in-flight sessions.
type StateTag string

// State is one node in a dialog machine. Behavior lives in these three
// callbacks; the persisted session carries only the tag.
//
// OnEnter runs when the state is entered and may immediately redirect to
// another state (return a different tag) or finish the machine (StateNone).
// Returning its own tag, or leaving OnEnter nil, settles in the state.
// Question renders the prompt for the settled state. OnResponse consumes an
// answer and names the next state: its own tag re-asks, another tag
// transitions, StateNone finishes.
type State struct {
	Tag        StateTag
	OnEnter    func(ctx context.Context, c *domain.Customer, fs *FlowState) (StateTag, error)
	Question   func(ctx context.Context, c *domain.Customer, fs *FlowState) (string, error)
	OnResponse func(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (StateTag, error)
}

// Machine is a static dialog-machine definition shared by all sessions.
type Machine struct {
	Initial StateTag
	States  map[StateTag]State
}

// FsmInterrogator drives a Machine as an interrogation unit. The only
// per-session data is FlowState.FsmState plus scratch; the machine itself is
// immutable.
type FsmInterrogator struct {
	key     string
	machine Machine
	needed  func(c *domain.Customer) bool
}

// NewFsm builds a machine-driven interrogator.
func NewFsm(key string, machine Machine, needed func(c *domain.Customer) bool) *FsmInterrogator {
	return &FsmInterrogator{key: key, machine: machine, needed: needed}
}

// Key names the interrogator.
func (fi *FsmInterrogator) Key() string { return fi.key }

// IsNeeded reports whether the machine still has something to collect.
func (fi *FsmInterrogator) IsNeeded(c *domain.Customer) bool { return fi.needed(c) }

// AskOrAnswer runs one exchange.
func (fi *FsmInterrogator) AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error) {
	if fs.FsmState == "" {
		return fi.enter(ctx, c, fi.machine.Initial, fs)
	}

	st, ok := fi.machine.States[StateTag(fs.FsmState)]
	if !ok {
		return Result{}, fmt.Errorf("unknown dialog state %q in %s", fs.FsmState, fi.key)
	}

	if input == "" {
		return fi.ask(ctx, c, st, fs)
	}

	next, err := st.OnResponse(ctx, c, input, fs)
	if err != nil {
		return Result{}, err
	}
	if next == st.Tag {
		// Same tag: re-ask. The question callback may still render differently
		// if OnResponse updated scratch.
		return fi.ask(ctx, c, st, fs)
	}
	if next == StateNone {
		fs.FsmState = ""
		return Complete(), nil
	}
	return fi.enter(ctx, c, next, fs)
}

// enter settles into a state, following on-enter redirects eagerly, and asks
// the settled state's question.
func (fi *FsmInterrogator) enter(ctx context.Context, c *domain.Customer, tag StateTag, fs *FlowState) (Result, error) {
	for hops := 0; hops < maxEnterHops; hops++ {
		st, ok := fi.machine.States[tag]
		if !ok {
			return Result{}, fmt.Errorf("unknown dialog state %q in %s", tag, fi.key)
		}
		next := tag
		if st.OnEnter != nil {
			var err error
			next, err = st.OnEnter(ctx, c, fs)
			if err != nil {
				return Result{}, err
			}
		}
		if next == StateNone {
			fs.FsmState = ""
			return Complete(), nil
		}
		if next == tag {
			fs.FsmState = string(tag)
			return fi.ask(ctx, c, st, fs)
		}
		tag = next
	}
	return Result{}, fmt.Errorf("dialog machine %s did not settle after %d hops", fi.key, maxEnterHops)
}

func (fi *FsmInterrogator) ask(ctx context.Context, c *domain.Customer, st State, fs *FlowState) (Result, error) {
	text, err := st.Question(ctx, c, fs)
	if err != nil {
		return Result{}, err
	}
	return Continue(text), nil
}
