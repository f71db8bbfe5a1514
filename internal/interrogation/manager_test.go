package interrogation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mavunolabs/shamba/internal/domain"
)

// scriptedDirector asks a fixed question sequence, one answer per step.
type scriptedDirector struct {
	id        string
	bid       float64
	questions []string
}

func (d *scriptedDirector) ID() string { return d.id }

func (d *scriptedDirector) MakeBid(ctx context.Context, c *domain.Customer, surveyTitle string) (float64, error) {
	return d.bid, nil
}

func (d *scriptedDirector) Hello(c *domain.Customer) string   { return "Hi!" }
func (d *scriptedDirector) Goodbye(c *domain.Customer) string { return "Bye!" }

func (d *scriptedDirector) AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *FlowState) (Result, error) {
	if input != "" {
		fs.Step++
	}
	if fs.Step >= len(d.questions) {
		return Complete(), nil
	}
	return Continue(d.questions[fs.Step]), nil
}

func newManagerFixture(questions ...string) (*Manager, *stubStore) {
	repo := newStubStore()
	d := &scriptedDirector{id: "scripted", bid: 5, questions: questions}
	m := NewManager(repo, NewRegistry(d), 7*24*time.Hour, "en", fixedNow)
	return m, repo
}

func TestManagerRunsDialogOverCumulativeText(t *testing.T) {
	m, repo := newManagerFixture("Q1", "Q2")
	ctx := context.Background()
	phone := "+254712345678"

	reply, err := m.Handle(ctx, Request{HopID: "h1", Phone: phone, Text: ""})
	if err != nil {
		t.Fatalf("first exchange: %v", err)
	}
	if reply.Final || reply.Text != "Hi!\nQ1" {
		t.Fatalf("first reply = %+v", reply)
	}

	// The gateway sends the whole answer history each time.
	reply, err = m.Handle(ctx, Request{HopID: "h1", Phone: phone, Text: "a1"})
	if err != nil {
		t.Fatalf("second exchange: %v", err)
	}
	if reply.Final || reply.Text != "Q2" {
		t.Fatalf("second reply = %+v", reply)
	}

	reply, err = m.Handle(ctx, Request{HopID: "h1", Phone: phone, Text: "a1*a2"})
	if err != nil {
		t.Fatalf("final exchange: %v", err)
	}
	if !reply.Final || reply.Text != "Bye!" {
		t.Fatalf("final reply = %+v", reply)
	}

	sess, err := repo.LatestSession(ctx, phone, domain.FlowTypeRegistration)
	if err != nil || sess == nil {
		t.Fatalf("session missing: %v", err)
	}
	if !sess.Finished {
		t.Error("session not marked finished")
	}
}

func TestManagerCreatesCustomerOnFirstContact(t *testing.T) {
	m, repo := newManagerFixture("Q1")
	ctx := context.Background()

	if _, err := m.Handle(ctx, Request{HopID: "h1", Phone: "254 712 345 678", Text: ""}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	c, err := repo.GetCustomerByPhone(ctx, "+254712345678")
	if err != nil || c == nil {
		t.Fatalf("customer not created: %v", err)
	}
	if c.JoinMethod != domain.JoinMethodUSSD {
		t.Errorf("join method = %q", c.JoinMethod)
	}
}

func TestManagerReplaysQuestionOnHopChange(t *testing.T) {
	m, _ := newManagerFixture("Q1", "Q2")
	ctx := context.Background()
	phone := "+254712345678"

	first, err := m.Handle(ctx, Request{HopID: "h1", Phone: phone, Text: ""})
	if err != nil {
		t.Fatalf("first exchange: %v", err)
	}

	// Gateway dropped the hop; the user dialed back in. The pending question
	// comes back verbatim, no state advanced.
	replay, err := m.Handle(ctx, Request{HopID: "h2", Phone: phone, Text: ""})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.Final || replay.Text != first.Text {
		t.Fatalf("replay = %+v, want verbatim %q", replay, first.Text)
	}

	// Answering on the new hop resumes the dialog where it stood.
	reply, err := m.Handle(ctx, Request{HopID: "h2", Phone: phone, Text: "a1"})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if reply.Text != "Q2" {
		t.Fatalf("resume reply = %+v", reply)
	}
}

func TestManagerRejectsInvalidPhone(t *testing.T) {
	m, repo := newManagerFixture("Q1")

	_, err := m.Handle(context.Background(), Request{HopID: "h1", Phone: "bogus", Text: ""})
	if !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("err = %v, want ErrInvalidPhone", err)
	}
	if len(repo.sessions) != 0 {
		t.Error("session created for an invalid phone")
	}
}

func TestManagerEndsWhenNoDirectorBids(t *testing.T) {
	repo := newStubStore()
	d := &scriptedDirector{id: "idle", bid: 0}
	m := NewManager(repo, NewRegistry(d), 7*24*time.Hour, "en", fixedNow)

	reply, err := m.Handle(context.Background(), Request{HopID: "h1", Phone: "+254712345678", Text: ""})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !reply.Final || reply.Text != DefaultFarewell {
		t.Fatalf("reply = %+v", reply)
	}
}

func TestManagerStartsOverAfterStaleSession(t *testing.T) {
	m, repo := newManagerFixture("Q1", "Q2")
	ctx := context.Background()
	phone := "+254712345678"

	if _, err := m.Handle(ctx, Request{HopID: "h1", Phone: phone, Text: ""}); err != nil {
		t.Fatalf("first exchange: %v", err)
	}

	// Age the persisted session beyond the staleness threshold.
	for _, sess := range repo.sessions {
		sess.UpdatedAt = fixedNow().Add(-8 * 24 * time.Hour)
	}

	reply, err := m.Handle(ctx, Request{HopID: "h2", Phone: phone, Text: ""})
	if err != nil {
		t.Fatalf("fresh contact: %v", err)
	}
	if reply.Text != "Hi!\nQ1" {
		t.Fatalf("expected a fresh dialog, got %+v", reply)
	}
	if len(repo.sessions) != 2 {
		t.Errorf("sessions = %d, want a new row alongside the stale one", len(repo.sessions))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	in := &Snapshot{
		DirectorID:   "registration",
		Flow:         FlowState{Step: 3, StepBegun: true, FsmState: "crop_add", Scratch: map[string]string{"k": "v"}},
		AccumText:    "a*b",
		LastQuestion: "Q",
		LastHopID:    "h9",
		Started:      true,
	}
	data, err := in.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.DirectorID != in.DirectorID || out.Flow.Step != 3 || out.Flow.FsmState != "crop_add" ||
		out.AccumText != in.AccumText || out.LastQuestion != in.LastQuestion ||
		out.LastHopID != in.LastHopID || !out.Started {
		t.Errorf("round trip mismatch: %+v", out)
	}
	if out.Flow.Scratch["k"] != "v" {
		t.Errorf("scratch lost: %+v", out.Flow.Scratch)
	}

	if _, err := DecodeSnapshot([]byte(`{"v":99}`)); err == nil {
		t.Error("expected version rejection")
	}
}

func TestExtractIncrement(t *testing.T) {
	tests := []struct {
		accum, text, want string
	}{
		{"", "a1", "a1"},
		{"a1", "a1*a2", "a2"},
		{"a1*a2", "a1*a2*a3", "a3"},
		{"", "*a1", "a1"},
		{"a1", "a1* a2", "a2"},
		{"history lost", "x*y*z", "z"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := extractIncrement(tt.accum, tt.text); got != tt.want {
			t.Errorf("extractIncrement(%q, %q) = %q, want %q", tt.accum, tt.text, got, tt.want)
		}
	}
}
