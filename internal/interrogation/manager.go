package interrogation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mavunolabs/shamba/internal/domain"
	"github.com/mavunolabs/shamba/internal/store"
)

// DefaultFarewell closes a dialog when no director has anything to say.
const DefaultFarewell = "Thank you for contacting Shamba."

// Request is one stateless gateway callback.
type Request struct {
	// HopID is the gateway's session id for the current USSD hop. Gateways
	// drop and re-establish hops mid-dialog, so this is not the dialog id.
	HopID string
	// Phone is the caller's number as sent by the gateway.
	Phone string
	// Text is the gateway's cumulative answer string: every answer of the
	// current hop joined by "*".
	Text string
	// SurveyTitle addresses a named survey flow; empty means the general
	// registration line.
	SurveyTitle string
}

// Reply is what goes back to the gateway. Final selects the END prefix,
// which tears the USSD session down.
type Reply struct {
	Final bool
	Text  string
}

// Manager stitches stateless gateway callbacks into resumable dialogs: it
// binds each request to a persisted session, extracts the new answer from the
// cumulative text, selects a director by bidding, and persists the updated
// snapshot after every exchange.
type Manager struct {
	repo      store.Repository
	registry  *Registry
	staleness time.Duration
	language  string
	now       func() time.Time
}

// NewManager builds a session manager.
func NewManager(repo store.Repository, registry *Registry, staleness time.Duration, language string, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{repo: repo, registry: registry, staleness: staleness, language: language, now: now}
}

// Handle processes one gateway callback.
func (m *Manager) Handle(ctx context.Context, req Request) (Reply, error) {
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return Reply{}, err
	}

	flowType := domain.FlowTypeRegistration
	if req.SurveyTitle != "" {
		flowType = domain.SurveyFlowType(req.SurveyTitle)
	}

	sess, snap, err := m.bindSession(ctx, phone, flowType)
	if err != nil {
		return Reply{}, err
	}

	// A hop change on a live dialog means the gateway dropped the transport
	// and the user dialed back in: replay the pending question verbatim.
	// Only the hop id is refreshed; dialog state is untouched.
	if snap.Started && snap.LastHopID != "" && req.HopID != snap.LastHopID && snap.LastQuestion != "" {
		snap.LastHopID = req.HopID
		snap.AccumText = ""
		if err := m.persist(ctx, sess, snap, false); err != nil {
			return Reply{}, err
		}
		return Reply{Final: false, Text: snap.LastQuestion}, nil
	}

	input := ""
	if snap.Started {
		input = extractIncrement(snap.AccumText, req.Text)
	}

	c, err := m.bindCustomer(ctx, phone)
	if err != nil {
		return Reply{}, err
	}

	director, err := m.bindDirector(ctx, c, snap, req.SurveyTitle)
	if err != nil {
		return Reply{}, err
	}
	if director == nil {
		// Nothing to collect: close the hop politely and retire the session.
		if err := m.persist(ctx, sess, snap, true); err != nil {
			return Reply{}, err
		}
		return Reply{Final: true, Text: DefaultFarewell}, nil
	}

	res, err := director.AskOrAnswer(ctx, c, input, &snap.Flow)
	if err != nil {
		// Session state is deliberately not persisted on error: the previous
		// snapshot stays valid and the exchange can be retried.
		return Reply{}, fmt.Errorf("dialog %s for %s: %w", director.ID(), flowType, err)
	}

	switch res.Kind {
	case ResultContinue:
		text := res.Question
		if !snap.Started {
			if hello := director.Hello(c); hello != "" {
				text = hello + "\n" + text
			}
		}
		snap.Started = true
		snap.LastQuestion = text
		snap.AccumText = req.Text
		snap.LastHopID = req.HopID
		if err := m.persist(ctx, sess, snap, false); err != nil {
			return Reply{}, err
		}
		return Reply{Final: false, Text: text}, nil

	case ResultCancelled:
		farewell := res.Farewell
		if farewell == "" {
			farewell = DefaultFarewell
		}
		if err := m.persist(ctx, sess, snap, true); err != nil {
			return Reply{}, err
		}
		return Reply{Final: true, Text: farewell}, nil

	default: // ResultComplete
		farewell := director.Goodbye(c)
		if farewell == "" {
			farewell = DefaultFarewell
		}
		if err := m.persist(ctx, sess, snap, true); err != nil {
			return Reply{}, err
		}
		return Reply{Final: true, Text: farewell}, nil
	}
}

// bindSession resumes the latest live session for (phone, flow type) or
// starts a fresh one. An undecodable snapshot is logged and treated as
// missing rather than failing the dialog.
func (m *Manager) bindSession(ctx context.Context, phone, flowType string) (*domain.DialogSession, *Snapshot, error) {
	now := m.now()
	sess, err := m.repo.LatestSession(ctx, phone, flowType)
	if err != nil {
		return nil, nil, err
	}
	if sess != nil && sess.Live(m.staleness, now) {
		snap, err := DecodeSnapshot(sess.State)
		if err == nil {
			return sess, snap, nil
		}
		slog.Warn("discarding unreadable session snapshot",
			"session_id", sess.ID, "flow_type", flowType, "error", err)
	}
	fresh := &domain.DialogSession{
		ID:        uuid.NewString(),
		Phone:     phone,
		FlowType:  flowType,
		CreatedAt: now,
	}
	return fresh, &Snapshot{}, nil
}

func (m *Manager) bindCustomer(ctx context.Context, phone string) (*domain.Customer, error) {
	c, err := m.repo.GetCustomerByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	c = &domain.Customer{
		ID:         uuid.NewString(),
		Phone:      phone,
		JoinMethod: domain.JoinMethodUSSD,
		Language:   m.language,
		CreatedAt:  m.now(),
	}
	if err := m.repo.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}
	slog.Info("created customer from dialog contact", "customer_id", c.ID)
	return c, nil
}

// bindDirector reattaches the snapshot's director when the dialog is in
// flight, otherwise runs a bidding round.
func (m *Manager) bindDirector(ctx context.Context, c *domain.Customer, snap *Snapshot, surveyTitle string) (Director, error) {
	if snap.DirectorID != "" {
		if d := m.registry.Lookup(snap.DirectorID); d != nil {
			return d, nil
		}
		slog.Warn("session references unknown director, rebidding", "director_id", snap.DirectorID)
		*snap = Snapshot{}
	}
	d, err := m.registry.Select(ctx, c, surveyTitle)
	if err != nil {
		return nil, err
	}
	if d != nil {
		snap.DirectorID = d.ID()
	}
	return d, nil
}

func (m *Manager) persist(ctx context.Context, sess *domain.DialogSession, snap *Snapshot, finished bool) error {
	state, err := snap.Encode()
	if err != nil {
		return err
	}
	sess.State = state
	sess.Finished = finished
	sess.UpdatedAt = m.now()
	return m.repo.SaveSession(ctx, sess)
}

// extractIncrement recovers the newest answer from the gateway's cumulative
// text. When the previous cumulative string is a prefix of the new one the
// increment is everything after it; otherwise (gateway reset, trimmed
// history) fall back to the segment after the last "*". The stray "*" and
// space trimming is a compatibility shim for a gateway that occasionally
// injects an extra delimiter or a space around one.
func extractIncrement(accum, text string) string {
	if accum != "" && strings.HasPrefix(text, accum) {
		return strings.Trim(strings.TrimPrefix(text, accum), "* ")
	}
	if i := strings.LastIndex(text, "*"); i >= 0 {
		return strings.Trim(text[i+1:], "* ")
	}
	return strings.Trim(text, "* ")
}
