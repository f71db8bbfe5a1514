package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/mavunolabs/shamba/internal/domain"
	"github.com/mavunolabs/shamba/internal/store"
)

type sendCall struct {
	phone    string
	template string
	vars     map[string]string
}

type recordingMessenger struct {
	calls []sendCall
}

func (m *recordingMessenger) SendTemplate(ctx context.Context, phone, template string, vars map[string]string) error {
	m.calls = append(m.calls, sendCall{phone: phone, template: template, vars: vars})
	return nil
}

// welcomeRepo stubs just the repository calls the scheduler makes. The
// embedded interface panics on anything else, which is what we want in a
// test.
type welcomeRepo struct {
	store.Repository
	session  *domain.DialogSession
	customer *domain.Customer
}

func (r *welcomeRepo) LatestSession(ctx context.Context, phone, flowType string) (*domain.DialogSession, error) {
	return r.session, nil
}

func (r *welcomeRepo) GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	return r.customer, nil
}

func testClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestWelcomeFiresAfterRegistrationFinished(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	repo := &welcomeRepo{
		session:  &domain.DialogSession{Finished: true, UpdatedAt: now},
		customer: &domain.Customer{ID: "c1", Phone: "+254712345678", FirstName: "Jane", LastName: "Doe"},
	}
	sent := &recordingMessenger{}

	w := NewWelcomeScheduler(repo, sent, time.Minute, testClock(now))
	var fire func()
	w.after = func(d time.Duration, f func()) { fire = f }

	w.Schedule("c1", "+254712345678")
	fire()

	if len(sent.calls) != 1 {
		t.Fatalf("sends = %d, want 1", len(sent.calls))
	}
	call := sent.calls[0]
	if call.template != TemplateWelcome || call.phone != "+254712345678" {
		t.Errorf("call = %+v", call)
	}
	if call.vars["name"] != "Jane Doe" {
		t.Errorf("vars = %v", call.vars)
	}
}

func TestWelcomeSupersededByLaterSchedule(t *testing.T) {
	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	current := base
	repo := &welcomeRepo{
		session:  &domain.DialogSession{Finished: true, UpdatedAt: base},
		customer: &domain.Customer{ID: "c1", Phone: "+254712345678"},
	}
	sent := &recordingMessenger{}

	w := NewWelcomeScheduler(repo, sent, time.Minute, func() time.Time { return current })
	var fires []func()
	w.after = func(d time.Duration, f func()) { fires = append(fires, f) }

	w.Schedule("c1", "+254712345678")
	current = base.Add(30 * time.Second)
	w.Schedule("c1", "+254712345678")

	// The first timer fires but has been superseded; only the second sends.
	fires[0]()
	if len(sent.calls) != 0 {
		t.Fatalf("superseded schedule sent anyway: %+v", sent.calls)
	}
	fires[1]()
	if len(sent.calls) != 1 {
		t.Fatalf("sends = %d, want 1", len(sent.calls))
	}
}

func TestWelcomeHeldWhileRegistrationActive(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	repo := &welcomeRepo{
		// Unfinished session touched after the schedule: mid-registration.
		session:  &domain.DialogSession{Finished: false, UpdatedAt: now.Add(10 * time.Second)},
		customer: &domain.Customer{ID: "c1", Phone: "+254712345678"},
	}
	sent := &recordingMessenger{}

	w := NewWelcomeScheduler(repo, sent, time.Minute, testClock(now))
	var fire func()
	w.after = func(d time.Duration, f func()) { fire = f }

	w.Schedule("c1", "+254712345678")
	fire()

	if len(sent.calls) != 0 {
		t.Fatalf("welcome sent during active registration: %+v", sent.calls)
	}
}
