package messaging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mavunolabs/shamba/internal/domain"
	"github.com/mavunolabs/shamba/internal/store"
)

const fireTimeout = 30 * time.Second

// WelcomeScheduler sends a delayed welcome message after a customer becomes
// addressable. Scheduling is idempotent per customer: every call pushes the
// send time back, and only the newest pending entry fires. A welcome is also
// held back while the customer is still mid-registration, because the
// registration flow reschedules on every completed step.
type WelcomeScheduler struct {
	repo      store.Repository
	messenger Messenger
	delay     time.Duration
	now       func() time.Time
	after     func(d time.Duration, f func()) // swapped out in tests

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewWelcomeScheduler builds a scheduler.
func NewWelcomeScheduler(repo store.Repository, messenger Messenger, delay time.Duration, now func() time.Time) *WelcomeScheduler {
	if now == nil {
		now = time.Now
	}
	return &WelcomeScheduler{
		repo:      repo,
		messenger: messenger,
		delay:     delay,
		now:       now,
		after:     func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		pending:   map[string]time.Time{},
	}
}

// Schedule queues (or re-queues) the welcome for a customer. Fire-and-forget:
// errors at send time are logged, never surfaced to the dialog.
func (w *WelcomeScheduler) Schedule(customerID, phone string) {
	scheduledAt := w.now()
	w.mu.Lock()
	w.pending[customerID] = scheduledAt
	w.mu.Unlock()

	w.after(w.delay, func() { w.fire(customerID, phone, scheduledAt) })
}

func (w *WelcomeScheduler) fire(customerID, phone string, scheduledAt time.Time) {
	w.mu.Lock()
	latest, ok := w.pending[customerID]
	if !ok || latest.After(scheduledAt) {
		// Superseded by a later schedule; that one will fire instead.
		w.mu.Unlock()
		return
	}
	delete(w.pending, customerID)
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	sess, err := w.repo.LatestSession(ctx, phone, domain.FlowTypeRegistration)
	if err != nil {
		slog.Error("welcome check failed", "customer_id", customerID, "error", err)
		return
	}
	if sess != nil && !sess.Finished && sess.UpdatedAt.After(scheduledAt) {
		// Still actively registering; the flow reschedules as it progresses.
		return
	}

	c, err := w.repo.GetCustomerByPhone(ctx, phone)
	if err != nil || c == nil {
		slog.Error("welcome customer lookup failed", "customer_id", customerID, "error", err)
		return
	}

	vars := map[string]string{"name": c.FullName()}
	if err := w.messenger.SendTemplate(ctx, phone, TemplateWelcome, vars); err != nil {
		slog.Error("welcome send failed", "customer_id", customerID, "error", err)
	}
}
