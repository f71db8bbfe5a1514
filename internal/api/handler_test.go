package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mavunolabs/shamba/internal/domain"
	"github.com/mavunolabs/shamba/internal/interrogation"
	"github.com/mavunolabs/shamba/internal/store"
)

// handlerRepo stubs the repository calls one dialog exchange makes; the
// embedded interface panics on anything unexpected.
type handlerRepo struct {
	store.Repository
	customer *domain.Customer
	session  *domain.DialogSession
	pingErr  error
}

func (r *handlerRepo) GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	return r.customer, nil
}

func (r *handlerRepo) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	r.customer = c
	return nil
}

func (r *handlerRepo) LatestSession(ctx context.Context, phone, flowType string) (*domain.DialogSession, error) {
	return r.session, nil
}

func (r *handlerRepo) SaveSession(ctx context.Context, s *domain.DialogSession) error {
	r.session = s
	return nil
}

func (r *handlerRepo) Ping(ctx context.Context) error { return r.pingErr }

type echoDirector struct {
	title string
}

func (d *echoDirector) ID() string { return "echo" }

func (d *echoDirector) MakeBid(ctx context.Context, c *domain.Customer, surveyTitle string) (float64, error) {
	if d.title != "" && !strings.EqualFold(surveyTitle, d.title) {
		return 0, nil
	}
	return 1, nil
}

func (d *echoDirector) Hello(c *domain.Customer) string   { return "" }
func (d *echoDirector) Goodbye(c *domain.Customer) string { return "done" }

func (d *echoDirector) AskOrAnswer(ctx context.Context, c *domain.Customer, input string, fs *interrogation.FlowState) (interrogation.Result, error) {
	if input == "" {
		return interrogation.Continue("first question"), nil
	}
	return interrogation.Complete(), nil
}

func newTestRouter(repo store.Repository, directors ...interrogation.Director) http.Handler {
	registry := interrogation.NewRegistry(directors...)
	manager := interrogation.NewManager(repo, registry, time.Hour, "en", nil)
	h := NewHandler(manager, repo)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCallbackContinuesWithCONPrefix(t *testing.T) {
	h := newTestRouter(&handlerRepo{}, &echoDirector{})

	rec := postForm(t, h, "/ussd", url.Values{
		"sessionId":   {"h1"},
		"phoneNumber": {"+254712345678"},
		"text":        {""},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "CON first question" {
		t.Errorf("body = %q", body)
	}
}

func TestCallbackEndsWithENDPrefix(t *testing.T) {
	repo := &handlerRepo{}
	h := newTestRouter(repo, &echoDirector{})

	// First exchange opens the dialog, second answers and finishes it.
	postForm(t, h, "/ussd", url.Values{
		"sessionId": {"h1"}, "phoneNumber": {"+254712345678"}, "text": {""},
	})
	rec := postForm(t, h, "/ussd", url.Values{
		"sessionId": {"h1"}, "phoneNumber": {"+254712345678"}, "text": {"yes"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "END done" {
		t.Errorf("body = %q", got)
	}
}

func TestCallbackRejectsInvalidPhone(t *testing.T) {
	h := newTestRouter(&handlerRepo{}, &echoDirector{})

	rec := postForm(t, h, "/ussd", url.Values{
		"sessionId": {"h1"}, "phoneNumber": {"not-a-phone"}, "text": {""},
	})

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestSurveyRouteCarriesTitle(t *testing.T) {
	h := newTestRouter(&handlerRepo{}, &echoDirector{title: "harvest"})

	rec := postForm(t, h, "/ussd/survey/harvest", url.Values{
		"sessionId": {"h1"}, "phoneNumber": {"+254712345678"}, "text": {""},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "CON first question" {
		t.Errorf("body = %q", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestRouter(&handlerRepo{}, &echoDirector{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHealthEndpointUnhealthy(t *testing.T) {
	h := newTestRouter(&handlerRepo{pingErr: context.DeadlineExceeded}, &echoDirector{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}
