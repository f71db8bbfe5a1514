// Package api exposes the USSD gateway callback endpoints.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mavunolabs/shamba/internal/interrogation"
	"github.com/mavunolabs/shamba/internal/store"
)

// Gateway reply prefixes. CON keeps the USSD session open for another
// exchange; END tears it down.
const (
	replyContinue = "CON "
	replyEnd      = "END "
)

// Handler adapts gateway HTTP callbacks to the session manager.
type Handler struct {
	manager *interrogation.Manager
	repo    store.Repository
}

// NewHandler creates a gateway handler.
func NewHandler(manager *interrogation.Manager, repo store.Repository) *Handler {
	return &Handler{manager: manager, repo: repo}
}

// RegisterRoutes registers the gateway callback routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/ussd", h.HandleCallback)
	r.Post("/ussd/survey/{surveyTitle}", h.HandleCallback)
	r.Get("/healthz", h.HandleHealth)
}

// HandleCallback handles one gateway callback. The gateway posts form fields
// sessionId, phoneNumber and text, and expects a plain-text body starting
// with CON or END.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}

	req := interrogation.Request{
		HopID:       r.PostFormValue("sessionId"),
		Phone:       r.PostFormValue("phoneNumber"),
		Text:        r.PostFormValue("text"),
		SurveyTitle: chi.URLParam(r, "surveyTitle"),
	}

	reply, err := h.manager.Handle(r.Context(), req)
	if err != nil {
		if errors.Is(err, interrogation.ErrInvalidPhone) {
			http.Error(w, "invalid phone number", http.StatusForbidden)
			return
		}
		slog.Error("dialog exchange failed",
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"hop_id", req.HopID,
			"survey", req.SurveyTitle,
			"error", err,
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	prefix := replyContinue
	if reply.Final {
		prefix = replyEnd
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, prefix+reply.Text)
}

// HandleHealth reports service and database health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		http.Error(w, `{"status":"unhealthy"}`, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}
