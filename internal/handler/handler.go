// Package handler exposes the JSON API the browser front end drives:
// login, catalog, credential gating, exam generation, quiz submission,
// and post-quiz analysis.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/worawit/triamsob/internal/analysis"
	"github.com/worawit/triamsob/internal/catalog"
	"github.com/worawit/triamsob/internal/examgen"
	"github.com/worawit/triamsob/internal/i18n"
	"github.com/worawit/triamsob/internal/keygate"
	"github.com/worawit/triamsob/internal/llm"
	"github.com/worawit/triamsob/internal/store"
)

// Config holds handler-level settings.
type Config struct {
	SecureCookies bool
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	gate      *keygate.Gate
	generator *examgen.Generator
	analyzer  *analysis.Analyzer
	catalog   *catalog.Catalog
	config    Config

	// inflight enforces one generation-or-analysis call per user at a
	// time; the UI's loading gate is backed by this latch.
	mu       sync.Mutex
	inflight map[string]bool
}

// New creates a Handler. Generator and analyzer may be nil when no
// provider could be constructed; every generation attempt then reports
// a missing credential.
func New(s *store.Store, gate *keygate.Gate, gen *examgen.Generator, an *analysis.Analyzer, cat *catalog.Catalog, cfg Config) *Handler {
	return &Handler{
		store:     s,
		gate:      gate,
		generator: gen,
		analyzer:  an,
		catalog:   cat,
		config:    cfg,
		inflight:  make(map[string]bool),
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireUser)

		r.Post("/api/logout", h.handleLogout)
		r.Get("/api/me", h.handleMe)
		r.Get("/api/catalog", h.handleCatalog)

		r.Get("/api/credential/status", h.handleCredentialStatus)
		r.Post("/api/credential/connect", h.handleCredentialConnect)

		r.Post("/api/exams", h.handleCreateExam)
		r.Get("/api/exams/{sessionID}", h.handleGetExam)
		r.Post("/api/exams/{sessionID}/submit", h.handleSubmitExam)
		r.Post("/api/exams/{sessionID}/analysis", h.handleAnalyzeExam)
		r.Delete("/api/exams/{sessionID}", h.handleDeleteExam)
	})
}

// errorBody is the uniform error payload. The front end branches on
// Kind, never on message text.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, kind, msgID string) {
	respondJSON(w, status, map[string]errorBody{
		"error": {Kind: kind, Message: i18n.T(r.Context(), msgID)},
	})
}

// respondServiceError maps a failed generative call onto the API error
// taxonomy. Credential rejections also flip the gate so the UI shows
// the obstruction view on its next status poll.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := llm.Classify(err)
	slog.Error("service call failed", "kind", kind, "error", err)

	switch kind {
	case llm.KindCredentialMissing:
		h.respondError(w, r, http.StatusForbidden, string(kind), "error.credential_missing")
	case llm.KindCredentialRejected:
		var rejected *llm.ErrCredentialRejected
		detail := err.Error()
		if errors.As(err, &rejected) && rejected.Detail != "" {
			detail = rejected.Detail
		}
		h.gate.MarkRejected(detail)
		h.respondError(w, r, http.StatusForbidden, string(kind), "error.credential_rejected")
	case llm.KindTransient:
		h.respondError(w, r, http.StatusServiceUnavailable, string(kind), "error.transient")
	case llm.KindMalformed:
		h.respondError(w, r, http.StatusBadGateway, string(kind), "error.malformed_response")
	default:
		// Unknown failures surface verbatim, never swallowed.
		respondJSON(w, http.StatusInternalServerError, map[string]errorBody{
			"error": {Kind: string(llm.KindUnknown), Message: err.Error()},
		})
	}
}

// acquire marks the user busy. It reports false when a call is already
// in flight, which the caller turns into a conflict response.
func (h *Handler) acquire(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inflight[userID] {
		return false
	}
	h.inflight[userID] = true
	return true
}

func (h *Handler) release(userID string) {
	h.mu.Lock()
	delete(h.inflight, userID)
	h.mu.Unlock()
}
