package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/worawit/triamsob/internal/analysis"
	"github.com/worawit/triamsob/internal/examgen"
	"github.com/worawit/triamsob/internal/session"
)

type createExamRequest struct {
	Files      []examgen.ReferenceFile `json:"files"`
	Grade      string                  `json:"grade"`
	Language   string                  `json:"language"`
	Count      int                     `json:"count"`
	WeakTopics []string                `json:"weakTopics,omitempty"`
}

// handleCreateExam runs the full generation path: gate → request build
// → retry-wrapped service call → decode → new session.
func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var req createExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "bad_request", "error.bad_request")
		return
	}

	grade, err := examgen.ParseGrade(req.Grade)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "bad_request", "error.bad_request")
		return
	}
	lang, err := examgen.ParseLanguage(req.Language)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "bad_request", "error.bad_request")
		return
	}
	if req.Count < 1 {
		h.respondError(w, r, http.StatusBadRequest, "bad_request", "error.bad_request")
		return
	}

	if h.generator == nil {
		h.respondError(w, r, http.StatusForbidden, "credential_missing", "error.credential_missing")
		return
	}

	if !h.acquire(user.ID) {
		h.respondError(w, r, http.StatusConflict, "conflict", "error.conflict")
		return
	}
	defer h.release(user.ID)

	genReq := examgen.GenerationRequest{
		Files:      req.Files,
		Grade:      grade,
		Language:   lang,
		Count:      req.Count,
		WeakTopics: req.WeakTopics,
	}

	questions, err := h.generator.Generate(r.Context(), genReq)
	if err != nil {
		if errors.Is(err, examgen.ErrInvalidFile) {
			h.respondError(w, r, http.StatusBadRequest, "bad_request", "error.bad_request")
			return
		}
		h.respondServiceError(w, r, err)
		return
	}

	es := session.New(user.ID, genReq, questions)
	if err := h.store.SaveExamSession(es); err != nil {
		slog.Error("save exam session", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "unknown", "error.unknown")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]*session.ExamSession{"session": es})
}

// loadOwnedSession fetches a session and checks it belongs to the
// caller. A nil return means the response was already written.
func (h *Handler) loadOwnedSession(w http.ResponseWriter, r *http.Request) *session.ExamSession {
	user := userFrom(r.Context())
	id := chi.URLParam(r, "sessionID")

	es, err := h.store.GetExamSession(id)
	if err != nil {
		slog.Error("load exam session", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "unknown", "error.unknown")
		return nil
	}
	if es == nil || es.UserID != user.ID {
		h.respondError(w, r, http.StatusNotFound, "not_found", "error.not_found")
		return nil
	}
	return es
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	es := h.loadOwnedSession(w, r)
	if es == nil {
		return
	}
	respondJSON(w, http.StatusOK, map[string]*session.ExamSession{"session": es})
}

type submitRequest struct {
	Answers []*int `json:"answers"`
}

func (h *Handler) handleSubmitExam(w http.ResponseWriter, r *http.Request) {
	es := h.loadOwnedSession(w, r)
	if es == nil {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "bad_request", "error.bad_request")
		return
	}

	score, err := es.Complete(req.Answers)
	if err != nil {
		if errors.Is(err, session.ErrAlreadyCompleted) {
			h.respondError(w, r, http.StatusConflict, "conflict", "error.session_completed")
			return
		}
		h.respondError(w, r, http.StatusBadRequest, "bad_request", "error.bad_request")
		return
	}

	if err := h.store.SaveExamSession(es); err != nil {
		slog.Error("save exam session", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "unknown", "error.unknown")
		return
	}

	respondJSON(w, http.StatusOK, score)
}

// handleAnalyzeExam runs the best-effort weakness analysis for a
// completed session. A malformed model payload already degraded to the
// fallback record inside the analyzer, so any error here is transport
// or credential shaped.
func (h *Handler) handleAnalyzeExam(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	es := h.loadOwnedSession(w, r)
	if es == nil {
		return
	}
	if !es.Completed {
		h.respondError(w, r, http.StatusBadRequest, "bad_request", "error.bad_request")
		return
	}

	if h.analyzer == nil {
		h.respondError(w, r, http.StatusForbidden, "credential_missing", "error.credential_missing")
		return
	}

	if !h.acquire(user.ID) {
		h.respondError(w, r, http.StatusConflict, "conflict", "error.conflict")
		return
	}
	defer h.release(user.ID)

	result, err := h.analyzer.Analyze(r.Context(), analysis.Outcomes(es.Questions, es.Answers))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]*analysis.Result{"analysis": result})
}

// handleDeleteExam is the back-to-setup teardown: the session and its
// questions do not outlive the attempt.
func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	es := h.loadOwnedSession(w, r)
	if es == nil {
		return
	}
	if err := h.store.DeleteExamSession(es.ID); err != nil {
		slog.Error("delete exam session", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "unknown", "error.unknown")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
