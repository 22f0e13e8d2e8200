package handler

import (
	"errors"
	"net/http"

	"github.com/worawit/triamsob/internal/keygate"
)

type credentialStatus struct {
	State  string `json:"state"`
	Detail string `json:"detail,omitempty"`
}

// handleCredentialStatus re-probes the gate on every call; the front
// end polls this while showing the availability splash.
func (h *Handler) handleCredentialStatus(w http.ResponseWriter, r *http.Request) {
	h.gate.CheckAvailability(r.Context())
	state, detail := h.gate.State()
	respondJSON(w, http.StatusOK, credentialStatus{State: string(state), Detail: detail})
}

// handleCredentialConnect asks the host to open its credential
// selector. Hosts without one get a conflict telling the operator to
// configure a key out of band.
func (h *Handler) handleCredentialConnect(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.RequestConnect(r.Context()); err != nil {
		if errors.Is(err, keygate.ErrNoBridge) {
			h.respondError(w, r, http.StatusConflict, "conflict", "credential.configure")
			return
		}
		h.respondError(w, r, http.StatusInternalServerError, "unknown", "error.unknown")
		return
	}
	state, detail := h.gate.State()
	respondJSON(w, http.StatusOK, credentialStatus{State: string(state), Detail: detail})
}
