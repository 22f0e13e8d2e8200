package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/worawit/triamsob/internal/store"
)

const sessionCookie = "triamsob_session"

type userCtxKey struct{}

// userFrom returns the logged-in user stored by requireUser.
func userFrom(ctx context.Context) *store.User {
	u, _ := ctx.Value(userCtxKey{}).(*store.User)
	return u
}

// requireUser resolves the session cookie to a user or rejects with 401.
func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			h.respondError(w, r, http.StatusUnauthorized, "unauthorized", "error.unauthorized")
			return
		}
		sess, err := h.store.GetAuthSession(cookie.Value)
		if err != nil {
			slog.Error("load auth session", "error", err)
			h.respondError(w, r, http.StatusUnauthorized, "unauthorized", "error.unauthorized")
			return
		}
		if sess == nil {
			h.respondError(w, r, http.StatusUnauthorized, "unauthorized", "error.unauthorized")
			return
		}
		user, err := h.store.GetUser(sess.UserID)
		if err != nil || user == nil {
			h.respondError(w, r, http.StatusUnauthorized, "unauthorized", "error.unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), userCtxKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type loginRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// handleLogin creates the placeholder identity and its session cookie.
// There is no password; the identity exists to own exam sessions.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "bad_request", "error.bad_request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		h.respondError(w, r, http.StatusBadRequest, "bad_request", "error.bad_request")
		return
	}

	avatar := fmt.Sprintf("https://api.dicebear.com/9.x/thumbs/svg?seed=%s", url.QueryEscape(req.Name))
	user, err := h.store.CreateUser(req.Name, req.Email, avatar)
	if err != nil {
		slog.Error("create user", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "unknown", "error.unknown")
		return
	}

	token, err := h.store.CreateAuthSession(user.ID)
	if err != nil {
		slog.Error("create auth session", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "unknown", "error.unknown")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, map[string]*store.User{"user": user})
}

// handleLogout drops the identity and everything it owns.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	if err := h.store.DeleteUser(user.ID); err != nil {
		slog.Error("delete user", "error", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]*store.User{"user": userFrom(r.Context())})
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog)
}
