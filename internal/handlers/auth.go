package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"multires/internal/database"
	"multires/internal/logging"
	"multires/internal/metrics"
)

// LoginRequest carries the admin password.
type LoginRequest struct {
	Password string `json:"password"`
}

// SetupRequest carries the initial admin password.
type SetupRequest struct {
	Password string `json:"password"`
}

// AuthResponse is returned by the authentication endpoints.
type AuthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "multires_session"

// CheckSetupRequired reports whether the admin password still needs to be
// configured.
func (h *Handlers) CheckSetupRequired(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]bool{
		"needsSetup": !h.db.HasUsers(ctx),
	})
}

// Setup creates the admin password. Only works once; resets go through the
// adminpw command.
func (h *Handlers) Setup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.db.HasUsers(ctx) {
		writeJSONError(w, "setup already completed", http.StatusForbidden)
		return
	}

	var req SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if len(req.Password) < 6 {
		writeJSONError(w, "password must be at least 6 characters", http.StatusBadRequest)
		return
	}
	if len(req.Password) > 72 {
		writeJSONError(w, "password must not exceed 72 characters", http.StatusBadRequest)
		return
	}

	if err := h.db.CreateUser(ctx, req.Password); err != nil {
		logging.Error("Failed to create admin user: %v", err)
		writeJSONError(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	logging.Info("Admin password configured")

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success: true,
		Message: "password configured",
	})
}

// Login validates the admin password and starts a session. The token comes
// back both as an HttpOnly cookie and in the body for API clients that
// prefer a bearer header.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.db.ValidatePassword(ctx, req.Password)
	if err != nil {
		logging.Warn("Failed login attempt")
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		writeJSONError(w, "invalid password", http.StatusUnauthorized)
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()

	session, err := h.db.CreateSession(ctx, user.ID)
	if err != nil {
		logging.Error("Failed to create session: %v", err)
		writeJSONError(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	logging.Info("Admin logged in, session expires in %v", database.SessionDuration)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success:   true,
		Token:     session.Token,
		ExpiresIn: int(database.SessionDuration.Seconds()),
	})
}

// Logout ends the current session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if token := sessionToken(r); token != "" {
		// Best-effort cleanup, logout succeeds regardless
		if err := h.db.DeleteSession(ctx, token); err != nil {
			logging.Error("Failed to delete session during logout: %v", err)
		}
	}

	clearSessionCookie(w)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success: true,
		Message: "logged out",
	})
}

// CheckAuth verifies the current session.
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := sessionToken(r)
	if token == "" {
		writeJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if _, err := h.db.ValidateSession(ctx, token); err != nil {
		clearSessionCookie(w)
		writeJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success:   true,
		ExpiresIn: int(database.SessionDuration.Seconds()),
	})
}

// AuthMiddleware protects the admin API. The processing endpoint, derived
// file serving and health probes stay public; everything under /api/ apart
// from the auth endpoints themselves needs a valid session.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if !strings.HasPrefix(r.URL.Path, "/api/") ||
			strings.HasPrefix(r.URL.Path, "/api/auth/") {
			next.ServeHTTP(w, r)
			return
		}

		token := sessionToken(r)
		if token == "" {
			writeJSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if _, err := h.db.ValidateSession(ctx, token); err != nil {
			clearSessionCookie(w)
			writeJSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sessionToken extracts the session token from the Authorization header or
// the session cookie, in that order.
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
