package handlers

import (
	"net/http"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/session"
	"github.com/andrewtheguy/s3browser-sub000/pkg/api/middleware"
)

// SessionHandler handles login, logout, and session-status endpoints
// (spec.md §4.2, §6).
type SessionHandler struct {
	sessions *session.Store
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *session.Store) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /api/auth/login: compares the supplied password
// against the configured shared secret and, on success, sets the session
// cookie spec.md §6 mandates.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	sess, err := h.sessions.Login(req.Password)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	setSessionCookie(w, r, sess.ID)
	apperr.WriteNoContent(w)
}

// Logout handles POST /api/auth/logout.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.CookieName); err == nil {
		h.sessions.Logout(cookie.Value)
	}
	clearSessionCookie(w, r)
	apperr.WriteNoContent(w)
}

// sessionStatusResponse is the body of GET /api/auth/session.
type sessionStatusResponse struct {
	OK           bool  `json:"ok"`
	ConnectionID *uint `json:"connectionId,omitempty"`
}

// Status handles GET /api/auth/session. It never 401s: an absent or expired
// session reports {ok:false} so the UI can render a login prompt.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSessionFromContext(r.Context())
	if sess == nil {
		apperr.WriteJSONOK(w, sessionStatusResponse{OK: false})
		return
	}
	apperr.WriteJSONOK(w, sessionStatusResponse{OK: true, ConnectionID: sess.ConnectionID})
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(session.Expiry.Seconds()),
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
