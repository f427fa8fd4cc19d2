// Package middleware adapts the teacher's JWT claims-in-context pattern
// (pkg/api/middleware/auth.go) to s3browser's single shared-password,
// session-cookie model: there is one context key carrying a *session.Session
// instead of JWT claims, and no admin/must-change-password tiers since
// spec.md has no multi-user roles.
package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/session"
	"github.com/andrewtheguy/s3browser-sub000/pkg/services"
)

// CookieName is the one session cookie spec.md §6 names.
const CookieName = "s3browser_session"

type contextKey string

const sessionContextKey contextKey = "session"

// SessionAuth requires a valid, unexpired session cookie, rejecting the
// request with apperr.Unauthorized otherwise. On success it stores the
// refreshed *session.Session in the request context and lets the handler
// chain continue.
func SessionAuth(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil {
				apperr.WriteError(w, r, apperr.New(apperr.Unauthorized, "no session cookie"))
				return
			}

			sess, err := store.Authenticate(cookie.Value)
			if err != nil {
				apperr.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSessionAuth looks up the session cookie if present but never
// rejects the request; used by GET /auth/session, which reports {ok:false}
// rather than 401 when there is no active session.
func OptionalSessionAuth(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := store.Authenticate(cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext extracts the *session.Session stored by SessionAuth
// or OptionalSessionAuth, or nil if none was attached.
func GetSessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionContextKey).(*session.Session)
	return sess
}

// RequireBoundConnection enforces spec.md §4.2's invariant that every
// endpoint operating on S3 requires a connection bound to the session via
// POST /connections/:id/bind, and that the bound connection matches the
// :connId the route is being asked to act on. It must run after SessionAuth
// on any route carrying a {connId} URL param. A session with no bound
// connection, or one bound to a different connection than the path names,
// is rejected with apperr.Forbidden, matching spec.md §7's "no active
// connection bound" / "session does not own the requested connection"
// cases.
func RequireBoundConnection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := GetSessionFromContext(r.Context())

		boundID, err := services.RequireBoundConnection(sess)
		if err != nil {
			apperr.WriteError(w, r, err)
			return
		}

		requested, err := strconv.ParseUint(chi.URLParam(r, "connId"), 10, 64)
		if err != nil {
			apperr.WriteError(w, r, apperr.Newf(apperr.InvalidInput, "invalid connId %q", chi.URLParam(r, "connId")))
			return
		}

		if boundID != uint(requested) {
			apperr.WriteError(w, r, apperr.New(apperr.Forbidden, "session does not own the requested connection"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
