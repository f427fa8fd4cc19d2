package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/pkg/api/middleware"
	"github.com/andrewtheguy/s3browser-sub000/pkg/services"
)

// decodeJSONBody decodes a JSON request body into v, writing the uniform
// error envelope and returning false on a malformed body.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apperr.WriteError(w, r, apperr.Wrap(apperr.InvalidInput, "invalid request body", err))
		return false
	}
	return true
}

// parseUintParam parses a chi URL param as a uint id, writing the uniform
// error envelope and returning ok=false on a malformed value.
func parseUintParam(w http.ResponseWriter, r *http.Request, raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apperr.WriteError(w, r, apperr.Newf(apperr.InvalidInput, "invalid id %q", raw))
		return 0, false
	}
	return uint(id), true
}

// requireBoundConnection enforces spec.md §4.2's invariant for the upload
// endpoints, which carry connID in the request body or query string rather
// than a path segment, so it cannot be applied as route middleware the way
// middleware.RequireBoundConnection is for the path-param routes. It
// verifies the session has a bound connection and that it matches connID,
// writing apperr.Forbidden and returning false otherwise.
func requireBoundConnection(w http.ResponseWriter, r *http.Request, connID uint) bool {
	sess := middleware.GetSessionFromContext(r.Context())

	boundID, err := services.RequireBoundConnection(sess)
	if err != nil {
		apperr.WriteError(w, r, err)
		return false
	}
	if boundID != connID {
		apperr.WriteError(w, r, apperr.New(apperr.Forbidden, "session does not own the requested connection"))
		return false
	}
	return true
}
