package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/s3client"
	"github.com/andrewtheguy/s3browser-sub000/internal/session"
	"github.com/andrewtheguy/s3browser-sub000/internal/vault"
	"github.com/andrewtheguy/s3browser-sub000/pkg/api/middleware"
)

// validate is shared by every handler that needs struct-tag validation of
// a decoded request body, grounded on the teacher's heavy validator/v10
// struct-tag usage throughout pkg/config/config.go.
var validate = validator.New()

// ConnectionHandler handles the saved-connection-profile endpoints of
// spec.md §6: list/save/delete/bind.
type ConnectionHandler struct {
	vault    *vault.Store
	sessions *session.Store
}

// NewConnectionHandler creates a ConnectionHandler.
func NewConnectionHandler(v *vault.Store, s *session.Store) *ConnectionHandler {
	return &ConnectionHandler{vault: v, sessions: s}
}

// connectionResponse is the no-secret record shape spec.md §6 names.
type connectionResponse struct {
	ID               uint   `json:"id"`
	ProfileName      string `json:"profile_name"`
	Endpoint         string `json:"endpoint"`
	AccessKeyID      string `json:"access_key_id"`
	Bucket           string `json:"bucket,omitempty"`
	Region           string `json:"region,omitempty"`
	AutoDetectRegion bool   `json:"auto_detect_region"`
	LastUsedAt       string `json:"last_used_at"`
}

func toConnectionResponse(p *vault.ConnectionProfile) connectionResponse {
	return connectionResponse{
		ID:               p.ID,
		ProfileName:      p.ProfileName,
		Endpoint:         p.Endpoint,
		AccessKeyID:      p.AccessKeyID,
		Bucket:           p.Bucket,
		Region:           p.Region,
		AutoDetectRegion: p.AutoDetectRegion,
		LastUsedAt:       p.LastUsedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// List handles GET /api/connections.
func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.vault.ListConnections(r.Context())
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	out := make([]connectionResponse, len(profiles))
	for i := range profiles {
		out[i] = toConnectionResponse(&profiles[i])
	}
	apperr.WriteJSONOK(w, out)
}

// saveConnectionRequest is the body of POST /api/connections.
type saveConnectionRequest struct {
	ID               *uint   `json:"id,omitempty"`
	ProfileName      string  `json:"profile_name" validate:"required,max=64"`
	Endpoint         string  `json:"endpoint" validate:"required,url"`
	AccessKeyID      string  `json:"access_key_id" validate:"required"`
	Secret           *string `json:"secret,omitempty"`
	Bucket           string  `json:"bucket,omitempty"`
	Region           string  `json:"region,omitempty"`
	AutoDetectRegion bool    `json:"auto_detect_region"`
}

// Save handles POST /api/connections, creating a new profile when id is
// absent and updating the existing one otherwise (spec.md §4.1).
func (h *ConnectionHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveConnectionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		apperr.WriteError(w, r, apperr.Wrap(apperr.InvalidInput, "invalid connection payload", err))
		return
	}
	if err := s3client.ValidateEndpointScheme(req.Endpoint); err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	profile, err := h.vault.SaveConnection(r.Context(), req.ID, req.ProfileName, req.Endpoint, req.AccessKeyID, req.Secret, req.Bucket, req.Region, req.AutoDetectRegion)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	if req.ID == nil {
		apperr.WriteJSONCreated(w, toConnectionResponse(profile))
		return
	}
	apperr.WriteJSONOK(w, toConnectionResponse(profile))
}

// Delete handles DELETE /api/connections/:id.
func (h *ConnectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	deleted, err := h.vault.DeleteConnection(r.Context(), id)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, map[string]bool{"deleted": deleted})
}

// Bind handles POST /api/connections/:id/bind: marks id as the session's
// active connection after verifying it exists.
func (h *ConnectionHandler) Bind(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if _, err := h.vault.GetConnection(r.Context(), id); err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	sess := middleware.GetSessionFromContext(r.Context())
	if err := h.sessions.BindConnection(sess.ID, id); err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, map[string]bool{"ok": true})
}
