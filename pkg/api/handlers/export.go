package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/export"
	"github.com/andrewtheguy/s3browser-sub000/internal/vault"
)

// ExportHandler handles spec.md §4.8's profile-export endpoint.
type ExportHandler struct {
	vault *vault.Store
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(v *vault.Store) *ExportHandler {
	return &ExportHandler{vault: v}
}

// Export handles GET /api/auth/export/:id?format=aws|rclone&bucket=….
// The response always carries Cache-Control: no-store since the body
// contains a decrypted secret.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUintParam(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatAWS
	}
	bucket := r.URL.Query().Get("bucket")

	profile, err := h.vault.GetConnection(r.Context(), id)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	secret, err := h.vault.DecryptSecret(r.Context(), profile)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	result, err := export.Export(profile, secret, format, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	apperr.WriteJSONOK(w, result)
}
