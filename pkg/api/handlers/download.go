package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/download"
	"github.com/andrewtheguy/s3browser-sub000/internal/validation"
	"github.com/andrewtheguy/s3browser-sub000/pkg/services"
)

// DownloadHandler handles the presign-URL and preview endpoints of
// spec.md §4.7, §6.
type DownloadHandler struct {
	svc *services.Services
}

// NewDownloadHandler creates a DownloadHandler.
func NewDownloadHandler(svc *services.Services) *DownloadHandler {
	return &DownloadHandler{svc: svc}
}

// URL handles GET /api/download/:connId/:bucket/url?key=&ttl=&versionId=.
func (h *DownloadHandler) URL(w http.ResponseWriter, r *http.Request) {
	connID, ok := parseUintParam(w, r, chi.URLParam(r, "connId"))
	if !ok {
		return
	}
	bucket := chi.URLParam(r, "bucket")

	key, err := validation.SanitizeKey(r.URL.Query().Get("key"))
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}
	versionID := optionalQueryParam(r, "versionId")

	ttl := int64(download.DefaultDownloadTTL.Seconds())
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			apperr.WriteError(w, r, apperr.Wrap(apperr.InvalidInput, "ttl must be an integer", err))
			return
		}
		ttl = parsed
	}

	client, profile, err := h.svc.ResolveClient(r.Context(), connID, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	url, err := h.svc.Download(profile, client).Presign(r.Context(), bucket, key, versionID, ttl)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, map[string]string{"url": url})
}

// Preview handles GET /api/download/:connId/:bucket/preview?key=.
func (h *DownloadHandler) Preview(w http.ResponseWriter, r *http.Request) {
	connID, ok := parseUintParam(w, r, chi.URLParam(r, "connId"))
	if !ok {
		return
	}
	bucket := chi.URLParam(r, "bucket")

	key, err := validation.SanitizeKey(r.URL.Query().Get("key"))
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	client, profile, err := h.svc.ResolveClient(r.Context(), connID, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	body, err := h.svc.Download(profile, client).Preview(r.Context(), bucket, key)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}
