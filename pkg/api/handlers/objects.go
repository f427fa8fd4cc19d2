package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/mutation"
	"github.com/andrewtheguy/s3browser-sub000/internal/validation"
	"github.com/andrewtheguy/s3browser-sub000/pkg/services"
)

// ObjectHandler handles the object-listing and mutation endpoints of
// spec.md §6 (list, metadata, delete, batch-delete, folder, copy,
// batch-copy, move, batch-move, seed-test-items).
type ObjectHandler struct {
	svc *services.Services
}

// NewObjectHandler creates an ObjectHandler.
func NewObjectHandler(svc *services.Services) *ObjectHandler {
	return &ObjectHandler{svc: svc}
}

// List handles GET /api/objects/:connId/:bucket.
func (h *ObjectHandler) List(w http.ResponseWriter, r *http.Request) {
	connID, ok := parseUintParam(w, r, chi.URLParam(r, "connId"))
	if !ok {
		return
	}
	bucket := chi.URLParam(r, "bucket")

	prefix, err := validation.SanitizePrefix(r.URL.Query().Get("prefix"))
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	var continuationToken *string
	if token := r.URL.Query().Get("continuationToken"); token != "" {
		continuationToken = &token
	}
	includeVersions := r.URL.Query().Get("versions") == "1"

	client, _, err := h.svc.ResolveClient(r.Context(), connID, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	window, err := h.svc.Listing(client).ListWindow(r.Context(), bucket, prefix, continuationToken, includeVersions)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, window)
}

// Metadata handles GET /api/objects/:connId/:bucket/metadata.
func (h *ObjectHandler) Metadata(w http.ResponseWriter, r *http.Request) {
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

	client, profile, err := h.svc.ResolveClient(r.Context(), connID, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	meta, err := h.svc.Download(profile, client).ObjectMetadata(r.Context(), bucket, key, versionID)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, meta)
}

// Delete handles DELETE /api/objects/:connId/:bucket?key=&versionId=.
func (h *ObjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	client, _, err := h.svc.ResolveClient(r.Context(), connID, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	if err := h.svc.Mutation(client).Delete(r.Context(), bucket, key, versionID); err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteNoContent(w)
}

// batchDeleteRequest is the body of POST .../batch-delete.
type batchDeleteRequest struct {
	Keys []mutation.KeyVersion `json:"keys"`
}

// BatchDelete handles POST /api/objects/:connId/:bucket/batch-delete.
func (h *ObjectHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	connID, ok := parseUintParam(w, r, chi.URLParam(r, "connId"))
	if !ok {
		return
	}
	bucket := chi.URLParam(r, "bucket")

	var req batchDeleteRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	client, _, err := h.svc.ResolveClient(r.Context(), connID, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	result, err := h.svc.Mutation(client).BatchDelete(r.Context(), bucket, req.Keys)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, result)
}

// folderRequest is the body of POST .../folder.
type folderRequest struct {
	Path string `json:"path"`
}

// CreateFolder handles POST /api/objects/:connId/:bucket/folder.
func (h *ObjectHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	connID, ok := parseUintParam(w, r, chi.URLParam(r, "connId"))
	if !ok {
		return
	}
	bucket := chi.URLParam(r, "bucket")

	var req folderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	client, _, err := h.svc.ResolveClient(r.Context(), connID, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	if err := h.svc.Mutation(client).CreateFolder(r.Context(), bucket, req.Path); err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteNoContent(w)
}

// copyRequest is the body of POST .../copy and .../move.
type copyRequest struct {
	SourceKey      string  `json:"sourceKey"`
	DestinationKey string  `json:"destinationKey"`
	VersionID      *string `json:"versionId,omitempty"`
}

// Copy handles POST /api/objects/:connId/:bucket/copy.
func (h *ObjectHandler) Copy(w http.ResponseWriter, r *http.Request) {
	h.copyOrMove(w, r, false)
}

// Move handles POST /api/objects/:connId/:bucket/move.
func (h *ObjectHandler) Move(w http.ResponseWriter, r *http.Request) {
	h.copyOrMove(w, r, true)
}

func (h *ObjectHandler) copyOrMove(w http.ResponseWriter, r *http.Request, move bool) {
	connID, ok := parseUintParam(w, r, chi.URLParam(r, "connId"))
	if !ok {
		return
	}
	bucket := chi.URLParam(r, "bucket")

	var req copyRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	client, _, err := h.svc.ResolveClient(r.Context(), connID, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	svc := h.svc.Mutation(client)
	if move {
		err = svc.Move(r.Context(), bucket, req.SourceKey, req.DestinationKey, req.VersionID)
	} else {
		err = svc.Copy(r.Context(), bucket, req.SourceKey, req.DestinationKey, req.VersionID)
	}
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteNoContent(w)
}

// batchOpsRequest is the body of POST .../batch-copy and .../batch-move.
type batchOpsRequest struct {
	Operations []mutation.CopyOp `json:"operations"`
}

// BatchCopy handles POST /api/objects/:connId/:bucket/batch-copy.
func (h *ObjectHandler) BatchCopy(w http.ResponseWriter, r *http.Request) {
	h.batchCopyOrMove(w, r, false)
}

// BatchMove handles POST /api/objects/:connId/:bucket/batch-move.
func (h *ObjectHandler) BatchMove(w http.ResponseWriter, r *http.Request) {
	h.batchCopyOrMove(w, r, true)
}

func (h *ObjectHandler) batchCopyOrMove(w http.ResponseWriter, r *http.Request, move bool) {
	connID, ok := parseUintParam(w, r, chi.URLParam(r, "connId"))
	if !ok {
		return
	}
	bucket := chi.URLParam(r, "bucket")

	var req batchOpsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	client, _, err := h.svc.ResolveClient(r.Context(), connID, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	svc := h.svc.Mutation(client)
	var result *mutation.CopyResult
	if move {
		result, err = svc.BatchMove(r.Context(), bucket, req.Operations)
	} else {
		result, err = svc.BatchCopy(r.Context(), bucket, req.Operations)
	}
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, result)
}

// seedTestItemsRequest is the body of POST .../seed-test-items.
type seedTestItemsRequest struct {
	Prefix string `json:"prefix"`
}

// SeedTestItems handles POST /api/objects/:connId/:bucket/seed-test-items.
// The router registers this route only when SeedTestItemsEnabled is set;
// the handler's own apperr.Forbidden guard (via mutation.Service) is the
// second line of defense for a build where the flag flips at runtime.
func (h *ObjectHandler) SeedTestItems(w http.ResponseWriter, r *http.Request) {
	connID, ok := parseUintParam(w, r, chi.URLParam(r, "connId"))
	if !ok {
		return
	}
	bucket := chi.URLParam(r, "bucket")

	var req seedTestItemsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	client, _, err := h.svc.ResolveClient(r.Context(), connID, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	created, err := h.svc.Mutation(client).SeedTestItems(r.Context(), bucket, req.Prefix)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, map[string]any{"created": created, "prefix": req.Prefix})
}

func optionalQueryParam(r *http.Request, name string) *string {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	return &v
}

