package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/upload"
	"github.com/andrewtheguy/s3browser-sub000/pkg/services"
)

// UploadHandler handles the single-PUT and multipart upload endpoints of
// spec.md §4.5, §6. Unlike the other handlers, every route here carries its
// connection id in the request itself (body or query) rather than a path
// segment, since the multipart state machine shares one uploadId across a
// sequence of otherwise-independent HTTP calls.
type UploadHandler struct {
	svc *services.Services
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(svc *services.Services) *UploadHandler {
	return &UploadHandler{svc: svc}
}

type initiateRequest struct {
	ConnID      uint   `json:"connId"`
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
}

// Initiate handles POST /api/upload/initiate.
func (h *UploadHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if !requireBoundConnection(w, r, req.ConnID) {
		return
	}

	client, _, err := h.svc.ResolveClient(r.Context(), req.ConnID, req.Bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	result, err := h.svc.Upload.Initiate(r.Context(), h.svc.Instrumented(client), req.ConnID, req.Bucket, req.Key, req.ContentType, req.FileSize)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, result)
}

// Part handles POST /api/upload/part?connId=&bucket=&uploadId=&key=&partNumber=.
func (h *UploadHandler) Part(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	connID, ok := parseUintParam(w, r, q.Get("connId"))
	if !ok {
		return
	}
	if !requireBoundConnection(w, r, connID) {
		return
	}
	bucket := q.Get("bucket")
	key := q.Get("key")
	uploadID := q.Get("uploadId")

	partNumber64, err := strconv.ParseInt(q.Get("partNumber"), 10, 32)
	if err != nil {
		apperr.WriteError(w, r, apperr.Wrap(apperr.InvalidInput, "partNumber must be an integer", err))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		apperr.WriteError(w, r, apperr.Wrap(apperr.InvalidInput, "reading request body", err))
		return
	}

	client, _, err := h.svc.ResolveClient(r.Context(), connID, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	etag, err := h.svc.Upload.UploadPart(r.Context(), h.svc.Instrumented(client), connID, bucket, key, uploadID, int32(partNumber64), bytes.NewReader(body), int64(len(body)))
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, map[string]string{"etag": etag})
}

type completeRequest struct {
	ConnID   uint          `json:"connId"`
	Bucket   string        `json:"bucket"`
	UploadID string        `json:"uploadId"`
	Key      string        `json:"key"`
	Parts    []upload.Part `json:"parts"`
}

// Complete handles POST /api/upload/complete.
func (h *UploadHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if !requireBoundConnection(w, r, req.ConnID) {
		return
	}

	client, _, err := h.svc.ResolveClient(r.Context(), req.ConnID, req.Bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	if err := h.svc.Upload.Complete(r.Context(), h.svc.Instrumented(client), req.ConnID, req.Bucket, req.Key, req.UploadID, req.Parts); err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, map[string]any{"success": true, "key": req.Key})
}

type abortRequest struct {
	ConnID   uint   `json:"connId"`
	Bucket   string `json:"bucket"`
	UploadID string `json:"uploadId"`
	Key      string `json:"key"`
}

// Abort handles POST /api/upload/abort.
func (h *UploadHandler) Abort(w http.ResponseWriter, r *http.Request) {
	var req abortRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if !requireBoundConnection(w, r, req.ConnID) {
		return
	}

	client, _, err := h.svc.ResolveClient(r.Context(), req.ConnID, req.Bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	if err := h.svc.Upload.Abort(r.Context(), h.svc.Instrumented(client), req.ConnID, req.Bucket, req.Key, req.UploadID); err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, map[string]bool{"success": true})
}

// Single handles POST /api/upload/single?connId=&bucket=&key=.
func (h *UploadHandler) Single(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	connID, ok := parseUintParam(w, r, q.Get("connId"))
	if !ok {
		return
	}
	if !requireBoundConnection(w, r, connID) {
		return
	}
	bucket := q.Get("bucket")
	key := q.Get("key")

	client, _, err := h.svc.ResolveClient(r.Context(), connID, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	if err := h.svc.Upload.PutSingle(r.Context(), h.svc.Instrumented(client), bucket, key, r.Header.Get("Content-Type"), r.Body); err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, map[string]any{"success": true, "key": key})
}
