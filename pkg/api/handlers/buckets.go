package handlers

import (
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/pkg/services"
)

// BucketHandler handles the bucket-listing and bucket-info endpoints of
// spec.md §6.
type BucketHandler struct {
	services *services.Services
}

// NewBucketHandler creates a BucketHandler.
func NewBucketHandler(services *services.Services) *BucketHandler {
	return &BucketHandler{services: services}
}

type bucketResponse struct {
	Name         string  `json:"name"`
	CreationDate *string `json:"creationDate,omitempty"`
}

// List handles GET /api/buckets/:connId.
func (h *BucketHandler) List(w http.ResponseWriter, r *http.Request) {
	connID, ok := parseUintParam(w, r, chi.URLParam(r, "connId"))
	if !ok {
		return
	}

	client, _, err := h.services.ResolveClient(r.Context(), connID, "")
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	out, err := h.services.Instrumented(client).ListBuckets(r.Context(), &s3.ListBucketsInput{})
	if err != nil {
		apperr.WriteError(w, r, apperr.Wrap(apperr.S3Error, "listing buckets", err))
		return
	}

	buckets := make([]bucketResponse, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		resp := bucketResponse{Name: aws.ToString(b.Name)}
		if b.CreationDate != nil {
			s := b.CreationDate.Format("2006-01-02T15:04:05Z07:00")
			resp.CreationDate = &s
		}
		buckets = append(buckets, resp)
	}

	apperr.WriteJSONOK(w, buckets)
}

// Info handles GET /api/bucket/:connId/:bucket/info.
func (h *BucketHandler) Info(w http.ResponseWriter, r *http.Request) {
	connID, ok := parseUintParam(w, r, chi.URLParam(r, "connId"))
	if !ok {
		return
	}
	bucket := chi.URLParam(r, "bucket")

	client, _, err := h.services.ResolveClient(r.Context(), connID, bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	info, err := h.services.BucketInfo(client).Get(r.Context(), bucket)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	apperr.WriteJSONOK(w, info)
}
