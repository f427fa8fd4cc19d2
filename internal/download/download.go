// Package download implements presigned URLs, text preview, and object
// metadata reporting of spec.md §4.7.
package download

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/s3client"
	"github.com/andrewtheguy/s3browser-sub000/internal/s3iface"
	"github.com/andrewtheguy/s3browser-sub000/internal/validation"
)

// DefaultDownloadTTL is the convenience alias spec.md §4.7 names for
// downloadUrl: one hour.
const DefaultDownloadTTL = time.Hour

// maxPreviewBytes bounds preview() so the gateway never buffers an
// unbounded body in memory just to sniff it.
const maxPreviewBytes = 1 << 20 // 1 MiB

// Service issues presigned URLs, previews, and reports metadata.
type Service struct {
	client    s3iface.Client
	presigner s3iface.Presigner
	endpoint  string
}

// New creates a Service. endpoint is the connection's configured S3
// endpoint, used only to infer Vendor for metadata reporting.
func New(client s3iface.Client, presigner s3iface.Presigner, endpoint string) *Service {
	return &Service{client: client, presigner: presigner, endpoint: endpoint}
}

// Presign returns a presigned GET URL valid for ttlSeconds, enforcing the
// 60s-7d bound of spec.md §4.7.
func (s *Service) Presign(ctx context.Context, bucket, key string, versionID *string, ttlSeconds int64) (string, error) {
	if err := validation.ValidateTTL(ttlSeconds); err != nil {
		return "", err
	}

	input := &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key), VersionId: versionID}
	out, err := s.presigner.PresignGetObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = time.Duration(ttlSeconds) * time.Second
	})
	if err != nil {
		return "", apperr.Wrap(apperr.S3Error, "presigning download url", err)
	}

	return out.URL, nil
}

// DownloadURL is the convenience alias for Presign with DefaultDownloadTTL.
func (s *Service) DownloadURL(ctx context.Context, bucket, key string) (string, error) {
	return s.Presign(ctx, bucket, key, nil, int64(DefaultDownloadTTL.Seconds()))
}

// Preview returns up to maxPreviewBytes of a text object's body, rejecting
// non-text or oversized objects with an apperr.InvalidInput error.
func (s *Service) Preview(ctx context.Context, bucket, key string) (string, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		if isNotFoundError(err) {
			return "", apperr.New(apperr.NotFound, "object not found")
		}
		return "", apperr.Wrap(apperr.S3Error, "checking object before preview", err)
	}

	contentType := aws.ToString(head.ContentType)
	if contentType != "" && !strings.HasPrefix(contentType, "text/") && !isTextualContentType(contentType) {
		return "", apperr.New(apperr.InvalidInput, "object cannot be previewed: not a text content type")
	}
	if aws.ToInt64(head.ContentLength) > maxPreviewBytes {
		return "", apperr.New(apperr.InvalidInput, "object cannot be previewed: too large")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return "", apperr.Wrap(apperr.S3Error, "fetching object for preview", err)
	}
	defer out.Body.Close()

	reader := bufio.NewReaderSize(io.LimitReader(out.Body, maxPreviewBytes), 64*1024)
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", apperr.Wrap(apperr.S3Error, "reading object body for preview", err)
	}

	return string(body), nil
}

// isNotFoundError reports whether err is S3's NoSuchKey or an equivalent
// 404, the shape HeadObject returns for a missing object (HEAD responses
// carry no body, so S3 often reports only a bare 404 status rather than a
// modeled NoSuchKey error).
func isNotFoundError(err error) bool {
	var nf *types.NoSuchKey
	if errors.As(err, &nf) {
		return true
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == 404
	}

	return false
}

func isTextualContentType(contentType string) bool {
	textual := []string{"application/json", "application/xml", "application/javascript", "application/x-yaml"}
	for _, t := range textual {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// Metadata is the ObjectMetadata DTO of spec.md §4.7.
type Metadata struct {
	ContentType          string            `json:"contentType"`
	Size                 int64             `json:"size"`
	LastModified         *string           `json:"lastModified,omitempty"`
	ETag                 string            `json:"etag"`
	VersionID             *string           `json:"versionId,omitempty"`
	ServerSideEncryption *string           `json:"serverSideEncryption,omitempty"`
	SSEKMSKeyID          *string           `json:"sseKmsKeyId,omitempty"`
	StorageClass         *string           `json:"storageClass,omitempty"`
	UserMetadata         map[string]string `json:"userMetadata,omitempty"`
	Vendor               s3client.Vendor   `json:"vendor"`
}

// ObjectMetadata returns head metadata for bucket/key, with Vendor inferred
// from the connection's endpoint.
func (s *Service) ObjectMetadata(ctx context.Context, bucket, key string, versionID *string) (*Metadata, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key), VersionId: versionID})
	if err != nil {
		if isNotFoundError(err) {
			return nil, apperr.New(apperr.NotFound, "object not found")
		}
		return nil, apperr.Wrap(apperr.S3Error, "heading object", err)
	}

	var lastModified *string
	if head.LastModified != nil {
		s := head.LastModified.Format(time.RFC3339)
		lastModified = &s
	}

	var storageClass *string
	if head.StorageClass != "" {
		s := string(head.StorageClass)
		storageClass = &s
	}

	var sse *string
	if head.ServerSideEncryption != "" {
		s := string(head.ServerSideEncryption)
		sse = &s
	}

	return &Metadata{
		ContentType:          aws.ToString(head.ContentType),
		Size:                 aws.ToInt64(head.ContentLength),
		LastModified:         lastModified,
		ETag:                 aws.ToString(head.ETag),
		VersionID:            head.VersionId,
		ServerSideEncryption: sse,
		SSEKMSKeyID:          head.SSEKMSKeyId,
		StorageClass:         storageClass,
		UserMetadata:         head.Metadata,
		Vendor:               s3client.DetectVendor(s.endpoint),
	}, nil
}
