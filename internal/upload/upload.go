// Package upload implements the single-PUT proxy and the multipart upload
// state machine of spec.md §4.5.
package upload

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/bytesize"
	"github.com/andrewtheguy/s3browser-sub000/internal/logger"
	"github.com/andrewtheguy/s3browser-sub000/internal/s3iface"
	"github.com/andrewtheguy/s3browser-sub000/internal/validation"
)

const (
	// PartSize is the fixed multipart part size spec.md §4.5 mandates.
	PartSize = 10 * bytesize.MiB

	// MaxFileSize is the hard ceiling a multipart initiate request is
	// rejected above.
	MaxFileSize = 5 * bytesize.GiB

	minPartNumber = 1
	maxPartNumber = 10000
)

// uploadState is the in-server context kept per uploadId, per spec.md §3's
// PendingResumableUpload: just enough to validate follow-up calls come
// from the session that started the upload.
type uploadState struct {
	connectionID uint
	bucket       string
	key          string
}

// Service proxies single-PUT and multipart uploads to S3. It is shared
// across every connection profile: a multipart upload spans several HTTP
// requests (initiate, N parts, complete) that may land on any connection's
// resolved client in between, so the pending-upload registry — not an S3
// client — is the part of this Service that must survive across calls.
// Each method takes the caller's already-resolved client explicitly.
type Service struct {
	mu      sync.Mutex
	pending map[string]uploadState
}

// New creates an empty Service.
func New() *Service {
	return &Service{pending: make(map[string]uploadState)}
}

// PutSingle streams body directly to bucket/key via a single PutObject
// call, for files the client chooses not to multipart (spec.md: files
// under 10 MiB typically use this path).
func (s *Service) PutSingle(ctx context.Context, client s3iface.Client, bucket, key, contentType string, body io.Reader) error {
	sanitized, err := validation.SanitizeKey(key)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(sanitized),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		return apperr.Wrap(apperr.S3Error, "uploading object", err)
	}
	return nil
}

// InitiateResult is the response of Initiate.
type InitiateResult struct {
	UploadID   string
	Key        string
	PartSize   int64
	TotalParts int
}

// Initiate starts a multipart upload, sanitizing key and rejecting
// fileSize over MaxFileSize.
func (s *Service) Initiate(ctx context.Context, client s3iface.Client, connectionID uint, bucket, key, contentType string, fileSize int64) (*InitiateResult, error) {
	sanitized, err := validation.SanitizeKey(key)
	if err != nil {
		return nil, err
	}
	if fileSize > int64(MaxFileSize) {
		return nil, apperr.Newf(apperr.InvalidInput, "fileSize %d exceeds maximum of %s", fileSize, MaxFileSize)
	}
	if fileSize < 0 {
		return nil, apperr.New(apperr.InvalidInput, "fileSize must not be negative")
	}

	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(sanitized),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	out, err := client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return nil, apperr.Wrap(apperr.S3Error, "initiating multipart upload", err)
	}

	uploadID := aws.ToString(out.UploadId)
	totalParts := int((fileSize + int64(PartSize) - 1) / int64(PartSize))
	if totalParts == 0 {
		totalParts = 1
	}

	s.mu.Lock()
	s.pending[uploadID] = uploadState{connectionID: connectionID, bucket: bucket, key: sanitized}
	s.mu.Unlock()

	logger.InfoCtx(ctx, "initiated multipart upload",
		logger.KeyUploadID, uploadID, logger.KeyBucket, bucket, logger.KeyKey, sanitized,
		"size", bytesize.ByteSize(fileSize), "total_parts", totalParts)

	return &InitiateResult{UploadID: uploadID, Key: sanitized, PartSize: int64(PartSize), TotalParts: totalParts}, nil
}

// UploadPart uploads one part. Parts may arrive in any order or be
// re-uploaded with a new body; S3 accepts re-uploads of the same part
// number, so the last write for a given partNumber wins.
func (s *Service) UploadPart(ctx context.Context, client s3iface.Client, connectionID uint, bucket, key, uploadID string, partNumber int32, body io.ReadSeeker, contentLength int64) (string, error) {
	if err := s.checkOwnership(connectionID, bucket, key, uploadID); err != nil {
		return "", err
	}
	if partNumber < minPartNumber || partNumber > maxPartNumber {
		return "", apperr.Newf(apperr.InvalidInput, "partNumber must be between %d and %d", minPartNumber, maxPartNumber)
	}

	out, err := client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int32(partNumber),
		Body:          body,
		ContentLength: aws.Int64(contentLength),
	})
	if err != nil {
		return "", apperr.Wrap(apperr.S3Error, "uploading part", err)
	}

	return aws.ToString(out.ETag), nil
}

// Part is one client-reported {partNumber, etag} pair for Complete.
type Part struct {
	PartNumber int32
	ETag       string
}

// Complete finishes a multipart upload. Parts are sorted ascending by
// partNumber (S3 requires monotone ordering) and deduplicated, keeping the
// last-supplied etag for any repeated partNumber.
func (s *Service) Complete(ctx context.Context, client s3iface.Client, connectionID uint, bucket, key, uploadID string, parts []Part) error {
	if err := s.checkOwnership(connectionID, bucket, key, uploadID); err != nil {
		return err
	}
	if len(parts) == 0 {
		return apperr.New(apperr.InvalidInput, "parts must not be empty")
	}

	deduped := dedupeParts(parts)
	sort.Slice(deduped, func(i, j int) bool { return deduped[i].PartNumber < deduped[j].PartNumber })

	completedParts := make([]types.CompletedPart, len(deduped))
	for i, p := range deduped {
		completedParts[i] = types.CompletedPart{PartNumber: aws.Int32(p.PartNumber), ETag: aws.String(p.ETag)}
	}

	_, err := client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completedParts},
	})
	if err != nil {
		return apperr.Wrap(apperr.S3Error, "completing multipart upload", err)
	}

	s.mu.Lock()
	delete(s.pending, uploadID)
	s.mu.Unlock()

	return nil
}

// Abort cancels a multipart upload. Aborting an already-aborted or unknown
// upload is treated as success, matching S3's own idempotent behavior.
func (s *Service) Abort(ctx context.Context, client s3iface.Client, connectionID uint, bucket, key, uploadID string) error {
	if err := s.checkOwnership(connectionID, bucket, key, uploadID); err != nil {
		if appErr, ok := apperr.As(err); ok && appErr.Kind == apperr.NotFound {
			return nil
		}
		return err
	}

	_, err := client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil && !strings.Contains(err.Error(), "NoSuchUpload") {
		return apperr.Wrap(apperr.S3Error, "aborting multipart upload", err)
	}

	s.mu.Lock()
	delete(s.pending, uploadID)
	s.mu.Unlock()

	return nil
}

func (s *Service) checkOwnership(connectionID uint, bucket, key, uploadID string) error {
	s.mu.Lock()
	state, ok := s.pending[uploadID]
	s.mu.Unlock()

	if !ok {
		return apperr.New(apperr.NotFound, "unknown upload id")
	}
	if state.connectionID != connectionID || state.bucket != bucket || state.key != key {
		return apperr.New(apperr.Forbidden, "upload id does not belong to this connection")
	}
	return nil
}

func dedupeParts(parts []Part) []Part {
	byNumber := make(map[int32]string, len(parts))
	for _, p := range parts {
		byNumber[p.PartNumber] = p.ETag
	}

	deduped := make([]Part, 0, len(byNumber))
	for number, etag := range byNumber {
		deduped = append(deduped, Part{PartNumber: number, ETag: etag})
	}
	return deduped
}
