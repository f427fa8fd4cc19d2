// Package mutation implements delete, copy, move, and their batched and
// recursive variants from spec.md §4.6.
package mutation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/listing"
	"github.com/andrewtheguy/s3browser-sub000/internal/s3iface"
	"github.com/andrewtheguy/s3browser-sub000/internal/validation"
)

const (
	// maxBatchCount is S3's DeleteObjects limit.
	maxBatchCount = 1000

	// maxBatchBytes is the configurable safety margin under S3's request
	// body limit that spec.md §4.6 calls for.
	maxBatchBytes = 90000

	// batchCopyParallelism bounds per-batch concurrency for copy/move,
	// matching spec.md §5's "bounded" parallelism requirement.
	batchCopyParallelism = 5

	// seedItemCount is the fixed number of zero-byte objects
	// Service.SeedTestItems creates, per spec.md §4.6.
	seedItemCount = 10005

	// maxSeedItems is the safety cap SeedTestItems fails early against.
	maxSeedItems = 20000
)

// KeyVersion identifies one object, optionally pinned to a version.
type KeyVersion struct {
	Key       string  `json:"key"`
	VersionID *string `json:"versionId,omitempty"`
}

// DeleteResult aggregates the outcome of one or more batched deletes.
type DeleteResult struct {
	Deleted []KeyVersion      `json:"deleted"`
	Errors  []KeyError        `json:"errors"`
}

// KeyError reports a per-item failure in a batch operation.
type KeyError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// CopyOp is one source/destination pair for batch-copy/batch-move.
type CopyOp struct {
	SourceKey      string  `json:"sourceKey"`
	DestinationKey string  `json:"destinationKey"`
	VersionID      *string `json:"versionId,omitempty"`
}

// CopyResult aggregates the outcome of a batch copy or move.
type CopyResult struct {
	Successful []string       `json:"successful"`
	Errors     []CopyOpError  `json:"errors"`
}

// CopyOpError reports a per-operation failure in a batch copy/move.
type CopyOpError struct {
	SourceKey      string  `json:"sourceKey"`
	Message        string  `json:"message"`
	DestinationKey *string `json:"destinationKey,omitempty"`
}

// Service performs delete/copy/move mutations against one bucket.
type Service struct {
	client           s3iface.Client
	listing          *listing.Service
	seedItemsEnabled bool
}

// New creates a Service. seedItemsEnabled gates SeedTestItems per
// spec.md §4.6 — it must be false (and the HTTP route absent entirely) in
// hardened builds.
func New(client s3iface.Client, listingSvc *listing.Service, seedItemsEnabled bool) *Service {
	return &Service{client: client, listing: listingSvc, seedItemsEnabled: seedItemsEnabled}
}

// Delete removes a single object. If versionID is set on a versioned
// bucket it removes just that version; otherwise a plain delete, which on
// a versioned bucket creates a delete marker.
func (s *Service) Delete(ctx context.Context, bucket, key string, versionID *string) error {
	sanitized, err := validation.SanitizeKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket:    aws.String(bucket),
		Key:       aws.String(sanitized),
		VersionId: versionID,
	})
	if err != nil {
		return apperr.Wrap(apperr.S3Error, "deleting object", err)
	}
	return nil
}

// BatchDelete packs items into S3 DeleteObjects batches, applying both the
// 1000-item and 90000-byte caps simultaneously, greedily in arrival order.
// Each batch is its own S3 call; partial success across batches is normal.
func (s *Service) BatchDelete(ctx context.Context, bucket string, items []KeyVersion) (*DeleteResult, error) {
	result := &DeleteResult{}

	sanitized := make([]KeyVersion, 0, len(items))
	for _, item := range items {
		key, err := validation.SanitizeKey(item.Key)
		if err != nil {
			result.Errors = append(result.Errors, KeyError{Key: item.Key, Message: err.Error()})
			continue
		}
		sanitized = append(sanitized, KeyVersion{Key: key, VersionID: item.VersionID})
	}

	for _, batch := range packDeleteBatches(sanitized) {
		if err := ctx.Err(); err != nil {
			return nil, apperr.New(apperr.Cancelled, "batch delete cancelled")
		}

		objects := make([]types.ObjectIdentifier, len(batch))
		for i, item := range batch {
			objects[i] = types.ObjectIdentifier{Key: aws.String(item.Key), VersionId: item.VersionID}
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &types.Delete{Objects: objects},
		})
		if err != nil {
			for _, item := range batch {
				result.Errors = append(result.Errors, KeyError{Key: item.Key, Message: err.Error()})
			}
			continue
		}

		for _, deleted := range out.Deleted {
			result.Deleted = append(result.Deleted, KeyVersion{Key: aws.ToString(deleted.Key), VersionID: deleted.VersionId})
		}
		for _, itemErr := range out.Errors {
			result.Errors = append(result.Errors, KeyError{Key: aws.ToString(itemErr.Key), Message: aws.ToString(itemErr.Message)})
		}
	}

	return result, nil
}

// packDeleteBatches greedily packs items into batches obeying both caps.
// A single item whose own JSON encoding alone exceeds the byte cap still
// goes into its own batch rather than being dropped.
func packDeleteBatches(items []KeyVersion) [][]KeyVersion {
	var batches [][]KeyVersion
	var current []KeyVersion
	currentBytes := 2 // "[]"

	for _, item := range items {
		itemBytes := estimateItemBytes(item)
		wouldExceedCount := len(current) >= maxBatchCount
		wouldExceedBytes := len(current) > 0 && currentBytes+itemBytes > maxBatchBytes

		if wouldExceedCount || wouldExceedBytes {
			batches = append(batches, current)
			current = nil
			currentBytes = 2
		}

		current = append(current, item)
		currentBytes += itemBytes
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}

func estimateItemBytes(item KeyVersion) int {
	encoded, err := json.Marshal(item)
	if err != nil {
		return len(item.Key) + 32
	}
	return len(encoded) + 1 // +1 for the separating comma
}

// DeleteFolder recursively deletes everything under prefix: it enumerates
// with the listing service, batch-deletes every object, then removes
// folder placeholders in descending key-length order so a containing
// folder is never removed before its contents.
func (s *Service) DeleteFolder(ctx context.Context, bucket, prefix string) (*DeleteResult, error) {
	sanitized, err := validation.SanitizePrefix(prefix)
	if err != nil {
		return nil, err
	}

	files, placeholders, err := s.walkFolder(ctx, bucket, sanitized)
	if err != nil {
		return nil, err
	}

	result, err := s.BatchDelete(ctx, bucket, files)
	if err != nil {
		return nil, err
	}

	sort.Slice(placeholders, func(i, j int) bool { return len(placeholders[i]) > len(placeholders[j]) })
	for _, placeholder := range placeholders {
		if err := ctx.Err(); err != nil {
			return result, apperr.New(apperr.Cancelled, "folder delete cancelled")
		}
		if err := s.Delete(ctx, bucket, placeholder, nil); err != nil {
			result.Errors = append(result.Errors, KeyError{Key: placeholder, Message: err.Error()})
			continue
		}
		result.Deleted = append(result.Deleted, KeyVersion{Key: placeholder})
	}

	return result, nil
}

// walkFolder performs its own breadth-within-level walk (distinct from
// listing.Service.Enumerate, which discards folder keys into its internal
// traversal queue) so it can return both plain file keys and folder
// placeholder keys for DeleteFolder to remove in the right order.
func (s *Service) walkFolder(ctx context.Context, bucket, prefix string) (files []KeyVersion, placeholders []string, err error) {
	queue := []string{prefix}

	for len(queue) > 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, apperr.New(apperr.Cancelled, "folder walk cancelled")
		}

		current := queue[0]
		queue = queue[1:]

		var continuationToken *string
		for {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, apperr.New(apperr.Cancelled, "folder walk cancelled")
			}

			window, werr := s.listing.ListWindow(ctx, bucket, current, continuationToken, false)
			if werr != nil {
				return nil, nil, werr
			}

			for _, obj := range window.Objects {
				if obj.IsFolder {
					placeholders = append(placeholders, obj.Key)
					if obj.Key != current {
						queue = append(queue, obj.Key)
					}
					continue
				}
				files = append(files, KeyVersion{Key: obj.Key})
			}

			if !window.IsTruncated {
				break
			}
			continuationToken = window.ContinuationToken
		}
	}

	return files, placeholders, nil
}

// CreateFolder writes an empty object named prefix+"/" as a folder
// placeholder.
func (s *Service) CreateFolder(ctx context.Context, bucket, path string) error {
	sanitized, err := validation.SanitizeKey(strings.TrimSuffix(path, "/"))
	if err != nil {
		return err
	}

	key := sanitized + "/"
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return apperr.Wrap(apperr.S3Error, "creating folder placeholder", err)
	}
	return nil
}

// Copy issues CopyObject, rejecting a destinationKey that is empty, starts
// with "/", or differs only by un-normalized duplicate slashes, and a
// sourceKey that escapes the bucket namespace (traversal segments, a
// leading slash, or embedded NULs).
func (s *Service) Copy(ctx context.Context, bucket, sourceKey, destinationKey string, versionID *string) error {
	sourceKey, err := validation.SanitizeKey(sourceKey)
	if err != nil {
		return err
	}
	if err := validateCopyDestination(destinationKey); err != nil {
		return err
	}

	copySource := fmt.Sprintf("%s/%s", bucket, sourceKey)
	if versionID != nil {
		copySource += "?versionId=" + *versionID
	}

	_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(bucket),
		Key:        aws.String(destinationKey),
		CopySource: aws.String(copySource),
	})
	if err != nil {
		return apperr.Wrap(apperr.S3Error, "copying object", err)
	}
	return nil
}

// Move copies then deletes the source. A failed copy aborts without
// deleting; a failed post-delete is reported but the copy still stands.
func (s *Service) Move(ctx context.Context, bucket, sourceKey, destinationKey string, versionID *string) error {
	if err := s.Copy(ctx, bucket, sourceKey, destinationKey, versionID); err != nil {
		return err
	}
	if err := s.Delete(ctx, bucket, sourceKey, versionID); err != nil {
		return apperr.Wrap(apperr.S3Error, "copy succeeded but deleting source failed", err)
	}
	return nil
}

func validateCopyDestination(destinationKey string) error {
	if destinationKey == "" {
		return apperr.New(apperr.InvalidInput, "destinationKey must not be empty")
	}
	if strings.HasPrefix(destinationKey, "/") {
		return apperr.New(apperr.InvalidInput, "destinationKey must not start with /")
	}
	if strings.Contains(destinationKey, "//") {
		return apperr.New(apperr.InvalidInput, "destinationKey must not contain duplicate slashes")
	}
	if _, err := validation.SanitizeKey(destinationKey); err != nil {
		return err
	}
	return nil
}

// BatchCopy packs operations into fixed-count batches of at most 1000 and
// executes each copy individually against S3 (S3 has no atomic batch-copy
// primitive), bounding per-batch concurrency at batchCopyParallelism.
func (s *Service) BatchCopy(ctx context.Context, bucket string, ops []CopyOp) (*CopyResult, error) {
	return s.runBatch(ctx, bucket, ops, s.Copy)
}

// BatchMove is BatchCopy followed by a delete of each successfully moved
// source.
func (s *Service) BatchMove(ctx context.Context, bucket string, ops []CopyOp) (*CopyResult, error) {
	return s.runBatch(ctx, bucket, ops, s.Move)
}

type copyFunc func(ctx context.Context, bucket, sourceKey, destinationKey string, versionID *string) error

func (s *Service) runBatch(ctx context.Context, bucket string, ops []CopyOp, op copyFunc) (*CopyResult, error) {
	result := &CopyResult{}

	for start := 0; start < len(ops); start += maxBatchCount {
		end := start + maxBatchCount
		if end > len(ops) {
			end = len(ops)
		}

		batchResult, err := s.runOneBatch(ctx, bucket, ops[start:end], op)
		if err != nil {
			return nil, err
		}
		result.Successful = append(result.Successful, batchResult.Successful...)
		result.Errors = append(result.Errors, batchResult.Errors...)
	}

	return result, nil
}

func (s *Service) runOneBatch(ctx context.Context, bucket string, ops []CopyOp, op copyFunc) (*CopyResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.New(apperr.Cancelled, "batch operation cancelled")
	}

	type outcome struct {
		sourceKey      string
		destinationKey string
		err            error
	}

	outcomes := make([]outcome, len(ops))
	sem := make(chan struct{}, batchCopyParallelism)
	var wg sync.WaitGroup

	for i, item := range ops {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item CopyOp) {
			defer wg.Done()
			defer func() { <-sem }()
			err := op(ctx, bucket, item.SourceKey, item.DestinationKey, item.VersionID)
			outcomes[i] = outcome{sourceKey: item.SourceKey, destinationKey: item.DestinationKey, err: err}
		}(i, item)
	}
	wg.Wait()

	result := &CopyResult{}
	for _, o := range outcomes {
		if o.err != nil {
			dest := o.destinationKey
			result.Errors = append(result.Errors, CopyOpError{SourceKey: o.sourceKey, Message: o.err.Error(), DestinationKey: &dest})
			continue
		}
		result.Successful = append(result.Successful, o.sourceKey)
	}

	return result, nil
}

// SeedTestItems creates seedItemCount zero-byte objects under prefix+"/"
// with deterministic names, for benchmarking. It is feature-flagged and
// must be absent from the router entirely in hardened builds.
func (s *Service) SeedTestItems(ctx context.Context, bucket, prefix string) (int, error) {
	if !s.seedItemsEnabled {
		return 0, apperr.New(apperr.Forbidden, "seed-test-items is disabled in this build")
	}
	if seedItemCount > maxSeedItems {
		return 0, apperr.Newf(apperr.InvalidInput, "count %d exceeds safety cap of %d", seedItemCount, maxSeedItems)
	}

	sanitized, err := validation.SanitizePrefix(prefix)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := 0; i < seedItemCount; i++ {
		if err := ctx.Err(); err != nil {
			return created, apperr.New(apperr.Cancelled, "seeding cancelled")
		}
		key := fmt.Sprintf("%s/seed-item-%06d", strings.TrimSuffix(sanitized, "/"), i)
		if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}); err != nil {
			return created, apperr.Wrap(apperr.S3Error, "seeding test item", err)
		}
		created++
	}

	return created, nil
}
