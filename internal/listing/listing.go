// Package listing implements the window-listing and recursive-enumeration
// operations of spec.md §4.4.
package listing

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/s3iface"
)

// PageSize is the fixed S3 page size spec.md §4.4 and §9 call for; it is
// not an additional application-level cap, the server performs exactly one
// S3 call per window-list request.
const PageSize = 5000

// Object is the DTO of spec.md §3.
type Object struct {
	Key            string  `json:"key"`
	Name           string  `json:"name"`
	IsFolder       bool    `json:"isFolder"`
	Size           *int64  `json:"size,omitempty"`
	LastModified   *string `json:"lastModified,omitempty"`
	ETag           *string `json:"etag,omitempty"`
	VersionID      *string `json:"versionId,omitempty"`
	IsLatest       *bool   `json:"isLatest,omitempty"`
	IsDeleteMarker *bool   `json:"isDeleteMarker,omitempty"`
}

// Window is the result of listing one page.
type Window struct {
	Objects           []Object `json:"objects"`
	ContinuationToken *string  `json:"continuationToken,omitempty"`
	IsTruncated       bool     `json:"isTruncated"`
}

// Service lists prefixes and recursively enumerates folders.
type Service struct {
	client s3iface.Client
}

// New creates a Service bound to client.
func New(client s3iface.Client) *Service {
	return &Service{client: client}
}

// ListWindow lists one page of bucket under prefix. Without versions, the
// delimiter "/" collapses sub-prefixes into isFolder:true entries. With
// versions, every version and delete marker is returned individually.
func (s *Service) ListWindow(ctx context.Context, bucket, prefix string, continuationToken *string, includeVersions bool) (*Window, error) {
	if includeVersions {
		return s.listVersions(ctx, bucket, prefix, continuationToken)
	}
	return s.listPlain(ctx, bucket, prefix, continuationToken)
}

func (s *Service) listPlain(ctx context.Context, bucket, prefix string, continuationToken *string) (*Window, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:            aws.String(bucket),
		Prefix:            aws.String(prefix),
		Delimiter:         aws.String("/"),
		MaxKeys:           aws.Int32(PageSize),
		ContinuationToken: continuationToken,
	})
	if err != nil {
		return nil, translateS3Error(err, "listing objects")
	}

	objects := make([]Object, 0, len(out.CommonPrefixes)+len(out.Contents))
	for _, cp := range out.CommonPrefixes {
		key := aws.ToString(cp.Prefix)
		objects = append(objects, Object{Key: key, Name: folderName(key), IsFolder: true})
	}
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if strings.HasSuffix(key, "/") {
			objects = append(objects, Object{Key: key, Name: folderName(key), IsFolder: true})
			continue
		}
		objects = append(objects, Object{
			Key:          key,
			Name:         fileName(key),
			IsFolder:     false,
			Size:         aws.Int64(aws.ToInt64(obj.Size)),
			LastModified: formatTime(obj.LastModified),
			ETag:         obj.ETag,
		})
	}

	return &Window{
		Objects:           objects,
		ContinuationToken: out.NextContinuationToken,
		IsTruncated:       aws.ToBool(out.IsTruncated),
	}, nil
}

func (s *Service) listVersions(ctx context.Context, bucket, prefix string, continuationToken *string) (*Window, error) {
	input := &s3.ListObjectVersionsInput{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
		MaxKeys:   aws.Int32(PageSize),
	}
	if continuationToken != nil {
		input.KeyMarker = continuationToken
	}

	out, err := s.client.ListObjectVersions(ctx, input)
	if err != nil {
		return nil, translateS3Error(err, "listing object versions")
	}

	objects := make([]Object, 0, len(out.CommonPrefixes)+len(out.Versions)+len(out.DeleteMarkers))
	for _, cp := range out.CommonPrefixes {
		key := aws.ToString(cp.Prefix)
		objects = append(objects, Object{Key: key, Name: folderName(key), IsFolder: true})
	}
	for _, v := range out.Versions {
		key := aws.ToString(v.Key)
		objects = append(objects, Object{
			Key:          key,
			Name:         fileName(key),
			IsFolder:     false,
			Size:         aws.Int64(aws.ToInt64(v.Size)),
			LastModified: formatTime(v.LastModified),
			ETag:         v.ETag,
			VersionID:    v.VersionId,
			IsLatest:     v.IsLatest,
		})
	}
	for _, m := range out.DeleteMarkers {
		key := aws.ToString(m.Key)
		isDeleteMarker := true
		objects = append(objects, Object{
			Key:            key,
			Name:           fileName(key),
			IsFolder:       false,
			LastModified:   formatTime(m.LastModified),
			VersionID:      m.VersionId,
			IsLatest:       m.IsLatest,
			IsDeleteMarker: &isDeleteMarker,
		})
	}

	var next *string
	if aws.ToBool(out.IsTruncated) {
		next = out.NextKeyMarker
	}

	return &Window{Objects: objects, ContinuationToken: next, IsTruncated: aws.ToBool(out.IsTruncated)}, nil
}

// ContinuationPromptStartAt is when the first recursive-enumeration
// continuation-prompt callback fires; afterward it fires every
// ContinuationPromptInterval items (spec.md §4.4).
const (
	ContinuationPromptStartAt    = 500
	ContinuationPromptInterval   = 10000
)

// EnumerateResult is the outcome of a recursive enumeration.
type EnumerateResult struct {
	Objects []Object
	Partial bool
}

// ContinuationPrompt is invoked periodically during a large recursive
// enumeration; returning false stops enumeration early with a partial
// result. It is a pure same-process hook — spec.md §9 resolves that no
// HTTP-level prompt exists, callers that don't need one pass nil.
type ContinuationPrompt func(collected int) bool

// Enumerate performs a depth-first, breadth-within-level walk starting at
// prefix, collecting every object key (not folder placeholders) and
// queuing sub-prefixes. It checks ctx at every page boundary, returning
// apperr.Cancelled if the caller cancels mid-walk.
func (s *Service) Enumerate(ctx context.Context, bucket, prefix string, onPrompt ContinuationPrompt) (*EnumerateResult, error) {
	queue := []string{prefix}
	var collected []Object
	nextPromptAt := ContinuationPromptStartAt

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, apperr.New(apperr.Cancelled, "enumeration cancelled")
		}

		current := queue[0]
		queue = queue[1:]

		var continuationToken *string
		for {
			if err := ctx.Err(); err != nil {
				return nil, apperr.New(apperr.Cancelled, "enumeration cancelled")
			}

			window, err := s.listPlain(ctx, bucket, current, continuationToken)
			if err != nil {
				return nil, err
			}

			for _, obj := range window.Objects {
				if obj.IsFolder {
					if obj.Key != current {
						queue = append(queue, obj.Key)
					}
					continue
				}
				collected = append(collected, obj)
			}

			if onPrompt != nil && len(collected) >= nextPromptAt {
				if !onPrompt(len(collected)) {
					return &EnumerateResult{Objects: collected, Partial: true}, nil
				}
				nextPromptAt += ContinuationPromptInterval
			}

			if !window.IsTruncated {
				break
			}
			continuationToken = window.ContinuationToken
		}
	}

	return &EnumerateResult{Objects: collected}, nil
}

func folderName(key string) string {
	trimmed := strings.TrimSuffix(key, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

func fileName(key string) string {
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		return key[idx+1:]
	}
	return key
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func translateS3Error(err error, action string) error {
	return apperr.Wrap(apperr.S3Error, action, err)
}
