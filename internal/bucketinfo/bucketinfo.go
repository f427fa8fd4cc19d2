// Package bucketinfo implements spec.md §4.4's BucketInfoService: a
// best-effort summary of a bucket's versioning, encryption, and lifecycle
// configuration.
package bucketinfo

import (
	"context"
	"errors"
	"strconv"

	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/s3iface"
)

// Versioning reports a bucket's versioning configuration.
type Versioning struct {
	Status    string  `json:"status"`
	MFADelete *string `json:"mfaDelete,omitempty"`
}

// Encryption reports server-side default encryption, when configured.
type Encryption struct {
	Algorithm string  `json:"algorithm"`
	KMSKeyID  *string `json:"kmsKeyId,omitempty"`
}

// LifecycleRule is one rule from the bucket's lifecycle configuration.
type LifecycleRule struct {
	ID                             *string `json:"id,omitempty"`
	Status                         string  `json:"status"`
	Prefix                         *string `json:"prefix,omitempty"`
	Expiration                     *string `json:"expiration,omitempty"`
	Transitions                    *string `json:"transitions,omitempty"`
	NoncurrentVersionExpiration    *string `json:"noncurrentVersionExpiration,omitempty"`
	AbortIncompleteMultipartUpload *string `json:"abortIncompleteMultipartUpload,omitempty"`
}

// Info is the aggregate BucketInfoService response.
type Info struct {
	Versioning       Versioning      `json:"versioning"`
	Encryption       *Encryption     `json:"encryption"`
	EncryptionError  string          `json:"encryptionError,omitempty"`
	LifecycleRules   []LifecycleRule `json:"lifecycleRules"`
}

// Service reports bucket configuration summaries.
type Service struct {
	client s3iface.Client
}

// New creates a Service bound to client.
func New(client s3iface.Client) *Service {
	return &Service{client: client}
}

// Get returns versioning, encryption, and lifecycle info for bucket. Each
// sub-call is best-effort: a missing encryption or lifecycle configuration
// is normal and does not fail the whole call. Versioning is the one
// sub-call that propagates its error, since a bucket without versioning
// enabled still always answers GetBucketVersioning successfully.
func (s *Service) Get(ctx context.Context, bucket string) (*Info, error) {
	versioning, err := s.getVersioning(ctx, bucket)
	if err != nil {
		return nil, err
	}

	info := &Info{Versioning: *versioning, LifecycleRules: []LifecycleRule{}}

	encryption, encErr := s.getEncryption(ctx, bucket)
	switch {
	case encErr == nil:
		info.Encryption = encryption
	case isNotFoundLikeError(encErr):
		// No default encryption configured — normal, encryption stays nil.
	default:
		info.EncryptionError = encErr.Error()
	}

	rules, lifecycleErr := s.getLifecycleRules(ctx, bucket)
	if lifecycleErr == nil {
		info.LifecycleRules = rules
	}
	// A missing lifecycle configuration is as normal as missing encryption;
	// unlike encryption, spec.md does not ask for a parallel lifecycleError
	// field, so other lifecycle errors are silently treated as "no rules".

	return info, nil
}

func (s *Service) getVersioning(ctx context.Context, bucket string) (*Versioning, error) {
	out, err := s.client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{Bucket: aws.String(bucket)})
	if err != nil {
		return nil, apperr.Wrap(apperr.S3Error, "reading bucket versioning", err)
	}

	status := string(out.Status)
	if status == "" {
		status = "Disabled"
	}

	v := &Versioning{Status: status}
	if out.MFADelete != "" {
		mfa := string(out.MFADelete)
		v.MFADelete = &mfa
	}
	return v, nil
}

func (s *Service) getEncryption(ctx context.Context, bucket string) (*Encryption, error) {
	out, err := s.client.GetBucketEncryption(ctx, &s3.GetBucketEncryptionInput{Bucket: aws.String(bucket)})
	if err != nil {
		return nil, err
	}
	if out.ServerSideEncryptionConfiguration == nil || len(out.ServerSideEncryptionConfiguration.Rules) == 0 {
		return nil, nil
	}

	rule := out.ServerSideEncryptionConfiguration.Rules[0]
	if rule.ApplyServerSideEncryptionByDefault == nil {
		return nil, nil
	}

	enc := &Encryption{Algorithm: string(rule.ApplyServerSideEncryptionByDefault.SSEAlgorithm)}
	if kmsID := rule.ApplyServerSideEncryptionByDefault.KMSMasterKeyID; kmsID != nil {
		enc.KMSKeyID = kmsID
	}
	return enc, nil
}

func (s *Service) getLifecycleRules(ctx context.Context, bucket string) ([]LifecycleRule, error) {
	out, err := s.client.GetBucketLifecycleConfiguration(ctx, &s3.GetBucketLifecycleConfigurationInput{Bucket: aws.String(bucket)})
	if err != nil {
		return nil, err
	}

	rules := make([]LifecycleRule, 0, len(out.Rules))
	for _, r := range out.Rules {
		rules = append(rules, translateLifecycleRule(r))
	}
	return rules, nil
}

func translateLifecycleRule(r types.LifecycleRule) LifecycleRule {
	rule := LifecycleRule{ID: r.ID, Status: string(r.Status)}

	if prefix := lifecycleFilterPrefix(r.Filter); prefix != nil {
		rule.Prefix = prefix
	} else if r.Prefix != nil {
		rule.Prefix = r.Prefix
	}

	if r.Expiration != nil {
		exp := formatExpiration(r.Expiration)
		rule.Expiration = &exp
	}
	if len(r.Transitions) > 0 {
		t := formatTransitions(r.Transitions)
		rule.Transitions = &t
	}
	if r.NoncurrentVersionExpiration != nil && r.NoncurrentVersionExpiration.NoncurrentDays != nil {
		nve := formatDays(*r.NoncurrentVersionExpiration.NoncurrentDays)
		rule.NoncurrentVersionExpiration = &nve
	}
	if r.AbortIncompleteMultipartUpload != nil && r.AbortIncompleteMultipartUpload.DaysAfterInitiation != nil {
		abort := formatDays(*r.AbortIncompleteMultipartUpload.DaysAfterInitiation)
		rule.AbortIncompleteMultipartUpload = &abort
	}

	return rule
}

// lifecycleFilterPrefix extracts the prefix from a LifecycleRuleFilter,
// which is a union type: only the Prefix and And (Prefix+Tags) members
// carry one.
func lifecycleFilterPrefix(filter types.LifecycleRuleFilter) *string {
	switch f := filter.(type) {
	case *types.LifecycleRuleFilterMemberPrefix:
		return &f.Value
	case *types.LifecycleRuleFilterMemberAnd:
		if f.Value.Prefix != nil {
			return f.Value.Prefix
		}
	}
	return nil
}

func formatExpiration(e *types.LifecycleExpiration) string {
	if e.Days != nil {
		return formatDays(*e.Days)
	}
	if e.Date != nil {
		return e.Date.Format("2006-01-02")
	}
	if aws.ToBool(e.ExpiredObjectDeleteMarker) {
		return "expiredObjectDeleteMarker"
	}
	return ""
}

func formatTransitions(transitions []types.Transition) string {
	out := ""
	for i, t := range transitions {
		if i > 0 {
			out += ","
		}
		out += string(t.StorageClass)
		if t.Days != nil {
			out += ":" + formatDays(*t.Days)
		}
	}
	return out
}

func formatDays(days int32) string {
	return strconv.Itoa(int(days))
}

// isNotFoundLikeError reports whether err looks like S3's
// ServerSideEncryptionConfigurationNotFoundError or an equivalent 404,
// which is the expected shape for a bucket with no default encryption.
func isNotFoundLikeError(err error) bool {
	var nf *types.NoSuchBucket
	if errors.As(err, &nf) {
		return true
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == 404
	}

	var apiErr interface{ ErrorCode() string }
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "ServerSideEncryptionConfigurationNotFoundError" || code == "NoSuchEncryptionConfiguration"
	}

	return false
}
