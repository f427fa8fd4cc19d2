package s3iface

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/andrewtheguy/s3browser-sub000/pkg/metrics"
)

// instrumentedClient wraps a Client, reporting each call's duration and
// outcome to an S3Metrics. Every method follows the same shape: call
// through, record, return — so metrics observation never changes behavior
// or swallows an error.
type instrumentedClient struct {
	Client
	metrics metrics.S3Metrics
}

// Instrument wraps client so every call it makes is observed by m. If m is
// nil, Instrument returns client unwrapped (zero overhead when metrics are
// disabled).
func Instrument(client Client, m metrics.S3Metrics) Client {
	if m == nil {
		return client
	}
	return &instrumentedClient{Client: client, metrics: m}
}

func (c *instrumentedClient) observe(operation string, start time.Time, err error) {
	metrics.ObserveOperation(c.metrics, operation, time.Since(start), err)
}

func (c *instrumentedClient) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	start := time.Now()
	out, err := c.Client.ListObjectsV2(ctx, in, optFns...)
	c.observe("ListObjectsV2", start, err)
	return out, err
}

func (c *instrumentedClient) ListObjectVersions(ctx context.Context, in *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error) {
	start := time.Now()
	out, err := c.Client.ListObjectVersions(ctx, in, optFns...)
	c.observe("ListObjectVersions", start, err)
	return out, err
}

func (c *instrumentedClient) HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	start := time.Now()
	out, err := c.Client.HeadObject(ctx, in, optFns...)
	c.observe("HeadObject", start, err)
	return out, err
}

func (c *instrumentedClient) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	start := time.Now()
	out, err := c.Client.GetObject(ctx, in, optFns...)
	c.observe("GetObject", start, err)
	if err == nil && out.ContentLength != nil {
		metrics.RecordBytes(c.metrics, "download", *out.ContentLength)
	}
	return out, err
}

func (c *instrumentedClient) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	start := time.Now()
	out, err := c.Client.PutObject(ctx, in, optFns...)
	c.observe("PutObject", start, err)
	return out, err
}

func (c *instrumentedClient) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	start := time.Now()
	out, err := c.Client.DeleteObject(ctx, in, optFns...)
	c.observe("DeleteObject", start, err)
	return out, err
}

func (c *instrumentedClient) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	start := time.Now()
	out, err := c.Client.DeleteObjects(ctx, in, optFns...)
	c.observe("DeleteObjects", start, err)
	return out, err
}

func (c *instrumentedClient) CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	start := time.Now()
	out, err := c.Client.CopyObject(ctx, in, optFns...)
	c.observe("CopyObject", start, err)
	return out, err
}

func (c *instrumentedClient) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	start := time.Now()
	out, err := c.Client.CreateMultipartUpload(ctx, in, optFns...)
	c.observe("CreateMultipartUpload", start, err)
	return out, err
}

func (c *instrumentedClient) UploadPart(ctx context.Context, in *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	start := time.Now()
	out, err := c.Client.UploadPart(ctx, in, optFns...)
	c.observe("UploadPart", start, err)
	if err == nil && in.ContentLength != nil {
		metrics.RecordBytes(c.metrics, "upload_part", *in.ContentLength)
		metrics.ObservePartSize(c.metrics, *in.ContentLength)
	}
	return out, err
}

func (c *instrumentedClient) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	start := time.Now()
	out, err := c.Client.CompleteMultipartUpload(ctx, in, optFns...)
	c.observe("CompleteMultipartUpload", start, err)
	return out, err
}

func (c *instrumentedClient) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	start := time.Now()
	out, err := c.Client.AbortMultipartUpload(ctx, in, optFns...)
	c.observe("AbortMultipartUpload", start, err)
	if err == nil {
		metrics.RecordMultipartAborted(c.metrics)
	}
	return out, err
}

func (c *instrumentedClient) GetBucketLocation(ctx context.Context, in *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error) {
	start := time.Now()
	out, err := c.Client.GetBucketLocation(ctx, in, optFns...)
	c.observe("GetBucketLocation", start, err)
	return out, err
}

func (c *instrumentedClient) GetBucketVersioning(ctx context.Context, in *s3.GetBucketVersioningInput, optFns ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error) {
	start := time.Now()
	out, err := c.Client.GetBucketVersioning(ctx, in, optFns...)
	c.observe("GetBucketVersioning", start, err)
	return out, err
}

func (c *instrumentedClient) GetBucketEncryption(ctx context.Context, in *s3.GetBucketEncryptionInput, optFns ...func(*s3.Options)) (*s3.GetBucketEncryptionOutput, error) {
	start := time.Now()
	out, err := c.Client.GetBucketEncryption(ctx, in, optFns...)
	c.observe("GetBucketEncryption", start, err)
	return out, err
}

func (c *instrumentedClient) GetBucketLifecycleConfiguration(ctx context.Context, in *s3.GetBucketLifecycleConfigurationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLifecycleConfigurationOutput, error) {
	start := time.Now()
	out, err := c.Client.GetBucketLifecycleConfiguration(ctx, in, optFns...)
	c.observe("GetBucketLifecycleConfiguration", start, err)
	return out, err
}

func (c *instrumentedClient) ListBuckets(ctx context.Context, in *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	start := time.Now()
	out, err := c.Client.ListBuckets(ctx, in, optFns...)
	c.observe("ListBuckets", start, err)
	return out, err
}
