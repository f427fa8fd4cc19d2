package s3iface

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeClient struct {
	getObjectOut *s3.GetObjectOutput
	err          error
}

func (f *fakeClient) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{}, f.err
}
func (f *fakeClient) ListObjectVersions(ctx context.Context, in *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error) {
	return &s3.ListObjectVersionsOutput{}, f.err
}
func (f *fakeClient) HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{}, f.err
}
func (f *fakeClient) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return f.getObjectOut, f.err
}
func (f *fakeClient) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return &s3.PutObjectOutput{}, f.err
}
func (f *fakeClient) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return &s3.DeleteObjectOutput{}, f.err
}
func (f *fakeClient) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	return &s3.DeleteObjectsOutput{}, f.err
}
func (f *fakeClient) CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	return &s3.CopyObjectOutput{}, f.err
}
func (f *fakeClient) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return &s3.CreateMultipartUploadOutput{}, f.err
}
func (f *fakeClient) UploadPart(ctx context.Context, in *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return &s3.UploadPartOutput{}, f.err
}
func (f *fakeClient) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return &s3.CompleteMultipartUploadOutput{}, f.err
}
func (f *fakeClient) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, f.err
}
func (f *fakeClient) GetBucketLocation(ctx context.Context, in *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error) {
	return &s3.GetBucketLocationOutput{}, f.err
}
func (f *fakeClient) GetBucketVersioning(ctx context.Context, in *s3.GetBucketVersioningInput, optFns ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error) {
	return &s3.GetBucketVersioningOutput{}, f.err
}
func (f *fakeClient) GetBucketEncryption(ctx context.Context, in *s3.GetBucketEncryptionInput, optFns ...func(*s3.Options)) (*s3.GetBucketEncryptionOutput, error) {
	return &s3.GetBucketEncryptionOutput{}, f.err
}
func (f *fakeClient) GetBucketLifecycleConfiguration(ctx context.Context, in *s3.GetBucketLifecycleConfigurationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLifecycleConfigurationOutput, error) {
	return &s3.GetBucketLifecycleConfigurationOutput{}, f.err
}
func (f *fakeClient) ListBuckets(ctx context.Context, in *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	return &s3.ListBucketsOutput{}, f.err
}

type fakeMetrics struct {
	operations  []string
	errs        []error
	bytes       map[string]int64
	partSizes   []int64
	abortCount  int
	orphanCount int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{bytes: make(map[string]int64)}
}

func (m *fakeMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	m.operations = append(m.operations, operation)
	m.errs = append(m.errs, err)
}
func (m *fakeMetrics) RecordBytes(operation string, bytes int64) { m.bytes[operation] += bytes }
func (m *fakeMetrics) SetActiveUploads(count int)                {}
func (m *fakeMetrics) ObservePartSize(bytes int64)               { m.partSizes = append(m.partSizes, bytes) }
func (m *fakeMetrics) RecordOrphanedUpload()                     { m.orphanCount++ }
func (m *fakeMetrics) RecordMultipartAborted()                   { m.abortCount++ }

func TestInstrumentNilMetricsReturnsUnwrapped(t *testing.T) {
	client := &fakeClient{}
	got := Instrument(client, nil)
	if got != Client(client) {
		t.Error("Instrument with nil metrics should return the client unwrapped")
	}
}

func TestInstrumentObservesOperationAndOutcome(t *testing.T) {
	m := newFakeMetrics()
	client := Instrument(&fakeClient{}, m)

	if _, err := client.ListObjectsV2(context.Background(), &s3.ListObjectsV2Input{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(m.operations) != 1 || m.operations[0] != "ListObjectsV2" {
		t.Errorf("expected one ListObjectsV2 observation, got %v", m.operations)
	}
	if m.errs[0] != nil {
		t.Errorf("expected nil error recorded, got %v", m.errs[0])
	}
}

func TestInstrumentRecordsErrorOutcome(t *testing.T) {
	m := newFakeMetrics()
	wantErr := errors.New("boom")
	client := Instrument(&fakeClient{err: wantErr}, m)

	_, err := client.PutObject(context.Background(), &s3.PutObjectInput{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected error to propagate unchanged, got %v", err)
	}
	if len(m.errs) != 1 || m.errs[0] != wantErr {
		t.Errorf("expected recorded error %v, got %v", wantErr, m.errs)
	}
}

func TestInstrumentRecordsDownloadBytes(t *testing.T) {
	m := newFakeMetrics()
	client := Instrument(&fakeClient{getObjectOut: &s3.GetObjectOutput{ContentLength: aws.Int64(1024)}}, m)

	if _, err := client.GetObject(context.Background(), &s3.GetObjectInput{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.bytes["download"] != 1024 {
		t.Errorf("expected 1024 download bytes recorded, got %d", m.bytes["download"])
	}
}

func TestInstrumentRecordsUploadPartSizeAndBytes(t *testing.T) {
	m := newFakeMetrics()
	client := Instrument(&fakeClient{}, m)

	_, err := client.UploadPart(context.Background(), &s3.UploadPartInput{ContentLength: aws.Int64(5 << 20)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.bytes["upload_part"] != 5<<20 {
		t.Errorf("expected upload_part bytes recorded, got %d", m.bytes["upload_part"])
	}
	if len(m.partSizes) != 1 || m.partSizes[0] != 5<<20 {
		t.Errorf("expected one part size observation of 5MiB, got %v", m.partSizes)
	}
}

func TestInstrumentRecordsMultipartAbort(t *testing.T) {
	m := newFakeMetrics()
	client := Instrument(&fakeClient{}, m)

	if _, err := client.AbortMultipartUpload(context.Background(), &s3.AbortMultipartUploadInput{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.abortCount != 1 {
		t.Errorf("expected one recorded abort, got %d", m.abortCount)
	}
}
