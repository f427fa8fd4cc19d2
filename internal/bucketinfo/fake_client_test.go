package bucketinfo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type apiError struct {
	code string
}

func (e *apiError) Error() string     { return e.code }
func (e *apiError) ErrorCode() string { return e.code }

type fakeClient struct {
	versioning    *s3.GetBucketVersioningOutput
	versioningErr error
	encryption    *s3.GetBucketEncryptionOutput
	encryptionErr error
	lifecycle     *s3.GetBucketLifecycleConfigurationOutput
	lifecycleErr  error
}

func (f *fakeClient) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return nil, nil
}
func (f *fakeClient) ListObjectVersions(ctx context.Context, in *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error) {
	return nil, nil
}
func (f *fakeClient) HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return nil, nil
}
func (f *fakeClient) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return nil, nil
}
func (f *fakeClient) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return nil, nil
}
func (f *fakeClient) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return nil, nil
}
func (f *fakeClient) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	return nil, nil
}
func (f *fakeClient) CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	return nil, nil
}
func (f *fakeClient) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, nil
}
func (f *fakeClient) UploadPart(ctx context.Context, in *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, nil
}
func (f *fakeClient) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, nil
}
func (f *fakeClient) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, nil
}
func (f *fakeClient) GetBucketLocation(ctx context.Context, in *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error) {
	return nil, nil
}
func (f *fakeClient) GetBucketVersioning(ctx context.Context, in *s3.GetBucketVersioningInput, optFns ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error) {
	if f.versioningErr != nil {
		return nil, f.versioningErr
	}
	if f.versioning != nil {
		return f.versioning, nil
	}
	return &s3.GetBucketVersioningOutput{}, nil
}
func (f *fakeClient) GetBucketEncryption(ctx context.Context, in *s3.GetBucketEncryptionInput, optFns ...func(*s3.Options)) (*s3.GetBucketEncryptionOutput, error) {
	if f.encryptionErr != nil {
		return nil, f.encryptionErr
	}
	if f.encryption != nil {
		return f.encryption, nil
	}
	return &s3.GetBucketEncryptionOutput{}, nil
}
func (f *fakeClient) GetBucketLifecycleConfiguration(ctx context.Context, in *s3.GetBucketLifecycleConfigurationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLifecycleConfigurationOutput, error) {
	if f.lifecycleErr != nil {
		return nil, f.lifecycleErr
	}
	if f.lifecycle != nil {
		return f.lifecycle, nil
	}
	return &s3.GetBucketLifecycleConfigurationOutput{}, nil
}
func (f *fakeClient) ListBuckets(ctx context.Context, in *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	return nil, nil
}

var errGeneric = errors.New("boom")
