package listing

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListWindowEmptyBucket(t *testing.T) {
	client := &fakeClient{listObjectsV2Pages: []*s3.ListObjectsV2Output{{
		IsTruncated: aws.Bool(false),
	}}}
	svc := New(client)

	window, err := svc.ListWindow(context.Background(), "b1", "", nil, false)
	require.NoError(t, err)
	assert.Empty(t, window.Objects)
	assert.False(t, window.IsTruncated)
}

func TestListWindowCollapsesPrefixesToFolders(t *testing.T) {
	client := &fakeClient{listObjectsV2Pages: []*s3.ListObjectsV2Output{{
		CommonPrefixes: []types.CommonPrefix{{Prefix: aws.String("dir/")}},
		Contents:       []types.Object{{Key: aws.String("file.txt"), Size: aws.Int64(42)}},
		IsTruncated:    aws.Bool(false),
	}}}
	svc := New(client)

	window, err := svc.ListWindow(context.Background(), "b1", "", nil, false)
	require.NoError(t, err)
	require.Len(t, window.Objects, 2)

	assert.True(t, window.Objects[0].IsFolder)
	assert.Equal(t, "dir", window.Objects[0].Name)
	assert.False(t, window.Objects[1].IsFolder)
	assert.Equal(t, "file.txt", window.Objects[1].Name)
}

func TestEnumerateCollectsAcrossPages(t *testing.T) {
	client := &fakeClient{listObjectsV2Pages: []*s3.ListObjectsV2Output{
		{
			Contents:              []types.Object{{Key: aws.String("dir/a")}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("token-1"),
		},
		{
			Contents:    []types.Object{{Key: aws.String("dir/b")}},
			IsTruncated: aws.Bool(false),
		},
	}}
	svc := New(client)

	result, err := svc.Enumerate(context.Background(), "b1", "dir/", nil)
	require.NoError(t, err)
	require.Len(t, result.Objects, 2)
	assert.False(t, result.Partial)
}

func TestEnumerateStopsOnCancellation(t *testing.T) {
	client := &fakeClient{listObjectsV2Pages: []*s3.ListObjectsV2Output{{IsTruncated: aws.Bool(false)}}}
	svc := New(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Enumerate(ctx, "b1", "dir/", nil)
	require.Error(t, err)
}

func TestEnumerateStopsWhenPromptDeclines(t *testing.T) {
	contents := make([]types.Object, 0, 600)
	for i := 0; i < 600; i++ {
		contents = append(contents, types.Object{Key: aws.String("dir/file")})
	}
	client := &fakeClient{listObjectsV2Pages: []*s3.ListObjectsV2Output{{
		Contents:    contents,
		IsTruncated: aws.Bool(false),
	}}}
	svc := New(client)

	result, err := svc.Enumerate(context.Background(), "b1", "dir/", func(collected int) bool {
		return false
	})
	require.NoError(t, err)
	assert.True(t, result.Partial)
}
