package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	ListObjectsV2Func func(context.Context, *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error)
	PutObjectFunc     func(context.Context, *s3.PutObjectInput) (*s3.PutObjectOutput, error)
	HeadBucketFunc    func(context.Context, *s3.HeadBucketInput) (*s3.HeadBucketOutput, error)
}

func (m *mockS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if m.ListObjectsV2Func != nil {
		return m.ListObjectsV2Func(ctx, in)
	}
	return &s3.ListObjectsV2Output{}, nil
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, in)
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if m.HeadBucketFunc != nil {
		return m.HeadBucketFunc(ctx, in)
	}
	return &s3.HeadBucketOutput{}, nil
}

func (m *mockS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("unexpected multipart upload")
}

func (m *mockS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("unexpected multipart upload")
}

func (m *mockS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("unexpected multipart upload")
}

func (m *mockS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func TestS3Client_ListObjects_FollowsPages(t *testing.T) {
	calls := 0
	m := &mockS3{
		ListObjectsV2Func: func(_ context.Context, in *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			assert.Equal(t, "bucket", aws.ToString(in.Bucket))
			assert.Equal(t, "12-3-a-math", aws.ToString(in.Prefix))
			calls++
			if calls == 1 {
				assert.Nil(t, in.ContinuationToken)
				return &s3.ListObjectsV2Output{
					Contents:              []types.Object{{Key: aws.String("12-3-a-math"), Size: aws.Int64(10)}},
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("next"),
				}, nil
			}
			assert.Equal(t, "next", aws.ToString(in.ContinuationToken))
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{{Key: aws.String("12-3-a-math-v2"), Size: aws.Int64(20)}},
			}, nil
		},
	}

	objects, err := newS3Client(m, "bucket").ListObjects(context.Background(), "12-3-a-math")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []ObjectInfo{
		{Key: "12-3-a-math", Size: 10},
		{Key: "12-3-a-math-v2", Size: 20},
	}, objects)
}

func TestS3Client_ListObjects_Error(t *testing.T) {
	m := &mockS3{
		ListObjectsV2Func: func(context.Context, *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error) {
			return nil, errors.New("connection refused")
		},
	}

	_, err := newS3Client(m, "bucket").ListObjects(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestS3Client_UploadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "12-3-a-math.pdf")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	var gotKey string
	var gotBody []byte
	m := &mockS3{
		PutObjectFunc: func(_ context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
			gotKey = aws.ToString(in.Key)
			body, err := io.ReadAll(in.Body)
			require.NoError(t, err)
			gotBody = body
			return &s3.PutObjectOutput{ETag: aws.String("etag")}, nil
		},
	}

	require.NoError(t, newS3Client(m, "bucket").UploadFile(context.Background(), "12-3-a-math", path))
	assert.Equal(t, "12-3-a-math", gotKey)
	assert.Equal(t, "content", string(gotBody))
}

func TestS3Client_UploadFile_MissingFile(t *testing.T) {
	err := newS3Client(&mockS3{}, "bucket").UploadFile(context.Background(), "k", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestS3Client_Ping(t *testing.T) {
	ok := newS3Client(&mockS3{}, "bucket")
	assert.NoError(t, ok.Ping(context.Background()))

	failing := newS3Client(&mockS3{
		HeadBucketFunc: func(context.Context, *s3.HeadBucketInput) (*s3.HeadBucketOutput, error) {
			return nil, errors.New("forbidden")
		},
	}, "bucket")
	assert.ErrorContains(t, failing.Ping(context.Background()), "forbidden")
}
