package storage

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient implements ObjectStorage on a MinIO server.
type MinioClient struct {
	client *minio.Client
	bucket string
}

// NewMinioClient builds a MinIO client for cfg.
func NewMinioClient(cfg Config) (*MinioClient, error) {
	host, secure := cfg.hostPort()

	var creds *credentials.Credentials
	if cfg.AccessKey != "" {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		creds = credentials.NewEnvMinio()
	}

	lookup := minio.BucketLookupAuto
	if cfg.PathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(host, &minio.Options{
		Creds:        creds,
		Secure:       secure,
		Region:       cfg.region(),
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioClient{client: client, bucket: cfg.Bucket}, nil
}

// ListObjects lists all objects for a given prefix.
func (c *MinioClient) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	results := make([]ObjectInfo, 0)
	for object := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("minio list %s/%s failed: %w", c.bucket, prefix, object.Err)
		}
		results = append(results, ObjectInfo{Key: object.Key, Size: object.Size})
	}
	return results, nil
}

// UploadFile uploads localPath with FPutObject, which handles multipart.
func (c *MinioClient) UploadFile(ctx context.Context, key, localPath string) error {
	if _, err := c.client.FPutObject(ctx, c.bucket, key, localPath, minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("minio upload %s/%s failed: %w", c.bucket, key, err)
	}
	return nil
}

// Ping checks that the bucket exists.
func (c *MinioClient) Ping(ctx context.Context) error {
	ok, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("minio bucket %s unreachable: %w", c.bucket, err)
	}
	if !ok {
		return fmt.Errorf("minio bucket %s does not exist", c.bucket)
	}
	return nil
}

var _ ObjectStorage = (*MinioClient)(nil)
