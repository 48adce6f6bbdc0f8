package storage

import "context"

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the object-store operations the admission pipeline
// needs. The bucket is bound when the client is constructed. Implementations
// must be safe for concurrent use.
type ObjectStorage interface {
	// ListObjects lists all objects whose key starts with prefix.
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// UploadFile transfers the file at localPath to key in a single call,
	// leaving multipart decisions to the driver.
	UploadFile(ctx context.Context, key, localPath string) error
	// Ping verifies the bucket is reachable.
	Ping(ctx context.Context) error
}
