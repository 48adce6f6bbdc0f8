package admission

import (
	"context"
	"sync"

	"github.com/andresuchdata/dropgate/internal/storage"
)

// fakeStore is an ObjectStorage whose behaviour is set per test through
// function fields. It counts calls.
type fakeStore struct {
	mu sync.Mutex

	ListObjectsFunc func(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
	UploadFileFunc  func(ctx context.Context, key, localPath string) error
	PingFunc        func(ctx context.Context) error

	listCalls   int
	uploadCalls int
	uploaded    []string
}

func (f *fakeStore) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.ListObjectsFunc != nil {
		return f.ListObjectsFunc(ctx, prefix)
	}
	return nil, nil
}

func (f *fakeStore) UploadFile(ctx context.Context, key, localPath string) error {
	f.mu.Lock()
	f.uploadCalls++
	f.mu.Unlock()
	if f.UploadFileFunc != nil {
		if err := f.UploadFileFunc(ctx, key, localPath); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.uploaded = append(f.uploaded, key)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.PingFunc != nil {
		return f.PingFunc(ctx)
	}
	return nil
}

func (f *fakeStore) uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploadCalls
}

func (f *fakeStore) lists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}
