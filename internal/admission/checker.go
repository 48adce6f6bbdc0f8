package admission

import (
	"context"

	"github.com/andresuchdata/dropgate/internal/storage"
)

// ExistenceChecker answers whether a key is already in the object store.
type ExistenceChecker struct {
	store storage.ObjectStorage
}

// NewExistenceChecker creates a checker over store.
func NewExistenceChecker(store storage.ObjectStorage) *ExistenceChecker {
	return &ExistenceChecker{store: store}
}

// Exists lists objects under key as prefix and looks for an exact match, so
// keys that merely share the prefix do not count. A store failure is
// returned as a *StoreError and is not retried here.
func (c *ExistenceChecker) Exists(ctx context.Context, key string) (bool, error) {
	objects, err := c.store.ListObjects(ctx, key)
	if err != nil {
		return false, &StoreError{Op: "exists", Key: key, Attempts: 1, Err: err}
	}
	for _, obj := range objects {
		if obj.Key == key {
			return true, nil
		}
	}
	return false, nil
}
