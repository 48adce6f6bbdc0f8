package admission

import (
	"context"

	"github.com/andresuchdata/dropgate/internal/storage"
	"github.com/andresuchdata/dropgate/pkg/logger"
)

// Uploader transfers local files to the object store with bounded retry.
// It never deletes the local file; that is the caller's decision.
type Uploader struct {
	store  storage.ObjectStorage
	policy RetryPolicy
}

// NewUploader creates an Uploader.
func NewUploader(store storage.ObjectStorage, policy RetryPolicy) *Uploader {
	return &Uploader{store: store, policy: policy}
}

// Upload sends localPath to remoteKey. Every failure is retried until the
// policy's attempts are used up. It returns the number of attempts made; the
// error, if any, is a *StoreError wrapping the last failure.
func (u *Uploader) Upload(ctx context.Context, localPath, remoteKey string) (int, error) {
	maxAttempts := u.policy.attempts()

	attempts, err := u.policy.do(ctx, func(ctx context.Context, attempt int) error {
		logger.Log.Info().
			Str("path", localPath).
			Str("key", remoteKey).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msg("Uploading file")

		if err := u.store.UploadFile(ctx, remoteKey, localPath); err != nil {
			logger.Log.Warn().
				Err(err).
				Str("key", remoteKey).
				Int("attempt", attempt).
				Int("max_attempts", maxAttempts).
				Msg("Upload attempt failed")
			return err
		}
		return nil
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("path", localPath).
			Str("key", remoteKey).
			Int("attempts", attempts).
			Msg("Upload failed, keeping local file")
		return attempts, &StoreError{Op: "upload", Key: remoteKey, Attempts: attempts, Err: err}
	}

	logger.Log.Info().
		Str("key", remoteKey).
		Int("attempts", attempts).
		Msg("Upload succeeded")
	return attempts, nil
}
