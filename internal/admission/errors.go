package admission

import (
	"errors"
	"fmt"
)

// ErrNameFormat is wrapped by every NameFormatError.
var ErrNameFormat = errors.New("filename does not follow the naming convention")

// NameFormatError reports a file that was quarantined because of its name.
type NameFormatError struct {
	Path string
}

func (e *NameFormatError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, ErrNameFormat)
}

func (e *NameFormatError) Unwrap() error {
	return ErrNameFormat
}

// StoreError is a transient object-store failure: the store was unreachable
// or rejected the request after every attempt.
type StoreError struct {
	// Op is the operation that failed ("exists" or "upload").
	Op       string
	Key      string
	Attempts int
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store.%s %s failed after %d attempt(s): %v", e.Op, e.Key, e.Attempts, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a StoreError.
func IsTransient(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
