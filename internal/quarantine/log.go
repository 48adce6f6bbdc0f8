// Package quarantine keeps the append-only record of files whose names
// failed validation. The file is meant for operators; nothing reads it back.
package quarantine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/dropgate/internal/domain"
)

// DefaultFileName is the log's name inside the watched root.
const DefaultFileName = "wrong_convention_names.txt"

// Log appends one path per line. Appends are serialised, so concurrent
// pipelines produce whole lines in the order they acquired the lock.
type Log struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New returns the log stored as name inside root.
func New(root, name string) *Log {
	if name == "" {
		name = DefaultFileName
	}
	return &Log{path: filepath.Join(root, name), now: time.Now}
}

// Path returns the log file's location.
func (l *Log) Path() string {
	return l.path
}

// IsReserved reports whether path names the log itself (in any directory),
// which must never be treated as ingestable data.
func (l *Log) IsReserved(path string) bool {
	return filepath.Base(path) == filepath.Base(l.path)
}

// Record appends path to the log. A path containing a line break is
// written Go-quoted so that every line stays one path.
func (l *Log) Record(path string) (domain.QuarantineEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := domain.QuarantineEntry{Path: path, RecordedAt: l.now()}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return entry, fmt.Errorf("failed to open quarantine log %s: %w", l.path, err)
	}
	if _, err := f.WriteString(line(path) + "\n"); err != nil {
		f.Close()
		return entry, fmt.Errorf("failed to append to quarantine log %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return entry, fmt.Errorf("failed to close quarantine log %s: %w", l.path, err)
	}
	return entry, nil
}

func line(path string) string {
	if strings.ContainsAny(path, "\r\n") {
		return strconv.Quote(path)
	}
	return path
}
