package domain

import "time"

// FileEvent is a single discovery of a local file, either from the startup
// backlog scan or from a live creation notification.
type FileEvent struct {
	Path         string    `json:"path"`
	DiscoveredAt time.Time `json:"discovered_at"`
	// Backlog is set for events produced by the startup scan.
	Backlog bool `json:"backlog"`
	// SettleChecks counts how many times the event already went through the
	// settle delay.
	SettleChecks int `json:"settle_checks"`
}

// NewFileEvent creates an event discovered now.
func NewFileEvent(path string) FileEvent {
	return FileEvent{Path: path, DiscoveredAt: time.Now()}
}

// QuarantineEntry is one line of the quarantine log.
type QuarantineEntry struct {
	Path       string    `json:"path"`
	RecordedAt time.Time `json:"recorded_at"`
}

// OutcomeRecord is what the journal persists for every terminal outcome.
type OutcomeRecord struct {
	ID         int64     `json:"id" db:"id"`
	Path       string    `json:"path" db:"path"`
	RemoteKey  string    `json:"remote_key" db:"remote_key"`
	Outcome    Outcome   `json:"outcome" db:"outcome"`
	Attempts   int       `json:"attempts" db:"attempts"`
	Error      string    `json:"error,omitempty" db:"error_message"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}
