package domain

import "strings"

// Outcome is the terminal (or parking) state a FileEvent reaches in the
// admission pipeline.
type Outcome string

const (
	// OutcomeUploaded means the file was transferred and the local copy removed.
	OutcomeUploaded Outcome = "uploaded"
	// OutcomeSkipped means the key already existed remotely and the local
	// duplicate was removed.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeQuarantined means the name failed validation; the file is kept.
	OutcomeQuarantined Outcome = "quarantined"
	// OutcomeFailed means the store could not be reached or the upload
	// exhausted its retries; the file is kept for a later run.
	OutcomeFailed Outcome = "failed"
	// OutcomeDelayed means the name is provisional and the event must be
	// re-evaluated after the settle delay.
	OutcomeDelayed Outcome = "delayed"
	// OutcomeIgnored covers the reserved quarantine log, directories and
	// paths that vanished before they could be processed.
	OutcomeIgnored Outcome = "ignored"
)

var outcomeLabels = map[Outcome]string{
	OutcomeUploaded:    "Uploaded",
	OutcomeSkipped:     "Skipped (duplicate)",
	OutcomeQuarantined: "Quarantined",
	OutcomeFailed:      "Failed",
	OutcomeDelayed:     "Delayed",
	OutcomeIgnored:     "Ignored",
}

// Outcomes lists every outcome in display order.
var Outcomes = []Outcome{
	OutcomeUploaded,
	OutcomeSkipped,
	OutcomeQuarantined,
	OutcomeFailed,
	OutcomeDelayed,
	OutcomeIgnored,
}

// Label returns a human-readable label for the outcome.
func (o Outcome) Label() string {
	if label, ok := outcomeLabels[o]; ok {
		return label
	}

	return "Unknown"
}

// Terminal reports whether the outcome ends processing of the event.
func (o Outcome) Terminal() bool {
	return o != OutcomeDelayed
}

// ParseOutcome returns the outcome for a given name (case-insensitive).
func ParseOutcome(name string) (Outcome, bool) {
	o := Outcome(strings.ToLower(strings.TrimSpace(name)))
	_, ok := outcomeLabels[o]

	return o, ok
}
