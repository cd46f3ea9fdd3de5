package models

import "time"

// UpdateStatus is the outcome of a single update check.
type UpdateStatus int

const (
	// UpdateStatusUnavailable means the candidate image could not be fetched.
	UpdateStatusUnavailable UpdateStatus = iota
	// UpdateStatusUpToDate means the installed image already matches the remote.
	UpdateStatusUpToDate
	// UpdateStatusApplied means a differing image was installed and a restart
	// has been triggered.
	UpdateStatusApplied
)

// String returns a human-readable string for the update status.
func (s UpdateStatus) String() string {
	switch s {
	case UpdateStatusUnavailable:
		return "unavailable"
	case UpdateStatusUpToDate:
		return "up-to-date"
	case UpdateStatusApplied:
		return "applied"
	default:
		return "unknown"
	}
}

// UpdateCheckResult describes the outcome of one update check invocation.
// It is produced per check and never persisted.
type UpdateCheckResult struct {
	Status    UpdateStatus `json:"status"`
	Reason    string       `json:"reason,omitempty"` // set when Status is Unavailable
	CheckID   string       `json:"check_id"`
	CheckedAt time.Time    `json:"checked_at"`
}

// Text renders the result as the plain status line served on the update
// routes. It matches the event-log wording for the same outcome so the
// panel and the log tell one story.
func (r UpdateCheckResult) Text() string {
	switch r.Status {
	case UpdateStatusApplied:
		return "OTA update applied. Restarting..."
	case UpdateStatusUpToDate:
		return "Checked for updates: no updates available."
	default:
		if r.Reason != "" {
			return r.Reason
		}
		return "Update check failed."
	}
}
