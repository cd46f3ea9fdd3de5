package constants

import "time"

const (
	// DefaultMaxLogSize is the event log size at which rotation kicks in.
	DefaultMaxLogSize = 64 * 1024 // 64KB

	// DefaultFetchTimeout bounds a single candidate-image fetch.
	DefaultFetchTimeout = 30 * time.Second

	// AssociationPollInterval is how often connection status is polled while
	// an association attempt is in flight.
	AssociationPollInterval = 1 * time.Second

	// AssociationPollBudget is the number of polls before an association
	// attempt is declared failed.
	AssociationPollBudget = 30

	// MonitorInterval is the steady-state connectivity polling interval.
	MonitorInterval = 10 * time.Second

	// DefaultHTTPPort is the control panel listen port.
	DefaultHTTPPort = 80
)
