package processing

import "time"

// Item statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusRetrying   = "retrying"
)

const (
	// PriorityHigh is processed first.
	PriorityHigh = 1
	// PriorityLow is processed last.
	PriorityLow        = 5
	defaultPriority    = 3
	defaultMaxAttempts = 3

	// DefaultLeaseTimeout bounds how long an item may stay in processing
	// before DrainPending assumes its worker died. It matches the default
	// SQS visibility timeout.
	DefaultLeaseTimeout = 20 * time.Minute
	staleMessage        = "processing lease expired"
)

// Item tracks background scoring of one application.
type Item struct {
	ID                string     `json:"id"`
	ApplicationID     string     `json:"applicationId"`
	Status            string     `json:"status"`
	Priority          int        `json:"priority"`
	Attempts          int        `json:"attempts"`
	MaxAttempts       int        `json:"maxAttempts"`
	ErrorMessage      string     `json:"errorMessage,omitempty"`
	ProcessingSeconds *float64   `json:"processingSeconds,omitempty"`
	StartedAt         *time.Time `json:"startedAt,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// Done reports whether the item needs no further processing.
func (i Item) Done() bool {
	return i.Status == StatusCompleted || i.Status == StatusFailed
}
