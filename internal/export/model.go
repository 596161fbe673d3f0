package export

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusExpired    Status = "expired"
)

// Terminal reports whether no further transition is possible except expiry of a completed job.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Job is one PDF export of a document at a fixed version.
type Job struct {
	ID              string
	UserID          string
	DocumentID      string
	DocumentVersion int
	TemplateID      string
	Status          Status
	Attempts        int
	StorageKey      string
	SizeBytes       int64
	PageCount       int
	Error           string
	ExpiresAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// Result is what a successful render stores on the job.
type Result struct {
	StorageKey string
	SizeBytes  int64
	PageCount  int
	ExpiresAt  time.Time
}

// Link is a time-limited download URL.
type Link struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
