package models

import "time"

// ActivityRecord is one raw active-window sample written by the observation
// job. Immutable once written except for the summarization flag and the
// user-event linkage, both of which are set by the sync pipeline.
type ActivityRecord struct {
	ID          int64     `json:"id"`
	App         string    `json:"app"`
	Title       string    `json:"title"`
	URL         *string   `json:"url,omitempty"`
	BeginAt     time.Time `json:"begin_at"`
	EndAt       time.Time `json:"end_at"`
	Summarized  bool      `json:"summarized"`
	UserEventID *string   `json:"user_event_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DurationSeconds is the record's own span in whole seconds.
func (r ActivityRecord) DurationSeconds() int64 {
	return int64(r.EndAt.Sub(r.BeginAt) / time.Second)
}

// AllowRule is one row of the upload allow list. An empty column matches
// everything; a non-empty column matches records containing it.
type AllowRule struct {
	ID    int64  `json:"id"`
	App   string `json:"app"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// DiagnosticLog is one row of the local append-only diagnostic log.
// Identical consecutive entries are collapsed by bumping UpdatedAt.
type DiagnosticLog struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Payload   string    `json:"payload,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Diagnostic log levels.
const (
	DiagInfo    = "INFO"
	DiagWarning = "WARNING"
	DiagError   = "ERROR"
)
