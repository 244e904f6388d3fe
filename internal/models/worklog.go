package models

// Work log status values accepted by the backend.
const (
	WorkLogStatusConfirmed    = "confirmed"
	WorkLogApprovalAuto       = "auto"
	WorkLogSourceAgent        = "automatic from DevTime desktop agent"
	WorkLogDefaultDescription = "This log was added automatically using data from the DevTime desktop agent."
)

// WorkLogInsertInput mirrors the backend's user_work_logs insert columns.
// Exactly one of TaskID/TicketID/ClientProjectID/ClientID is set, matching
// the summary's entity type.
type WorkLogInsertInput struct {
	StartAt          string  `json:"startAt"`
	EndAt            string  `json:"endAt"`
	WorkDescription  string  `json:"workDescription"`
	TaskID           *int64  `json:"taskId,omitempty"`
	TicketID         *int64  `json:"ticketId,omitempty"`
	ClientProjectID  *int64  `json:"clientProjectId,omitempty"`
	ClientID         *string `json:"clientId,omitempty"`
	TechnologyID     *int64  `json:"technologyId"`
	WorkType         string  `json:"workType"`
	UserID           int64   `json:"userId"`
	Status           string  `json:"status"`
	ApprovalStatus   string  `json:"approvalStatus"`
	BillableToClient bool    `json:"billableToClient"`
	Source           string  `json:"source"`
}

// User event types accepted by the backend.
const (
	UserEventAppUse    = "app_use"
	UserEventBrowseURL = "browse_url"
)

// UserEventInsertInput mirrors the backend's user_events insert columns.
// IDs are assigned client side so re-delivery upserts instead of duplicating.
type UserEventInsertInput struct {
	ID           string  `json:"id"`
	UserID       int64   `json:"userId"`
	UpdatedAt    string  `json:"updatedAt"`
	AppName      string  `json:"appName"`
	Title        string  `json:"title"`
	BrowserURL   *string `json:"browserUrl,omitempty"`
	OccurredAt   string  `json:"occurredAt"`
	Duration     int64   `json:"duration"`
	PollInterval int64   `json:"pollInterval"`
	EventType    string  `json:"eventType"`
}
