package models

// EntityType is the classification bucket an activity chunk resolves to.
// The first four map to concrete backend entities; learning and other are
// synthetic fallbacks with no identity.
type EntityType string

const (
	EntityTask          EntityType = "task"
	EntityTicket        EntityType = "ticket"
	EntityClientProject EntityType = "client_project"
	EntityClient        EntityType = "client"
	EntityLearning      EntityType = "learning"
	EntityOther         EntityType = "other"
)

// Priority orders entity types for dominant-entity selection; lower wins.
func (t EntityType) Priority() int {
	switch t {
	case EntityTask:
		return 1
	case EntityTicket:
		return 2
	case EntityClientProject:
		return 3
	case EntityClient:
		return 4
	case EntityLearning:
		return 5
	default:
		return 6
	}
}

// HasIdentity reports whether the type carries a concrete backend id,
// which is what makes two summaries mergeable.
func (t EntityType) HasIdentity() bool {
	switch t {
	case EntityTask, EntityTicket, EntityClientProject, EntityClient:
		return true
	}
	return false
}

// UploadEligible reports whether summaries of this type may produce work
// logs. Current policy uploads task and ticket work only.
func (t EntityType) UploadEligible() bool {
	return t == EntityTask || t == EntityTicket
}

// Entity is a classification result. ID is set for task/ticket/project
// matches, ClientID for client matches; both are zero for learning/other.
type Entity struct {
	Type     EntityType `json:"type"`
	ID       int64      `json:"id,omitempty"`
	ClientID string     `json:"client_id,omitempty"`
	Code     string     `json:"code,omitempty"`
}

// SameIdentity reports whether two entities refer to the same backend row.
func (e Entity) SameIdentity(o Entity) bool {
	return e.Type == o.Type && e.ID == o.ID && e.ClientID == o.ClientID
}

// CatalogTask is an active task visible to the user. TicketID is set when
// the user can also see the parent ticket through the task.
type CatalogTask struct {
	ID         int64  `json:"id"`
	TicketCode string `json:"ticketCode"`
	TaskCode   string `json:"taskCode"`
	TicketID   *int64 `json:"ticketId,omitempty"`
}

type CatalogTicket struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
}

type CatalogProject struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CatalogClient struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EntityCatalog is a wholesale snapshot of the classifiable entities,
// refreshed periodically and never patched incrementally.
type EntityCatalog struct {
	Tasks    []CatalogTask    `json:"tasks"`
	Tickets  []CatalogTicket  `json:"tickets"`
	Projects []CatalogProject `json:"projects"`
	Clients  []CatalogClient  `json:"clients"`
}
