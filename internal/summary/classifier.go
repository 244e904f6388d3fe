package summary

import (
	"strings"

	"devtime/agent/internal/models"
)

// branchMarker is emitted by branch-in-window-title editor extensions.
// It is stripped from the search text so a client literally named after the
// marker token is not matched against editor chrome.
const branchMarker = "[Branch:"

// learningKeywords mark documentation/tutorial style activity when nothing
// in the catalog matches.
var learningKeywords = []string{
	"tutorial", "step", "guide", "manual", "doc", "example", "intro", "get started",
}

// Classify maps a keyword surface (typically app name and window title) to
// the single best entity, evaluating tiers in strict priority order with
// first match winning:
//
//	task > ticket-via-task > ticket > project > client > learning > other
//
// Matching is case-insensitive containment over the joined keywords.
// The function is pure and total: it always returns exactly one entity.
func Classify(catalog models.EntityCatalog, keywords []string) models.Entity {
	text := strings.ToLower(strings.ReplaceAll(strings.Join(keywords, " "), branchMarker, ""))
	contains := func(needle string) bool {
		return needle != "" && strings.Contains(text, strings.ToLower(needle))
	}

	// Tasks and tickets are checked separately because a user may see more
	// tasks than tickets; a task-level match can still resolve the ticket.
	for _, task := range catalog.Tasks {
		if contains(task.TicketCode) && contains(task.TaskCode) {
			return models.Entity{Type: models.EntityTask, ID: task.ID, Code: task.TaskCode}
		}
		if contains(task.TicketCode) && task.TicketID != nil {
			return models.Entity{Type: models.EntityTicket, ID: *task.TicketID, Code: task.TicketCode}
		}
	}

	for _, ticket := range catalog.Tickets {
		if contains(ticket.Code) {
			return models.Entity{Type: models.EntityTicket, ID: ticket.ID, Code: ticket.Code}
		}
	}

	for _, project := range catalog.Projects {
		if contains(project.Name) {
			return models.Entity{Type: models.EntityClientProject, ID: project.ID, Code: project.Name}
		}
	}

	for _, client := range catalog.Clients {
		if contains(client.Name) || contains(client.ID) {
			return models.Entity{Type: models.EntityClient, ClientID: client.ID, Code: client.Name}
		}
	}

	for _, keyword := range learningKeywords {
		if contains(keyword) {
			return models.Entity{Type: models.EntityLearning}
		}
	}

	return models.Entity{Type: models.EntityOther}
}
