package summary

import (
	"testing"

	"devtime/agent/internal/models"

	"github.com/stretchr/testify/assert"
)

func testCatalog() models.EntityCatalog {
	ticketID := int64(7)
	return models.EntityCatalog{
		Tasks: []models.CatalogTask{
			{ID: 42, TicketCode: "TCK-1", TaskCode: "TSK-2", TicketID: &ticketID},
		},
		Tickets: []models.CatalogTicket{
			{ID: 7, Code: "TCK-1"},
			{ID: 9, Code: "TCK-9"},
		},
		Projects: []models.CatalogProject{
			{ID: 3, Name: "billing-portal"},
		},
		Clients: []models.CatalogClient{
			{ID: "acme", Name: "Acme Corp"},
		},
	}
}

func TestClassify_PriorityOrder(t *testing.T) {
	catalog := testCatalog()

	tests := []struct {
		name     string
		keywords []string
		want     models.Entity
	}{
		{
			name:     "task wins when both codes present",
			keywords: []string{"VSCode", "TCK-1 TSK-2 main.go"},
			want:     models.Entity{Type: models.EntityTask, ID: 42, Code: "TSK-2"},
		},
		{
			name:     "ticket resolved through task row",
			keywords: []string{"VSCode", "TCK-1 main.go"},
			want:     models.Entity{Type: models.EntityTicket, ID: 7, Code: "TCK-1"},
		},
		{
			name:     "plain ticket match",
			keywords: []string{"Chrome", "TCK-9 review"},
			want:     models.Entity{Type: models.EntityTicket, ID: 9, Code: "TCK-9"},
		},
		{
			name:     "project match",
			keywords: []string{"Terminal", "billing-portal deploy"},
			want:     models.Entity{Type: models.EntityClientProject, ID: 3, Code: "billing-portal"},
		},
		{
			name:     "client by name",
			keywords: []string{"Chrome", "Acme Corp dashboard"},
			want:     models.Entity{Type: models.EntityClient, ClientID: "acme", Code: "Acme Corp"},
		},
		{
			name:     "client by id",
			keywords: []string{"Chrome", "acme invoices"},
			want:     models.Entity{Type: models.EntityClient, ClientID: "acme", Code: "Acme Corp"},
		},
		{
			name:     "learning keyword",
			keywords: []string{"Chrome", "Go channels tutorial"},
			want:     models.Entity{Type: models.EntityLearning},
		},
		{
			name:     "other fallback",
			keywords: []string{"Spotify", "Daily Mix"},
			want:     models.Entity{Type: models.EntityOther},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(catalog, tt.keywords))
		})
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	got := Classify(testCatalog(), []string{"vscode", "tck-9 fix"})
	assert.Equal(t, models.EntityTicket, got.Type)
	assert.Equal(t, int64(9), got.ID)
}

func TestClassify_BranchMarkerStripped(t *testing.T) {
	catalog := models.EntityCatalog{
		Clients: []models.CatalogClient{{ID: "branch", Name: "Branch"}},
	}

	// Editor chrome alone must not resolve to the similarly named client.
	got := Classify(catalog, []string{"VSCode", "[Branch: main] untitled"})
	assert.Equal(t, models.EntityOther, got.Type)

	// A real mention still matches.
	got = Classify(catalog, []string{"Chrome", "Branch settlement report"})
	assert.Equal(t, models.EntityClient, got.Type)
}

func TestClassify_EmptyCodesNeverMatch(t *testing.T) {
	catalog := models.EntityCatalog{
		Tickets: []models.CatalogTicket{{ID: 1, Code: ""}},
		Clients: []models.CatalogClient{{ID: "", Name: ""}},
	}

	got := Classify(catalog, []string{"anything at all"})
	assert.Equal(t, models.EntityOther, got.Type)
}

func TestClassify_EmptyCatalog(t *testing.T) {
	got := Classify(models.EntityCatalog{}, []string{"VSCode", "TCK-1 TSK-2"})
	assert.Equal(t, models.EntityOther, got.Type)
}
