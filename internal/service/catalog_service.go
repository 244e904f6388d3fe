package service

import (
	"context"
	"fmt"
	"time"

	"devtime/agent/internal/client"
	"devtime/agent/internal/models"

	"go.uber.org/zap"
)

const fetchPossibleEntitiesQuery = `
	query FetchPossibleEntities($after: timestamptz!) {
		tasks(where: {
			status: {_nin: [finished, cancelled]}
			createdAt: {_gte: $after}
		}) {
			id
			ticketCode
			taskCode
			ticket {
				id
			}
		}

		tickets(where: {
			status: {_nin: [finished, cancelled]}
			createdAt: {_gte: $after}
		}) {
			id
			code
		}
	}
`

// CatalogService fetches and caches the classifiable-entity snapshot. The
// cache is refreshed wholesale once it is older than the refresh interval,
// never patched incrementally. Used from the sync loop only, so the cache
// fields need no locking.
type CatalogService struct {
	gql             client.Execer
	refreshInterval time.Duration
	horizon         time.Duration
	logger          *zap.Logger

	cached    *models.EntityCatalog
	fetchedAt time.Time
	now       func() time.Time
}

func NewCatalogService(gql client.Execer, refreshInterval, horizon time.Duration, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		gql:             gql,
		refreshInterval: refreshInterval,
		horizon:         horizon,
		logger:          logger,
		now:             time.Now,
	}
}

// Get returns the cached catalog, refetching when stale. Only tasks and
// tickets are requested; the projects and clients tiers stay empty until
// the backend exposes them to agents.
func (s *CatalogService) Get(ctx context.Context, token string) (*models.EntityCatalog, error) {
	if s.cached != nil && s.now().Sub(s.fetchedAt) <= s.refreshInterval {
		return s.cached, nil
	}

	var resp struct {
		Tasks []struct {
			ID         int64  `json:"id"`
			TicketCode string `json:"ticketCode"`
			TaskCode   string `json:"taskCode"`
			Ticket     *struct {
				ID int64 `json:"id"`
			} `json:"ticket"`
		} `json:"tasks"`
		Tickets []models.CatalogTicket `json:"tickets"`
	}

	req := client.Request{
		Query: fetchPossibleEntitiesQuery,
		Variables: map[string]interface{}{
			"after": s.now().Add(-s.horizon).UTC().Format(time.RFC3339),
		},
	}
	if err := s.gql.Do(ctx, token, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch entity catalog: %w", err)
	}

	catalog := &models.EntityCatalog{
		Tickets: resp.Tickets,
	}
	for _, row := range resp.Tasks {
		task := models.CatalogTask{
			ID:         row.ID,
			TicketCode: row.TicketCode,
			TaskCode:   row.TaskCode,
		}
		if row.Ticket != nil {
			id := row.Ticket.ID
			task.TicketID = &id
		}
		catalog.Tasks = append(catalog.Tasks, task)
	}

	s.cached = catalog
	s.fetchedAt = s.now()

	s.logger.Info("Entity catalog refreshed",
		zap.Int("tasks", len(catalog.Tasks)),
		zap.Int("tickets", len(catalog.Tickets)),
	)
	return catalog, nil
}
