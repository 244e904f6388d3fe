package service

import (
	"context"
	"fmt"
	"time"

	"devtime/agent/internal/client"
	"devtime/agent/internal/models"
	"devtime/agent/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const upsertUserEventsMutation = `
	mutation UpsertUserEvents($userEvents: [user_events_insert_input!]!) {
		insert_user_events(objects: $userEvents, on_conflict: {
			constraint: user_events_pkey,
			update_columns: [
				appName,
				browserUrl,
				duration,
				pollInterval,
				updatedAt
			]
		}) {
			affected_rows
			returning {
				id
			}
		}
	}
`

// EventService uploads raw allow-listed activity records as remote user
// events, independent of the work-log pipeline. Event ids are assigned
// client side, so re-delivering a batch upserts instead of duplicating.
type EventService struct {
	records      *repository.ActivityRecordRepository
	gql          client.Execer
	pageSize     int
	pollInterval int64 // seconds, the observation job's cadence
	logger       *zap.Logger

	lastUploadedAt time.Time
	now            func() time.Time
}

func NewEventService(records *repository.ActivityRecordRepository, gql client.Execer, pageSize int, pollInterval time.Duration, logger *zap.Logger) *EventService {
	return &EventService{
		records:      records,
		gql:          gql,
		pageSize:     pageSize,
		pollInterval: int64(pollInterval / time.Second),
		logger:       logger,
		// Sweep up anything the previous process left behind.
		lastUploadedAt: time.Now().Add(-24 * time.Hour),
		now:            time.Now,
	}
}

// Run uploads one page of unlinked or recently updated records and links
// the remote event ids back onto the local rows. The watermark advances
// only after the remote write and the linking both succeeded.
func (s *EventService) Run(ctx context.Context, token string, userID int64) error {
	items, err := s.records.FetchUploadable(s.pageSize, s.lastUploadedAt)
	if err != nil {
		return fmt.Errorf("failed to fetch uploadable records: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	s.logger.Info("User events to upsert", zap.Int("count", len(items)))

	now := s.now()
	userEvents := make([]models.UserEventInsertInput, len(items))
	eventIDs := make([]string, len(items))
	for i, item := range items {
		id := uuid.NewString()
		if item.UserEventID != nil {
			id = *item.UserEventID
		}
		eventIDs[i] = id

		eventType := models.UserEventAppUse
		if item.URL != nil && *item.URL != "" {
			eventType = models.UserEventBrowseURL
		}

		userEvents[i] = models.UserEventInsertInput{
			ID:           id,
			UserID:       userID,
			UpdatedAt:    now.UTC().Format(time.RFC3339),
			AppName:      item.App,
			Title:        item.Title,
			BrowserURL:   item.URL,
			OccurredAt:   item.BeginAt.UTC().Format(time.RFC3339),
			Duration:     item.DurationSeconds(),
			PollInterval: s.pollInterval,
			EventType:    eventType,
		}
	}

	var resp struct {
		Insert struct {
			AffectedRows int `json:"affected_rows"`
			Returning    []struct {
				ID string `json:"id"`
			} `json:"returning"`
		} `json:"insert_user_events"`
	}
	req := client.Request{
		Query: upsertUserEventsMutation,
		Variables: map[string]interface{}{
			"userEvents": userEvents,
		},
	}
	if err := s.gql.Do(ctx, token, req, &resp); err != nil {
		return fmt.Errorf("failed to upsert %d user events: %w", len(userEvents), err)
	}

	for i, item := range items {
		if item.UserEventID != nil {
			continue
		}
		if err := s.records.LinkUserEvent(item.ID, eventIDs[i], now); err != nil {
			return fmt.Errorf("failed to link user event %s: %w", eventIDs[i], err)
		}
	}

	s.lastUploadedAt = s.now()

	s.logger.Info("Uploaded user events",
		zap.Int("count", len(items)),
		zap.Int("affected_rows", resp.Insert.AffectedRows),
	)
	return nil
}
