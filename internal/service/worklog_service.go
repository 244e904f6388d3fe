package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"devtime/agent/internal/client"
	"devtime/agent/internal/models"
	"devtime/agent/internal/summary"

	"go.uber.org/zap"
)

const updateWorklogMutation = `
	mutation UpdateWorklog($worklogId: Int!, $worklogUpdates: user_work_logs_set_input!) {
		update_one_user_work_log: update_user_work_logs_by_pk(pk_columns: {id: $worklogId}, _set: $worklogUpdates) {
			id
		}
	}
`

const insertWorklogsMutation = `
	mutation InsertWorklogs($worklogs: [user_work_logs_insert_input!]!) {
		insert_user_work_logs(objects: $worklogs) {
			returning {
				id
			}
		}
	}
`

// WorklogService reconciles merged summaries against the remote work-log
// store: extend the previously saved record when the first summary
// continues it, insert the rest as a batch. Uniqueness conflicts mean a
// concurrent or replayed run already applied the write and are treated as
// success; any other failure aborts so the source records stay unconsumed.
type WorklogService struct {
	gql    client.Execer
	grace  time.Duration
	logger *zap.Logger
}

func NewWorklogService(gql client.Execer, grace time.Duration, logger *zap.Logger) *WorklogService {
	return &WorklogService{
		gql:    gql,
		grace:  grace,
		logger: logger,
	}
}

// Reconcile upserts merged summaries and returns the new carry-forward
// state. The returned SavedSummary is prev (possibly extended) when only a
// continuation happened, or the last inserted record otherwise. On error
// the returned state reflects only the writes known to have applied.
func (s *WorklogService) Reconcile(ctx context.Context, token string, userID int64, merged []models.SummaryItem, prev *models.SavedSummary) (*models.SavedSummary, error) {
	if len(merged) == 0 {
		return prev, nil
	}

	last := prev

	if prev != nil && summary.Continues(*prev, merged[0], s.grace) {
		var resp struct {
			Updated *struct {
				ID int64 `json:"id"`
			} `json:"update_one_user_work_log"`
		}
		req := client.Request{
			Query: updateWorklogMutation,
			Variables: map[string]interface{}{
				"worklogId": prev.WorklogID,
				"worklogUpdates": map[string]interface{}{
					"endAt": merged[0].EndAt.UTC().Format(time.RFC3339),
				},
			},
		}
		err := s.gql.Do(ctx, token, req, &resp)
		var conflict *client.ConflictError
		if err != nil && !errors.As(err, &conflict) {
			return prev, fmt.Errorf("failed to extend work log %d: %w", prev.WorklogID, err)
		}
		if conflict != nil {
			s.logger.Info("Work log already extended by another run",
				zap.Int64("worklog_id", prev.WorklogID),
			)
		} else {
			s.logger.Info("Extended work log",
				zap.Int64("worklog_id", prev.WorklogID),
				zap.Time("end_at", merged[0].EndAt),
			)
		}

		if len(merged) == 1 {
			extended := *prev
			extended.EndAt = merged[0].EndAt
			last = &extended
		}
		merged = merged[1:]
	}

	if len(merged) == 0 {
		return last, nil
	}

	worklogs := make([]models.WorkLogInsertInput, len(merged))
	for i, item := range merged {
		worklogs[i] = workLogInput(item, userID)
	}

	var resp struct {
		Insert struct {
			Returning []struct {
				ID int64 `json:"id"`
			} `json:"returning"`
		} `json:"insert_user_work_logs"`
	}
	req := client.Request{
		Query: insertWorklogsMutation,
		Variables: map[string]interface{}{
			"worklogs": worklogs,
		},
	}
	err := s.gql.Do(ctx, token, req, &resp)
	if err != nil {
		var conflict *client.ConflictError
		if !errors.As(err, &conflict) {
			return last, fmt.Errorf("failed to insert %d work logs: %w", len(worklogs), err)
		}
		s.logger.Info("Work logs already inserted by another run",
			zap.Int("count", len(worklogs)),
		)
		return last, nil
	}

	if n := len(resp.Insert.Returning); n > 0 {
		saved := models.SavedSummary{
			SummaryItem: merged[len(merged)-1],
			WorklogID:   resp.Insert.Returning[n-1].ID,
		}
		last = &saved
	}

	s.logger.Info("Inserted work logs", zap.Int("count", len(resp.Insert.Returning)))
	return last, nil
}

func workLogInput(item models.SummaryItem, userID int64) models.WorkLogInsertInput {
	input := models.WorkLogInsertInput{
		StartAt:          item.StartAt.UTC().Format(time.RFC3339),
		EndAt:            item.EndAt.UTC().Format(time.RFC3339),
		WorkDescription:  models.WorkLogDefaultDescription,
		WorkType:         string(item.Type),
		UserID:           userID,
		Status:           models.WorkLogStatusConfirmed,
		ApprovalStatus:   models.WorkLogApprovalAuto,
		BillableToClient: false,
		Source:           models.WorkLogSourceAgent,
	}

	id := item.ID
	switch item.Type {
	case models.EntityTask:
		input.TaskID = &id
	case models.EntityTicket:
		input.TicketID = &id
	case models.EntityClientProject:
		input.ClientProjectID = &id
	case models.EntityClient:
		clientID := item.ClientID
		input.ClientID = &clientID
	}
	return input
}
