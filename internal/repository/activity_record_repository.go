package repository

import (
	"database/sql"
	"fmt"
	"time"

	"devtime/agent/internal/models"
)

type ActivityRecordRepository struct {
	db *sql.DB
}

func NewActivityRecordRepository(db *sql.DB) *ActivityRecordRepository {
	return &ActivityRecordRepository{db: db}
}

// Insert stores one raw activity sample. The observation job is the normal
// writer; tests use it too.
func (r *ActivityRecordRepository) Insert(record *models.ActivityRecord) (int64, error) {
	now := time.Now()
	result, err := r.db.Exec(`
		INSERT INTO activity_records (app, title, url, begin_at, end_at, summarized, user_event_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.App, record.Title, record.URL, record.BeginAt, record.EndAt, record.Summarized, record.UserEventID, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert activity record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}
	return id, nil
}

// FetchUnsummarized returns records still awaiting work-log summarization,
// plus records touched since the given watermark, oldest first.
func (r *ActivityRecordRepository) FetchUnsummarized(limit int, updatedSince time.Time) ([]models.ActivityRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, app, title, url, begin_at, end_at, summarized, user_event_id, created_at, updated_at
		FROM activity_records
		WHERE summarized = 0 OR updated_at >= ?
		ORDER BY begin_at ASC
		LIMIT ?
	`, updatedSince, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsummarized records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// FetchUploadable returns allow-listed records that have no linked user
// event yet, or were touched since the given watermark. A record passes the
// allow list when some row matches app, title and url together, with empty
// rule columns matching anything.
func (r *ActivityRecordRepository) FetchUploadable(limit int, updatedSince time.Time) ([]models.ActivityRecord, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT
			activity_records.id, activity_records.app, activity_records.title, activity_records.url,
			activity_records.begin_at, activity_records.end_at, activity_records.summarized,
			activity_records.user_event_id, activity_records.created_at, activity_records.updated_at
		FROM activity_records
		LEFT JOIN allow_list ON (
			(allow_list.app = '' OR activity_records.app LIKE '%' || allow_list.app || '%')
			AND (allow_list.title = '' OR activity_records.title LIKE '%' || allow_list.title || '%')
			AND (allow_list.url = '' OR IFNULL(activity_records.url, '') LIKE '%' || allow_list.url || '%')
		)
		WHERE allow_list.id IS NOT NULL
			AND (activity_records.user_event_id IS NULL OR activity_records.updated_at >= ?)
		ORDER BY activity_records.begin_at ASC
		LIMIT ?
	`, updatedSince, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploadable records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// MarkSummarized flags a batch of records as consumed by the work-log
// pipeline and bumps their updated_at.
func (r *ActivityRecordRepository) MarkSummarized(ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query := "UPDATE activity_records SET summarized = 1, updated_at = ? WHERE id IN ("
	args := make([]interface{}, len(ids)+1)
	args[0] = at
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		args[i+1] = id
	}
	query += ")"

	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to mark records summarized: %w", err)
	}
	return nil
}

// LinkUserEvent stores the remote user-event id on a local record.
func (r *ActivityRecordRepository) LinkUserEvent(id int64, userEventID string, at time.Time) error {
	if _, err := r.db.Exec(`
		UPDATE activity_records SET user_event_id = ?, updated_at = ? WHERE id = ?
	`, userEventID, at, id); err != nil {
		return fmt.Errorf("failed to link user event: %w", err)
	}
	return nil
}

// InsertAllowRule adds an allow-list row. Managed by the (out-of-scope)
// settings UI; exposed here for seeding and tests.
func (r *ActivityRecordRepository) InsertAllowRule(rule models.AllowRule) error {
	if _, err := r.db.Exec(`
		INSERT INTO allow_list (app, title, url) VALUES (?, ?, ?)
	`, rule.App, rule.Title, rule.URL); err != nil {
		return fmt.Errorf("failed to insert allow rule: %w", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]models.ActivityRecord, error) {
	var records []models.ActivityRecord
	for rows.Next() {
		var record models.ActivityRecord
		if err := rows.Scan(
			&record.ID,
			&record.App,
			&record.Title,
			&record.URL,
			&record.BeginAt,
			&record.EndAt,
			&record.Summarized,
			&record.UserEventID,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}
