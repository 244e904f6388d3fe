package repository

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"devtime/agent/internal/models"
)

// DiagnosticLogRepository is the local append-only diagnostic log. Identical
// consecutive {level, message, payload} entries collapse into one row whose
// updated_at advances, so a flapping failure does not flood the table.
type DiagnosticLogRepository struct {
	db   *sql.DB
	mu   sync.Mutex
	last *models.DiagnosticLog
}

func NewDiagnosticLogRepository(db *sql.DB) *DiagnosticLogRepository {
	return &DiagnosticLogRepository{db: db}
}

// CreateOrUpdate appends a diagnostic entry, or bumps the previous row's
// updated_at when the entry repeats it exactly.
func (r *DiagnosticLogRepository) CreateOrUpdate(level, message, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if r.last != nil &&
		r.last.Level == level &&
		r.last.Message == message &&
		r.last.Payload == payload {
		if _, err := r.db.Exec(`UPDATE diagnostics SET updated_at = ? WHERE id = ?`, now, r.last.ID); err != nil {
			return fmt.Errorf("failed to update diagnostic: %w", err)
		}
		r.last.UpdatedAt = now
		return nil
	}

	result, err := r.db.Exec(`
		INSERT INTO diagnostics (level, message, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, level, message, payload, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert diagnostic: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted id: %w", err)
	}

	r.last = &models.DiagnosticLog{
		ID:        id,
		Level:     level,
		Message:   message,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// List returns diagnostics touched within [from, to], newest first.
func (r *DiagnosticLogRepository) List(from, to time.Time) ([]models.DiagnosticLog, error) {
	if to.IsZero() {
		to = time.Now()
	}

	rows, err := r.db.Query(`
		SELECT id, level, message, payload, created_at, updated_at
		FROM diagnostics
		WHERE updated_at >= ? AND updated_at <= ?
		ORDER BY updated_at DESC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer rows.Close()

	var logs []models.DiagnosticLog
	for rows.Next() {
		var entry models.DiagnosticLog
		var payload sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Level, &entry.Message, &payload, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		entry.Payload = payload.String
		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return logs, nil
}
