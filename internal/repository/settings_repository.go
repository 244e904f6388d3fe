package repository

import (
	"database/sql"
	"fmt"
)

const loginTokenKey = "login_token"

// SettingsRepository reads and writes key-value settings. The login flow
// (out of scope here) writes the token; the sync pipeline reads it and
// clears it when the backend stops accepting it.
type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Token returns the stored login token, or "" when not logged in.
func (r *SettingsRepository) Token() (string, error) {
	var token string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, loginTokenKey).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return token, nil
}

// SetToken stores the login token.
func (r *SettingsRepository) SetToken(token string) error {
	if _, err := r.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, loginTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// ClearToken removes the stored login token, forcing a fresh login.
func (r *SettingsRepository) ClearToken() error {
	if _, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, loginTokenKey); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
