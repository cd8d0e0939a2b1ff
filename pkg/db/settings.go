package db

import (
	"database/sql"
	"fmt"
)

// Settings manages key-value application settings.
type Settings struct {
	conn *Connection
}

// NewSettings creates a new Settings instance.
func NewSettings(conn *Connection) *Settings {
	return &Settings{conn: conn}
}

// Get retrieves a setting value. Returns an empty string if the key is not set.
func (s *Settings) Get(key string) (string, error) {
	query := `SELECT value FROM settings WHERE key = ?`

	var value string
	err := s.conn.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}

	return value, nil
}

// Set stores a setting value, overwriting any previous value.
func (s *Settings) Set(key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := s.conn.Exec(query, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}

	return nil
}

// All returns every stored setting as a map.
func (s *Settings) All() (map[string]string, error) {
	rows, err := s.conn.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[key] = value
	}

	return settings, rows.Err()
}
