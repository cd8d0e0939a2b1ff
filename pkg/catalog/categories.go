// Package catalog manages the lookup entities that annotate
// transactions: categories, payees and projects.
package catalog

import (
	"fmt"

	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
)

// CategoryStore manages category names.
type CategoryStore struct {
	conn *db.Connection
}

// NewCategoryStore creates a new CategoryStore instance.
func NewCategoryStore(conn *db.Connection) *CategoryStore {
	return &CategoryStore{conn: conn}
}

// GetAll returns all category names ordered alphabetically.
func (s *CategoryStore) GetAll() ([]string, error) {
	rows, err := s.conn.Query(`SELECT name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// Create adds a category. Returns false if the name already exists;
// a duplicate is an expected condition, not an error.
func (s *CategoryStore) Create(name string) (bool, error) {
	_, err := s.conn.Exec(`INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		if db.IsUniqueConstraint(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create category: %w", err)
	}
	return true, nil
}

// BulkCreate adds multiple categories, silently ignoring duplicates.
func (s *CategoryStore) BulkCreate(names []string) error {
	for _, name := range names {
		if _, err := s.conn.Exec(`INSERT OR IGNORE INTO categories (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("failed to create category %q: %w", name, err)
		}
	}
	return nil
}
