package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
)

// Project groups transactions under a free-form tag for reporting.
type Project struct {
	ID          int64
	Name        string
	Description sql.NullString
	CreatedAt   time.Time
}

// ProjectStats is a project with aggregate transaction totals.
// Aggregates are reporting values; they are computed with SQL float
// sums, not exact decimals.
type ProjectStats struct {
	Project
	TotalSpent       float64
	TotalEarned      float64
	TransactionCount int
}

// CategoryTotal is one category's spending inside a project.
type CategoryTotal struct {
	Category string
	Total    float64
	Count    int
}

// ProjectStore manages projects.
type ProjectStore struct {
	conn *db.Connection
}

// NewProjectStore creates a new ProjectStore instance.
func NewProjectStore(conn *db.Connection) *ProjectStore {
	return &ProjectStore{conn: conn}
}

// Create adds a project.
func (s *ProjectStore) Create(name string, description sql.NullString) (int64, error) {
	result, err := s.conn.Exec(
		`INSERT INTO projects (name, description) VALUES (?, ?)`, name, description,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get project id: %w", err)
	}
	return id, nil
}

// Update changes a project's name and description. Returns false if the
// project does not exist.
func (s *ProjectStore) Update(projectID int64, name string, description sql.NullString) (bool, error) {
	result, err := s.conn.Exec(
		`UPDATE projects SET name = ?, description = ? WHERE id = ?`,
		name, description, projectID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update project: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Delete removes a project. Transactions keep their project tag; the tag
// simply no longer resolves to a project row.
func (s *ProjectStore) Delete(projectID int64) (bool, error) {
	result, err := s.conn.Exec(`DELETE FROM projects WHERE id = ?`, projectID)
	if err != nil {
		return false, fmt.Errorf("failed to delete project: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// GetAll returns all projects ordered by name.
func (s *ProjectStore) GetAll() ([]Project, error) {
	rows, err := s.conn.Query(
		`SELECT id, name, description, created_at FROM projects ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// GetAllWithStats returns all projects with their spend/earn totals.
func (s *ProjectStore) GetAllWithStats() ([]ProjectStats, error) {
	query := `
		SELECT p.id, p.name, p.description, p.created_at,
		       COALESCE(SUM(CASE WHEN CAST(t.amount AS REAL) < 0 THEN ABS(CAST(t.amount AS REAL)) ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN CAST(t.amount AS REAL) > 0 THEN CAST(t.amount AS REAL) ELSE 0 END), 0),
		       COUNT(t.id)
		FROM projects p
		LEFT JOIN transactions t ON p.name = t.project
		GROUP BY p.id, p.name, p.description, p.created_at
		ORDER BY p.name
	`

	rows, err := s.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get project stats: %w", err)
	}
	defer rows.Close()

	var stats []ProjectStats
	for rows.Next() {
		var ps ProjectStats
		if err := rows.Scan(
			&ps.ID, &ps.Name, &ps.Description, &ps.CreatedAt,
			&ps.TotalSpent, &ps.TotalEarned, &ps.TransactionCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project stats: %w", err)
		}
		stats = append(stats, ps)
	}

	return stats, rows.Err()
}

// CategoryBreakdown returns spending by category within a project.
func (s *ProjectStore) CategoryBreakdown(projectID int64) ([]CategoryTotal, error) {
	project, err := s.GetByID(projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}

	query := `
		SELECT category, SUM(ABS(CAST(amount AS REAL))), COUNT(*)
		FROM transactions
		WHERE project = ? AND CAST(amount AS REAL) < 0 AND category IS NOT NULL
		GROUP BY category
		ORDER BY SUM(ABS(CAST(amount AS REAL))) DESC
	`

	rows, err := s.conn.Query(query, project.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get category breakdown: %w", err)
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, ct)
	}

	return totals, rows.Err()
}

// GetByID retrieves a project. Returns nil if not found.
func (s *ProjectStore) GetByID(projectID int64) (*Project, error) {
	var p Project
	err := s.conn.QueryRow(
		`SELECT id, name, description, created_at FROM projects WHERE id = ?`, projectID,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}
