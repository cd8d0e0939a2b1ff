// Package backup creates and rotates consistent snapshots of the
// SQLite database file.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
)

// Info describes one backup file.
type Info struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Manager creates and rotates database backups. Backups are taken with
// VACUUM INTO, which writes a consistent snapshot even while the
// database is open.
type Manager struct {
	conn       *db.Connection
	dir        string
	maxBackups int
}

// NewManager creates a new backup Manager.
func NewManager(conn *db.Connection, dir string, maxBackups int) *Manager {
	return &Manager{
		conn:       conn,
		dir:        dir,
		maxBackups: maxBackups,
	}
}

// Create writes a timestamped backup and prunes old ones beyond the
// configured limit. An optional custom name prefixes the file name.
func (m *Manager) Create(customName string) (string, error) {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	prefix := "moneytrack_backup"
	if customName != "" {
		prefix = customName
	}
	timestamp := time.Now().Format("20060102_150405")
	backupPath := filepath.Join(m.dir, fmt.Sprintf("%s_%s.db", prefix, timestamp))

	if _, err := m.conn.Exec(`VACUUM INTO ?`, backupPath); err != nil {
		// Remove a partially written file; a half backup is worse than none.
		os.Remove(backupPath)
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	if err := m.cleanup(); err != nil {
		return backupPath, err
	}
	return backupPath, nil
}

// List returns existing backups, newest first.
func (m *Manager) List() ([]Info, error) {
	matches, err := filepath.Glob(filepath.Join(m.dir, "*.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	var backups []Info
	for _, path := range matches {
		stat, err := os.Stat(path)
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:    path,
			Size:    stat.Size(),
			ModTime: stat.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModTime.After(backups[j].ModTime)
	})
	return backups, nil
}

// cleanup removes old backups beyond the configured limit.
func (m *Manager) cleanup() error {
	if m.maxBackups <= 0 {
		return nil
	}

	backups, err := m.List()
	if err != nil {
		return err
	}

	for _, old := range backups[min(m.maxBackups, len(backups)):] {
		if err := os.Remove(old.Path); err != nil {
			return fmt.Errorf("failed to remove old backup: %w", err)
		}
	}
	return nil
}

// Restore copies a backup file over the target database path. The
// caller must have closed every connection to the target database and
// must reopen it afterwards.
func Restore(backupPath, dbPath string) error {
	src, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	return nil
}
