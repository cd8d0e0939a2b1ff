package db

import "fmt"

// columnMigration adds a single column to an existing table. Schema
// evolution is strictly additive: new columns default to null/zero so
// rows written by older versions remain valid.
type columnMigration struct {
	table  string
	column string
	ddl    string
}

var columnMigrations = []columnMigration{
	{"transactions", "project",
		`ALTER TABLE transactions ADD COLUMN project TEXT`},
	{"transactions", "transfer_group_id",
		`ALTER TABLE transactions ADD COLUMN transfer_group_id TEXT`},
	{"recurring_transactions", "project",
		`ALTER TABLE recurring_transactions ADD COLUMN project TEXT`},
	{"recurring_transactions", "increment_amount",
		`ALTER TABLE recurring_transactions ADD COLUMN increment_amount TEXT NOT NULL DEFAULT '0'`},
}

// migrateColumns applies any column migrations not yet present.
// CREATE TABLE IF NOT EXISTS skips tables that already exist, so a
// database created before a column was introduced only picks it up here.
func migrateColumns(conn *Connection) error {
	for _, m := range columnMigrations {
		exists, err := columnExists(conn, m.table, m.column)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := conn.Exec(m.ddl); err != nil {
			return fmt.Errorf("failed to add column %s.%s: %w", m.table, m.column, err)
		}
	}
	return nil
}

// columnExists checks table metadata for a column.
func columnExists(conn *Connection, table, column string) (bool, error) {
	rows, err := conn.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, fmt.Errorf("failed to read table info for %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			dfltValue  interface{}
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &primaryKey); err != nil {
			return false, fmt.Errorf("failed to scan table info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
