package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *Connection {
	t.Helper()

	conn, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestOpenInitializesSchema(t *testing.T) {
	conn := openTestDB(t)

	tables := []string{
		"accounts", "transactions", "recurring_transactions",
		"categories", "payees", "projects", "settings",
	}
	for _, table := range tables {
		var name string
		err := conn.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not created: %v", table, err)
		}
	}

	var indexName string
	err := conn.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_transactions_occurrence'`,
	).Scan(&indexName)
	if err != nil {
		t.Errorf("occurrence index not created: %v", err)
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	conn := openTestDB(t)

	boom := errors.New("boom")
	err := conn.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO accounts (name, type, balance) VALUES ('Checking', 'checking', '0')`,
		); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction() error = %v, expected %v", err, boom)
	}

	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		t.Fatalf("count accounts: %v", err)
	}
	if count != 0 {
		t.Errorf("accounts after rollback = %d, expected 0", count)
	}
}

func TestTransactionCommits(t *testing.T) {
	conn := openTestDB(t)

	err := conn.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO accounts (name, type, balance) VALUES ('Checking', 'checking', '0')`,
		)
		return err
	})
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}

	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		t.Fatalf("count accounts: %v", err)
	}
	if count != 1 {
		t.Errorf("accounts after commit = %d, expected 1", count)
	}
}

func TestIsUniqueConstraint(t *testing.T) {
	conn := openTestDB(t)

	insert := `INSERT INTO accounts (name, type, balance) VALUES ('Checking', 'checking', '0')`
	if _, err := conn.Exec(insert); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	_, err := conn.Exec(insert)
	if err == nil {
		t.Fatal("duplicate account name accepted")
	}
	if !IsUniqueConstraint(err) {
		t.Errorf("IsUniqueConstraint(%v) = false, expected true", err)
	}
	if IsUniqueConstraint(errors.New("other")) {
		t.Error("IsUniqueConstraint matched an unrelated error")
	}
}

func TestOpenMigratesMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	// Old database shape: transactions without the project and
	// transfer_group_id columns.
	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	_, err = raw.Exec(`
		CREATE TABLE transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id INTEGER NOT NULL,
			amount TEXT NOT NULL,
			date TEXT NOT NULL,
			type TEXT NOT NULL,
			payee TEXT,
			category TEXT,
			notes TEXT,
			recurring_id INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		t.Fatalf("create old table: %v", err)
	}
	if err := raw.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	conn, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	for _, column := range []string{"project", "transfer_group_id"} {
		exists, err := columnExists(conn, "transactions", column)
		if err != nil {
			t.Fatalf("columnExists(%s): %v", column, err)
		}
		if !exists {
			t.Errorf("column transactions.%s not added by migration", column)
		}
	}
}

func TestSettings(t *testing.T) {
	conn := openTestDB(t)
	settings := NewSettings(conn)

	value, err := settings.Get("missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "" {
		t.Errorf("Get(missing) = %q, expected empty", value)
	}

	if err := settings.Set("currency", "USD"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := settings.Set("currency", "EUR"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	value, err = settings.Get("currency")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "EUR" {
		t.Errorf("Get(currency) = %q, expected EUR", value)
	}

	if err := settings.Set("theme", "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	all, err := settings.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 2 || all["currency"] != "EUR" || all["theme"] != "dark" {
		t.Errorf("All() = %v, expected currency=EUR theme=dark", all)
	}
}
