// Package db provides SQLite storage for the money tracker: accounts,
// transactions, recurring definitions and the supporting catalog tables.
package db

import "fmt"

// Schema defines the SQL statements to create database tables.
//
// Amounts and balances are stored as TEXT holding decimal strings; all
// arithmetic happens in Go with exact decimals, never in SQLite float
// coercion. Dates are TEXT in YYYY-MM-DD form, which compares correctly
// as a string.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL,                -- checking, savings, investment, credit, ...
    balance TEXT NOT NULL DEFAULT '0', -- running sum of this account's transactions
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL,
    amount TEXT NOT NULL,              -- signed decimal string, negative = outflow
    date TEXT NOT NULL,                -- YYYY-MM-DD
    type TEXT NOT NULL,                -- income, expense or transfer
    payee TEXT,
    category TEXT,
    notes TEXT,
    project TEXT,
    recurring_id INTEGER,              -- weak reference to the spawning definition
    transfer_group_id TEXT,            -- shared by both legs of a transfer
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (account_id) REFERENCES accounts (id)
);

CREATE TABLE IF NOT EXISTS recurring_transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL,
    current_amount TEXT NOT NULL,
    type TEXT NOT NULL,
    payee TEXT,                        -- for transfers: destination account name
    category TEXT,
    notes TEXT,
    project TEXT,
    frequency TEXT NOT NULL,           -- daily, weekly, biweekly, monthly, quarterly, yearly
    start_date TEXT NOT NULL,
    end_date TEXT,                     -- last date an occurrence may fall on
    last_processed TEXT NOT NULL,      -- watermark, initialized to start_date
    increment_amount TEXT NOT NULL DEFAULT '0',
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (account_id) REFERENCES accounts (id)
);

CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS payees (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    is_account INTEGER NOT NULL DEFAULT 0,
    account_id INTEGER,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (account_id) REFERENCES accounts (id)
);

CREATE TABLE IF NOT EXISTS projects (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    description TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// Indexes are created after column migrations so that indexes on
// later-added columns also apply to databases created by older versions.
const Indexes = `
CREATE INDEX IF NOT EXISTS idx_transactions_account_date
    ON transactions(account_id, date);

CREATE INDEX IF NOT EXISTS idx_transactions_category
    ON transactions(category);

CREATE INDEX IF NOT EXISTS idx_transactions_transfer_group
    ON transactions(transfer_group_id);

-- Idempotency key for recurring materialization: one occurrence per
-- definition, account and date. Makes process-due re-runs safe.
CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_occurrence
    ON transactions(recurring_id, account_id, date)
    WHERE recurring_id IS NOT NULL;
`

// InitializeSchema creates all tables if they don't exist, applies
// additive column migrations for databases created by older versions,
// and then creates the indexes.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if err := migrateColumns(conn); err != nil {
		return err
	}
	if _, err := conn.Exec(Indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
