package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
)

// Account represents a tracked account.
type Account struct {
	ID        int64
	Name      string
	Type      string
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// AccountStore manages account rows.
type AccountStore struct {
	conn *db.Connection
}

// NewAccountStore creates a new AccountStore instance.
func NewAccountStore(conn *db.Connection) *AccountStore {
	return &AccountStore{conn: conn}
}

// Create creates a new account with an opening balance.
func (s *AccountStore) Create(name, accountType string, balance decimal.Decimal) (int64, error) {
	query := `INSERT INTO accounts (name, type, balance) VALUES (?, ?, ?)`

	result, err := s.conn.Exec(query, name, accountType, balance.String())
	if err != nil {
		return 0, fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get account id: %w", err)
	}
	return id, nil
}

// Update changes an account's name and type. The balance is never set
// directly; it only moves through AdjustBalance.
func (s *AccountStore) Update(accountID int64, name, accountType string) (bool, error) {
	query := `UPDATE accounts SET name = ?, type = ? WHERE id = ?`

	result, err := s.conn.Exec(query, name, accountType, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to update account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// GetByID retrieves an account by id. Returns nil if not found.
func (s *AccountStore) GetByID(accountID int64) (*Account, error) {
	query := `SELECT id, name, type, balance, created_at FROM accounts WHERE id = ?`
	return s.scanOne(s.conn.QueryRow(query, accountID))
}

// GetByName retrieves an account by its display name. Returns nil if not found.
func (s *AccountStore) GetByName(name string) (*Account, error) {
	query := `SELECT id, name, type, balance, created_at FROM accounts WHERE name = ?`
	return s.scanOne(s.conn.QueryRow(query, name))
}

// GetAll retrieves all accounts ordered by type and name.
func (s *AccountStore) GetAll() ([]Account, error) {
	query := `SELECT id, name, type, balance, created_at FROM accounts ORDER BY type, name`

	rows, err := s.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var account Account
		var balance string
		if err := rows.Scan(&account.ID, &account.Name, &account.Type, &balance, &account.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		account.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance for account %d: %w", account.ID, err)
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// TotalBalance returns the sum of balances, optionally filtered by account types.
func (s *AccountStore) TotalBalance(accountTypes []string) (decimal.Decimal, error) {
	query := `SELECT balance FROM accounts`
	var args []interface{}

	if len(accountTypes) > 0 {
		placeholders := strings.Repeat("?,", len(accountTypes))
		query += ` WHERE type IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, t := range accountTypes {
			args = append(args, t)
		}
	}

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balances: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan balance: %w", err)
		}
		balance, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse balance: %w", err)
		}
		total = total.Add(balance)
	}

	return total, rows.Err()
}

func (s *AccountStore) scanOne(row *sql.Row) (*Account, error) {
	var account Account
	var balance string

	err := row.Scan(&account.ID, &account.Name, &account.Type, &balance, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	account.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance for account %d: %w", account.ID, err)
	}
	return &account, nil
}

// AdjustBalance applies balance += delta to exactly one account row.
// It runs inside the caller's SQL transaction so the adjustment commits
// atomically with the ledger write that produced the delta. The amount
// math happens in Go because balances are stored as decimal strings.
// A missing account surfaces as ErrAccountNotFound from the read, inside
// the same transaction, so there is no check-then-use race.
func AdjustBalance(tx *sql.Tx, accountID int64, delta decimal.Decimal) error {
	var raw string
	err := tx.QueryRow(`SELECT balance FROM accounts WHERE id = ?`, accountID).Scan(&raw)
	if err == sql.ErrNoRows {
		return fmt.Errorf("account %d: %w", accountID, ErrAccountNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read balance for account %d: %w", accountID, err)
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("failed to parse balance for account %d: %w", accountID, err)
	}

	next := balance.Add(delta)
	if _, err := tx.Exec(`UPDATE accounts SET balance = ? WHERE id = ?`, next.String(), accountID); err != nil {
		return fmt.Errorf("failed to update balance for account %d: %w", accountID, err)
	}
	return nil
}
