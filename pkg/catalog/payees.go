package catalog

import (
	"database/sql"
	"fmt"

	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
)

// Payee is a transaction counterparty. Account-backed payees come from
// the accounts table itself; transfers use the account name as payee.
type Payee struct {
	Name      string
	IsAccount bool
	AccountID sql.NullInt64
}

// PayeeStore manages payees.
type PayeeStore struct {
	conn *db.Connection
}

// NewPayeeStore creates a new PayeeStore instance.
func NewPayeeStore(conn *db.Connection) *PayeeStore {
	return &PayeeStore{conn: conn}
}

// GetAll returns all payees unioned with account names, so every account
// is selectable as a transfer counterparty.
func (s *PayeeStore) GetAll() ([]Payee, error) {
	query := `
		SELECT p.name, p.is_account, p.account_id
		FROM payees p
		UNION
		SELECT a.name, 1 AS is_account, a.id AS account_id
		FROM accounts a
		ORDER BY name
	`

	rows, err := s.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get payees: %w", err)
	}
	defer rows.Close()

	var payees []Payee
	for rows.Next() {
		var p Payee
		var isAccount int
		if err := rows.Scan(&p.Name, &isAccount, &p.AccountID); err != nil {
			return nil, fmt.Errorf("failed to scan payee: %w", err)
		}
		p.IsAccount = isAccount != 0
		payees = append(payees, p)
	}

	return payees, rows.Err()
}

// Create adds a payee. Returns false if the name already exists.
func (s *PayeeStore) Create(name string) (bool, error) {
	_, err := s.conn.Exec(`INSERT INTO payees (name) VALUES (?)`, name)
	if err != nil {
		if db.IsUniqueConstraint(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create payee: %w", err)
	}
	return true, nil
}

// BulkCreate adds multiple payees, silently ignoring duplicates.
func (s *PayeeStore) BulkCreate(names []string) error {
	for _, name := range names {
		if _, err := s.conn.Exec(`INSERT OR IGNORE INTO payees (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("failed to create payee %q: %w", name, err)
		}
	}
	return nil
}
