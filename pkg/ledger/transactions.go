package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
)

// Transaction represents one ledger row. For transfers, two rows exist,
// one per account, with equal absolute value and opposite sign, sharing
// a TransferGroupID.
type Transaction struct {
	ID              int64
	AccountID       int64
	AccountName     string // populated on read paths that join accounts
	Amount          decimal.Decimal
	Date            string // YYYY-MM-DD
	Type            Type
	Payee           sql.NullString
	Category        sql.NullString
	Notes           sql.NullString
	Project         sql.NullString
	RecurringID     sql.NullInt64
	TransferGroupID sql.NullString
	Frequency       sql.NullString // recurring frequency, filtered listing only
	CreatedAt       time.Time
}

// Transfer describes a transfer between two accounts. Amount is the
// positive magnitude; the service derives the signed legs.
type Transfer struct {
	FromAccountID int64
	ToAccountID   int64
	Amount        decimal.Decimal
	Date          string
	Category      sql.NullString
	Notes         sql.NullString
	Project       sql.NullString
	RecurringID   sql.NullInt64
}

// UpdateParams carries the new values for an existing transaction.
// TransferAccountID names the counterparty account when editing a
// transfer leg.
type UpdateParams struct {
	AccountID         int64
	Amount            decimal.Decimal
	Date              string
	Type              Type
	Payee             sql.NullString
	Category          sql.NullString
	Notes             sql.NullString
	Project           sql.NullString
	TransferAccountID sql.NullInt64
}

// Service implements the transaction ledger operations. Every mutating
// operation keeps the owning account balances consistent within a single
// database transaction.
type Service struct {
	conn *db.Connection
}

// NewService creates a new ledger Service.
func NewService(conn *db.Connection) *Service {
	return &Service{conn: conn}
}

const insertTransaction = `
	INSERT INTO transactions
	(account_id, amount, date, type, payee, category, notes, project, recurring_id, transfer_group_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Create inserts one transaction row exactly as given and applies the
// amount as a balance delta to the owning account. The caller is
// responsible for sign normalization (negative outflow, positive inflow).
// A recurring-spawned row that collides with the occurrence idempotency
// key returns ErrDuplicateOccurrence without touching the balance.
func (s *Service) Create(t *Transaction) (int64, error) {
	var id int64

	err := s.conn.Transaction(func(tx *sql.Tx) error {
		// Adjusting first surfaces ErrAccountNotFound before the insert
		// can trip the foreign key; a later failure rolls it back.
		if err := AdjustBalance(tx, t.AccountID, t.Amount); err != nil {
			return err
		}

		result, err := tx.Exec(insertTransaction,
			t.AccountID,
			t.Amount.String(),
			t.Date,
			string(t.Type),
			t.Payee,
			t.Category,
			t.Notes,
			t.Project,
			t.RecurringID,
			t.TransferGroupID,
		)
		if err != nil {
			if db.IsUniqueConstraint(err) && t.RecurringID.Valid {
				return fmt.Errorf("recurring %d on %s: %w", t.RecurringID.Int64, t.Date, ErrDuplicateOccurrence)
			}
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get transaction id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	t.ID = id
	return id, nil
}

// CreateTransfer inserts the two legs of a transfer and adjusts both
// account balances. The four writes commit as one unit; no partial
// transfer is ever persisted. Each leg's payee carries the counterparty
// account's name, falling back to a literal "Transfer" if a name lookup
// finds nothing (a cosmetic miss never aborts the transfer).
func (s *Service) CreateTransfer(p Transfer) error {
	amount := p.Amount.Abs()
	groupID := uuid.NewString()

	return s.conn.Transaction(func(tx *sql.Tx) error {
		fromName := accountName(tx, p.FromAccountID)
		toName := accountName(tx, p.ToAccountID)

		legs := []struct {
			accountID int64
			amount    decimal.Decimal
			payee     string
		}{
			{p.FromAccountID, amount.Neg(), toName},
			{p.ToAccountID, amount, fromName},
		}

		for _, leg := range legs {
			if err := AdjustBalance(tx, leg.accountID, leg.amount); err != nil {
				return err
			}
			_, err := tx.Exec(insertTransaction,
				leg.accountID,
				leg.amount.String(),
				p.Date,
				string(TypeTransfer),
				leg.payee,
				p.Category,
				p.Notes,
				p.Project,
				p.RecurringID,
				groupID,
			)
			if err != nil {
				if db.IsUniqueConstraint(err) && p.RecurringID.Valid {
					return fmt.Errorf("recurring %d on %s: %w", p.RecurringID.Int64, p.Date, ErrDuplicateOccurrence)
				}
				return fmt.Errorf("failed to insert transfer leg: %w", err)
			}
		}

		return nil
	})
}

// Update rewrites an existing transaction and reconciles balances.
// Returns false if the transaction id does not exist, which is an
// expected condition for a caller racing a concurrent delete.
//
// Sign normalization: expense stores -|amount|, income +|amount|. For a
// transfer leg the sign follows the existing stored amount, so an edit
// touches one leg only and the leg keeps its direction; the payee is
// re-derived from the counterparty name.
//
// Balance reconciliation: same account gets delta = new - old; on an
// account move the old account reverses the full old amount and the new
// account takes the full new amount.
func (s *Service) Update(transactionID int64, p UpdateParams) (bool, error) {
	found := false

	err := s.conn.Transaction(func(tx *sql.Tx) error {
		var (
			oldAccountID int64
			oldAmountRaw string
		)
		err := tx.QueryRow(
			`SELECT account_id, amount FROM transactions WHERE id = ?`, transactionID,
		).Scan(&oldAccountID, &oldAmountRaw)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read transaction %d: %w", transactionID, err)
		}
		found = true

		oldAmount, err := decimal.NewFromString(oldAmountRaw)
		if err != nil {
			return fmt.Errorf("failed to parse amount for transaction %d: %w", transactionID, err)
		}

		newAmount := p.Amount
		payee := p.Payee

		if p.Type == TypeTransfer && p.TransferAccountID.Valid {
			if oldAmount.IsNegative() {
				// Source leg: keep the outflow direction, counterparty
				// is the destination account.
				newAmount = p.Amount.Abs().Neg()
				payee = nullString(accountName(tx, p.TransferAccountID.Int64))
			} else {
				// Destination leg: inflow, counterparty is the source.
				newAmount = p.Amount.Abs()
				payee = nullString(accountName(tx, p.AccountID))
			}
		} else {
			switch p.Type {
			case TypeExpense:
				newAmount = p.Amount.Abs().Neg()
			case TypeIncome:
				newAmount = p.Amount.Abs()
			}
		}

		if oldAccountID == p.AccountID {
			err = AdjustBalance(tx, oldAccountID, newAmount.Sub(oldAmount))
		} else {
			if err = AdjustBalance(tx, oldAccountID, oldAmount.Neg()); err == nil {
				err = AdjustBalance(tx, p.AccountID, newAmount)
			}
		}
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE transactions
			SET account_id = ?, amount = ?, date = ?, type = ?, payee = ?, category = ?, notes = ?, project = ?
			WHERE id = ?`,
			p.AccountID,
			newAmount.String(),
			p.Date,
			string(p.Type),
			payee,
			p.Category,
			p.Notes,
			p.Project,
			transactionID,
		)
		if err != nil {
			return fmt.Errorf("failed to update transaction %d: %w", transactionID, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// Delete removes a transaction and reverses its balance contribution.
// Returns false if the transaction id does not exist.
func (s *Service) Delete(transactionID int64) (bool, error) {
	found := false

	err := s.conn.Transaction(func(tx *sql.Tx) error {
		var (
			accountID int64
			amountRaw string
		)
		err := tx.QueryRow(
			`SELECT account_id, amount FROM transactions WHERE id = ?`, transactionID,
		).Scan(&accountID, &amountRaw)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read transaction %d: %w", transactionID, err)
		}
		found = true

		amount, err := decimal.NewFromString(amountRaw)
		if err != nil {
			return fmt.Errorf("failed to parse amount for transaction %d: %w", transactionID, err)
		}

		if _, err := tx.Exec(`DELETE FROM transactions WHERE id = ?`, transactionID); err != nil {
			return fmt.Errorf("failed to delete transaction %d: %w", transactionID, err)
		}

		return AdjustBalance(tx, accountID, amount.Neg())
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// accountName returns the account's display name, or the literal
// "Transfer" if the account cannot be found.
func accountName(tx *sql.Tx, accountID int64) string {
	var name string
	err := tx.QueryRow(`SELECT name FROM accounts WHERE id = ?`, accountID).Scan(&name)
	if err != nil {
		return "Transfer"
	}
	return name
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

const selectTransaction = `
	SELECT t.id, t.account_id, a.name, t.amount, t.date, t.type,
	       t.payee, t.category, t.notes, t.project,
	       t.recurring_id, t.transfer_group_id, t.created_at
	FROM transactions t
	JOIN accounts a ON t.account_id = a.id
`

// GetByID retrieves a single transaction. Returns nil if not found.
func (s *Service) GetByID(transactionID int64) (*Transaction, error) {
	row := s.conn.QueryRow(selectTransaction+` WHERE t.id = ?`, transactionID)

	var t Transaction
	var amount string
	err := row.Scan(
		&t.ID, &t.AccountID, &t.AccountName, &amount, &t.Date, &t.Type,
		&t.Payee, &t.Category, &t.Notes, &t.Project,
		&t.RecurringID, &t.TransferGroupID, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse amount for transaction %d: %w", t.ID, err)
	}
	return &t, nil
}

// FilterOptions narrows a transaction listing. Zero values are ignored.
type FilterOptions struct {
	AccountID int64
	Category  string
	Type      Type
	DateFrom  string
	Limit     int
}

// GetFiltered retrieves transactions with optional filters, newest first,
// with the owning account's name and the spawning recurring definition's
// frequency joined in.
func (s *Service) GetFiltered(opts FilterOptions) ([]Transaction, error) {
	query := `
		SELECT t.id, t.account_id, a.name, t.amount, t.date, t.type,
		       t.payee, t.category, t.notes, t.project,
		       t.recurring_id, t.transfer_group_id, r.frequency, t.created_at
		FROM transactions t
		JOIN accounts a ON t.account_id = a.id
		LEFT JOIN recurring_transactions r ON t.recurring_id = r.id
		WHERE 1=1
	`
	var params []interface{}

	if opts.AccountID != 0 {
		query += ` AND t.account_id = ?`
		params = append(params, opts.AccountID)
	}
	if opts.Category != "" {
		query += ` AND t.category = ?`
		params = append(params, opts.Category)
	}
	if opts.Type != "" {
		query += ` AND t.type = ?`
		params = append(params, string(opts.Type))
	}
	if opts.DateFrom != "" {
		query += ` AND t.date >= ?`
		params = append(params, opts.DateFrom)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY t.date DESC, t.id DESC LIMIT ?`
	params = append(params, limit)

	rows, err := s.conn.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var t Transaction
		var amount string
		if err := rows.Scan(
			&t.ID, &t.AccountID, &t.AccountName, &amount, &t.Date, &t.Type,
			&t.Payee, &t.Category, &t.Notes, &t.Project,
			&t.RecurringID, &t.TransferGroupID, &t.Frequency, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse amount for transaction %d: %w", t.ID, err)
		}
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}

// GetByCategory retrieves transactions for one category within an
// optional date range, optionally restricted to account types.
func (s *Service) GetByCategory(category, startDate, endDate string, accountTypes []string) ([]Transaction, error) {
	query := selectTransaction + ` WHERE t.category = ?`
	params := []interface{}{category}

	switch {
	case startDate != "" && endDate != "":
		query += ` AND t.date BETWEEN ? AND ?`
		params = append(params, startDate, endDate)
	case startDate != "":
		query += ` AND t.date >= ?`
		params = append(params, startDate)
	case endDate != "":
		query += ` AND t.date <= ?`
		params = append(params, endDate)
	}

	if len(accountTypes) > 0 {
		placeholders := strings.Repeat("?,", len(accountTypes))
		query += ` AND a.type IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, t := range accountTypes {
			params = append(params, t)
		}
	}

	query += ` ORDER BY t.date DESC, t.id DESC`

	rows, err := s.conn.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions by category: %w", err)
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var t Transaction
		var amount string
		if err := rows.Scan(
			&t.ID, &t.AccountID, &t.AccountName, &amount, &t.Date, &t.Type,
			&t.Payee, &t.Category, &t.Notes, &t.Project,
			&t.RecurringID, &t.TransferGroupID, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse amount for transaction %d: %w", t.ID, err)
		}
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}
