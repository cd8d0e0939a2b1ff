// Package recurring implements the recurring-transaction processing
// engine: it computes due occurrences from each definition's watermark,
// materializes them through the ledger service and advances the
// definition's state.
package recurring

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/ledger"
)

// Definition is a recurring transaction definition. CurrentAmount is the
// base amount of the next occurrence; an optional IncrementAmount is
// added to it before each occurrence is generated. LastProcessed is the
// watermark: the last calendar date for which an occurrence was
// materialized.
type Definition struct {
	ID              int64
	AccountID       int64
	AccountName     string // populated on read paths that join accounts
	CurrentAmount   decimal.Decimal
	Type            ledger.Type
	Payee           sql.NullString // for transfers: destination account name
	Category        sql.NullString
	Notes           sql.NullString
	Project         sql.NullString
	Frequency       Frequency
	StartDate       string
	EndDate         sql.NullString
	LastProcessed   string
	IncrementAmount decimal.Decimal
	Active          bool
	CreatedAt       time.Time
	NextDate        string // computed next due date, GetAllActive only
}

// Engine processes recurring definitions against the ledger.
//
// The engine performs no concurrency control of its own: two overlapping
// ProcessDue calls against the same definition are a caller-side race
// (the HTTP layer holds a single-flight mutex around it). The occurrence
// idempotency key in the ledger keeps crash re-runs from double-counting.
type Engine struct {
	conn     *db.Connection
	ledger   *ledger.Service
	accounts *ledger.AccountStore
	clock    func() time.Time
}

// NewEngine creates a new recurring Engine.
func NewEngine(conn *db.Connection, svc *ledger.Service, accounts *ledger.AccountStore) *Engine {
	return &Engine{
		conn:     conn,
		ledger:   svc,
		accounts: accounts,
		clock:    time.Now,
	}
}

// Create stores a new definition. The watermark starts at the start
// date, so the first occurrence falls one period after it.
func (e *Engine) Create(def Definition) (int64, error) {
	if !def.Frequency.Valid() {
		return 0, fmt.Errorf("invalid frequency %q", def.Frequency)
	}

	query := `
		INSERT INTO recurring_transactions
		(account_id, current_amount, type, payee, category, notes, project,
		 frequency, start_date, end_date, last_processed, increment_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := e.conn.Exec(query,
		def.AccountID,
		def.CurrentAmount.String(),
		string(def.Type),
		def.Payee,
		def.Category,
		def.Notes,
		def.Project,
		string(def.Frequency),
		def.StartDate,
		def.EndDate,
		def.StartDate,
		def.IncrementAmount.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create recurring definition: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get recurring id: %w", err)
	}
	return id, nil
}

// Deactivate soft-deletes a definition. Idempotent: deactivating an
// already inactive or unknown id is not an error. Historical
// transactions spawned by the definition remain untouched.
func (e *Engine) Deactivate(recurringID int64) error {
	_, err := e.conn.Exec(
		`UPDATE recurring_transactions SET is_active = 0 WHERE id = ?`, recurringID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate recurring definition: %w", err)
	}
	return nil
}

const selectDefinition = `
	SELECT r.id, r.account_id, a.name, r.current_amount, r.type,
	       r.payee, r.category, r.notes, r.project,
	       r.frequency, r.start_date, r.end_date, r.last_processed,
	       r.increment_amount, r.is_active, r.created_at
	FROM recurring_transactions r
	JOIN accounts a ON r.account_id = a.id
`

// GetAllActive returns every active definition with its computed next
// due date.
func (e *Engine) GetAllActive() ([]Definition, error) {
	rows, err := e.conn.Query(selectDefinition + ` WHERE r.is_active = 1 ORDER BY r.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active definitions: %w", err)
	}
	defer rows.Close()

	defs, err := scanDefinitions(rows)
	if err != nil {
		return nil, err
	}

	for i := range defs {
		watermark, err := parseDate(defs[i].LastProcessed)
		if err != nil {
			return nil, err
		}
		defs[i].NextDate = formatDate(NextDate(watermark, defs[i].Frequency))
	}
	return defs, nil
}

// GetByID retrieves a definition. Returns nil if not found.
func (e *Engine) GetByID(recurringID int64) (*Definition, error) {
	rows, err := e.conn.Query(selectDefinition+` WHERE r.id = ?`, recurringID)
	if err != nil {
		return nil, fmt.Errorf("failed to get definition: %w", err)
	}
	defer rows.Close()

	defs, err := scanDefinitions(rows)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, nil
	}
	return &defs[0], nil
}

// ProcessDue materializes every due occurrence of every active
// definition up to today and returns the count of occurrences created.
//
// Each definition is processed in its own failure boundary: an error on
// one definition is logged and the batch continues. A definition that
// has not been processed for months catches up with one transaction per
// elapsed period, carrying the increment across the catch-up. The
// watermark and the mutated amount are written back once per definition
// after its occurrences are inserted.
func (e *Engine) ProcessDue() (int, error) {
	now := e.clock().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	rows, err := e.conn.Query(
		selectDefinition+` WHERE r.is_active = 1 AND (r.end_date IS NULL OR r.end_date >= ?)`,
		formatDate(today),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to load due definitions: %w", err)
	}
	defs, err := scanDefinitions(rows)
	rows.Close()
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range defs {
		n, err := e.processDefinition(&defs[i], today)
		total += n
		if err != nil {
			slog.Error("recurring definition failed, continuing batch",
				"recurring_id", defs[i].ID, "error", err)
		}
	}
	return total, nil
}

// processDefinition runs the catch-up loop for one definition.
func (e *Engine) processDefinition(def *Definition, today time.Time) (int, error) {
	cursor, err := parseDate(def.LastProcessed)
	if err != nil {
		return 0, err
	}

	var end time.Time
	hasEnd := def.EndDate.Valid && def.EndDate.String != ""
	if hasEnd {
		if end, err = parseDate(def.EndDate.String); err != nil {
			return 0, err
		}
	}

	origin := cursor
	amount := def.CurrentAmount
	count := 0
	var loopErr error

	// A frequency NextDate does not recognize leaves the cursor in
	// place, which would loop forever. Bail so the batch moves on and
	// the bad row surfaces through the error log.
	next := NextDate(cursor, def.Frequency)
	if !next.After(cursor) {
		return 0, fmt.Errorf("frequency %q does not advance the schedule", def.Frequency)
	}
	for !next.After(today) && (!hasEnd || !next.After(end)) {
		// Increment applies before materializing, so the first
		// occurrence after creation already carries one increment.
		candidate := amount.Add(def.IncrementAmount)

		created, err := e.materialize(def, next, candidate)
		if err != nil {
			// The failed occurrence's increment must not be persisted;
			// amount stays aligned with the watermark.
			loopErr = err
			break
		}
		if created {
			count++
		}

		amount = candidate
		cursor = next
		next = NextDate(cursor, def.Frequency)
	}

	// One write per definition per pass, after its occurrences are in.
	if !cursor.Equal(origin) {
		_, err := e.conn.Exec(
			`UPDATE recurring_transactions SET last_processed = ?, current_amount = ? WHERE id = ?`,
			formatDate(cursor), amount.String(), def.ID,
		)
		if err != nil {
			return count, fmt.Errorf("failed to advance watermark: %w", err)
		}
	}
	return count, loopErr
}

// materialize creates the ledger rows for one occurrence. Returns false
// without error when the occurrence already exists from an earlier,
// interrupted pass.
func (e *Engine) materialize(def *Definition, date time.Time, amount decimal.Decimal) (bool, error) {
	recurringID := sql.NullInt64{Int64: def.ID, Valid: true}
	day := formatDate(date)

	if def.Type == ledger.TypeTransfer && def.Payee.Valid && def.Payee.String != "" {
		// For transfers, the payee names the destination account.
		dest, err := e.accounts.GetByName(def.Payee.String)
		if err != nil {
			return false, err
		}

		if dest != nil {
			err = e.ledger.CreateTransfer(ledger.Transfer{
				FromAccountID: def.AccountID,
				ToAccountID:   dest.ID,
				Amount:        amount.Abs(),
				Date:          day,
				Category:      def.Category,
				Notes:         def.Notes,
				Project:       def.Project,
				RecurringID:   recurringID,
			})
			return e.createdOrDuplicate(def, day, err)
		}

		// Destination account name no longer resolves. Degrade to a
		// single outflow leg rather than dropping the occurrence.
		slog.Warn("destination account not found for recurring transfer, creating single leg",
			"recurring_id", def.ID, "destination", def.Payee.String)
		_, err = e.ledger.Create(&ledger.Transaction{
			AccountID:   def.AccountID,
			Amount:      amount.Abs().Neg(),
			Date:        day,
			Type:        def.Type,
			Payee:       def.Payee,
			Category:    def.Category,
			Notes:       def.Notes,
			Project:     def.Project,
			RecurringID: recurringID,
		})
		return e.createdOrDuplicate(def, day, err)
	}

	signed := amount.Abs()
	if def.Type == ledger.TypeExpense {
		signed = signed.Neg()
	}

	_, err := e.ledger.Create(&ledger.Transaction{
		AccountID:   def.AccountID,
		Amount:      signed,
		Date:        day,
		Type:        def.Type,
		Payee:       def.Payee,
		Category:    def.Category,
		Notes:       def.Notes,
		Project:     def.Project,
		RecurringID: recurringID,
	})
	return e.createdOrDuplicate(def, day, err)
}

// createdOrDuplicate folds the duplicate-occurrence case into a skip:
// the row is already there from an earlier pass, the watermark can still
// advance past it.
func (e *Engine) createdOrDuplicate(def *Definition, day string, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ledger.ErrDuplicateOccurrence) {
		slog.Warn("occurrence already materialized, skipping",
			"recurring_id", def.ID, "date", day)
		return false, nil
	}
	return false, err
}

func scanDefinitions(rows *sql.Rows) ([]Definition, error) {
	var defs []Definition
	for rows.Next() {
		var (
			def       Definition
			amount    string
			increment string
			active    int
		)
		if err := rows.Scan(
			&def.ID, &def.AccountID, &def.AccountName, &amount, &def.Type,
			&def.Payee, &def.Category, &def.Notes, &def.Project,
			&def.Frequency, &def.StartDate, &def.EndDate, &def.LastProcessed,
			&increment, &active, &def.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}

		var err error
		if def.CurrentAmount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse amount for definition %d: %w", def.ID, err)
		}
		if def.IncrementAmount, err = decimal.NewFromString(increment); err != nil {
			return nil, fmt.Errorf("failed to parse increment for definition %d: %w", def.ID, err)
		}
		def.Active = active != 0
		defs = append(defs, def)
	}
	return defs, rows.Err()
}
