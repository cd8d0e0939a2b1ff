// Package csvio imports and exports the transaction ledger as CSV.
package csvio

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/ledger"
)

// header is the exported column layout. Import accepts the same layout.
var header = []string{"date", "account", "type", "amount", "payee", "category", "notes", "project"}

// Exporter writes the ledger as CSV.
type Exporter struct {
	conn *db.Connection
}

// NewExporter creates a new Exporter instance.
func NewExporter(conn *db.Connection) *Exporter {
	return &Exporter{conn: conn}
}

// Export writes every transaction, oldest first, with the owning
// account resolved to its display name.
func (e *Exporter) Export(w io.Writer) error {
	query := `
		SELECT t.date, a.name, t.type, t.amount, t.payee, t.category, t.notes, t.project
		FROM transactions t
		JOIN accounts a ON t.account_id = a.id
		ORDER BY t.date, t.id
	`

	rows, err := e.conn.Query(query)
	if err != nil {
		return fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for rows.Next() {
		var (
			date, account, transType, amount string
			payee, category, notes, project  sql.NullString
		)
		if err := rows.Scan(&date, &account, &transType, &amount, &payee, &category, &notes, &project); err != nil {
			return fmt.Errorf("failed to scan transaction: %w", err)
		}
		record := []string{
			date, account, transType, amount,
			payee.String, category.String, notes.String, project.String,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// Result summarizes an import.
type Result struct {
	AccountsCreated int
	Transactions    int
	Transfers       int
	Skipped         int
}

// row is one parsed CSV line.
type row struct {
	date      string
	account   string
	transType string
	amount    decimal.Decimal
	payee     string
	category  string
	notes     string
	project   string
	paired    bool
}

// Importer loads CSV rows into the ledger through the transaction
// service, so account balances stay consistent with the imported rows.
type Importer struct {
	accounts *ledger.AccountStore
	service  *ledger.Service
}

// NewImporter creates a new Importer instance.
func NewImporter(accounts *ledger.AccountStore, service *ledger.Service) *Importer {
	return &Importer{accounts: accounts, service: service}
}

// Import reads CSV records, creating referenced accounts that do not
// exist yet (type "checking", zero opening balance). Transfer rows are
// paired by date and absolute amount with opposite signs and recreated
// as proper transfers; an unpaired transfer row imports as a single leg.
func (i *Importer) Import(r io.Reader) (Result, error) {
	var result Result

	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return result, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return result, nil
	}
	if isHeader(records[0]) {
		records = records[1:]
	}

	rows := make([]*row, 0, len(records))
	for _, record := range records {
		parsed, err := parseRow(record)
		if err != nil {
			result.Skipped++
			continue
		}
		rows = append(rows, parsed)
	}

	accountIDs := make(map[string]int64)
	for _, rw := range rows {
		if _, ok := accountIDs[rw.account]; ok {
			continue
		}
		id, created, err := i.ensureAccount(rw.account)
		if err != nil {
			return result, err
		}
		if created {
			result.AccountsCreated++
		}
		accountIDs[rw.account] = id
	}

	pairTransfers(rows)

	for idx, rw := range rows {
		if rw == nil {
			continue
		}

		if rw.paired {
			if !rw.amount.IsNegative() {
				// Destination leg: consumed when its source leg imports.
				continue
			}
			partner := findPartner(rows, idx, rw)
			if partner != nil {
				err := i.service.CreateTransfer(ledger.Transfer{
					FromAccountID: accountIDs[rw.account],
					ToAccountID:   accountIDs[partner.account],
					Amount:        rw.amount.Abs(),
					Date:          rw.date,
					Category:      nullable(rw.category),
					Notes:         nullable(rw.notes),
					Project:       nullable(rw.project),
				})
				if err != nil {
					return result, err
				}
				result.Transfers++
				continue
			}
		}

		_, err := i.service.Create(&ledger.Transaction{
			AccountID: accountIDs[rw.account],
			Amount:    rw.amount,
			Date:      rw.date,
			Type:      ledger.Type(rw.transType),
			Payee:     nullable(rw.payee),
			Category:  nullable(rw.category),
			Notes:     nullable(rw.notes),
			Project:   nullable(rw.project),
		})
		if err != nil {
			return result, err
		}
		result.Transactions++
	}

	return result, nil
}

func (i *Importer) ensureAccount(name string) (int64, bool, error) {
	account, err := i.accounts.GetByName(name)
	if err != nil {
		return 0, false, err
	}
	if account != nil {
		return account.ID, false, nil
	}

	id, err := i.accounts.Create(name, "checking", decimal.Zero)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func parseRow(record []string) (*row, error) {
	if len(record) < 4 {
		return nil, fmt.Errorf("short record")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(record[3]))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", record[3], err)
	}

	rw := &row{
		date:      strings.TrimSpace(record[0]),
		account:   strings.TrimSpace(record[1]),
		transType: strings.TrimSpace(record[2]),
		amount:    amount,
	}
	if rw.date == "" || rw.account == "" || rw.transType == "" {
		return nil, fmt.Errorf("missing required field")
	}

	fields := []*string{&rw.payee, &rw.category, &rw.notes, &rw.project}
	for n, field := range fields {
		if len(record) > 4+n {
			*field = strings.TrimSpace(record[4+n])
		}
	}
	return rw, nil
}

// pairTransfers marks matching transfer legs: same date, equal absolute
// amount, opposite signs. The negative leg acts as the pair's anchor
// during import; the positive leg is consumed by findPartner.
func pairTransfers(rows []*row) {
	for _, a := range rows {
		if a == nil || a.paired || a.transType != string(ledger.TypeTransfer) || !a.amount.IsNegative() {
			continue
		}
		for _, b := range rows {
			if b == nil || b == a || b.paired || b.transType != string(ledger.TypeTransfer) {
				continue
			}
			if b.date == a.date && b.amount.Equal(a.amount.Neg()) {
				a.paired = true
				b.paired = true
				break
			}
		}
	}
}

// findPartner locates and consumes the positive leg matching rw,
// regardless of where it sits in the file.
func findPartner(rows []*row, idx int, rw *row) *row {
	for j, b := range rows {
		if j == idx || b == nil || !b.paired || b.transType != string(ledger.TypeTransfer) {
			continue
		}
		if b.date == rw.date && b.amount.Equal(rw.amount.Neg()) {
			rows[j] = nil
			return b
		}
	}
	return nil
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "date")
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
