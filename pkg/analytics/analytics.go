// Package analytics provides read-only reporting aggregates over the
// ledger. These reads carry no consistency obligation beyond reflecting
// committed writes, so sums are computed with SQL float arithmetic.
package analytics

import (
	"fmt"
	"strings"

	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
)

// Filter narrows reporting queries. Zero values are ignored.
type Filter struct {
	StartDate    string
	EndDate      string
	AccountTypes []string
}

// Stats summarizes income against expenses for a period.
type Stats struct {
	Income   float64
	Expenses float64
	Net      float64
}

// CategorySpending is one category's expense total.
type CategorySpending struct {
	Category string
	Total    float64
}

// MonthPoint is one month of the income/expense/savings/investment trend.
type MonthPoint struct {
	Month       string // YYYY-MM
	Income      float64
	Expenses    float64
	Savings     float64
	Investments float64
}

// Reporter runs reporting queries.
type Reporter struct {
	conn *db.Connection
}

// NewReporter creates a new Reporter instance.
func NewReporter(conn *db.Connection) *Reporter {
	return &Reporter{conn: conn}
}

// filterClauses renders the filter into SQL fragments and parameters.
func filterClauses(f Filter) (string, []interface{}) {
	var clauses string
	var params []interface{}

	switch {
	case f.StartDate != "" && f.EndDate != "":
		clauses += ` AND t.date BETWEEN ? AND ?`
		params = append(params, f.StartDate, f.EndDate)
	case f.StartDate != "":
		clauses += ` AND t.date >= ?`
		params = append(params, f.StartDate)
	case f.EndDate != "":
		clauses += ` AND t.date <= ?`
		params = append(params, f.EndDate)
	}

	if len(f.AccountTypes) > 0 {
		placeholders := strings.Repeat("?,", len(f.AccountTypes))
		clauses += ` AND a.type IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, t := range f.AccountTypes {
			params = append(params, t)
		}
	}

	return clauses, params
}

// Stats returns total income, total expenses (as a positive number) and
// the net for the filtered period.
func (r *Reporter) Stats(f Filter) (Stats, error) {
	clauses, params := filterClauses(f)

	query := `
		SELECT
			COALESCE(SUM(CASE WHEN t.type = 'income' THEN CAST(t.amount AS REAL) ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.type = 'expense' THEN ABS(CAST(t.amount AS REAL)) ELSE 0 END), 0)
		FROM transactions t
		JOIN accounts a ON t.account_id = a.id
		WHERE 1=1` + clauses

	var stats Stats
	err := r.conn.QueryRow(query, params...).Scan(&stats.Income, &stats.Expenses)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	stats.Net = stats.Income - stats.Expenses
	return stats, nil
}

// CategorySpending returns expense totals grouped by category, largest
// first.
func (r *Reporter) CategorySpending(f Filter) ([]CategorySpending, error) {
	clauses, params := filterClauses(f)

	query := `
		SELECT t.category, SUM(ABS(CAST(t.amount AS REAL))) AS total
		FROM transactions t
		JOIN accounts a ON t.account_id = a.id
		WHERE t.type = 'expense' AND t.category IS NOT NULL` + clauses + `
		GROUP BY t.category
		ORDER BY total DESC
	`

	rows, err := r.conn.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to get category spending: %w", err)
	}
	defer rows.Close()

	var spending []CategorySpending
	for rows.Next() {
		var cs CategorySpending
		if err := rows.Scan(&cs.Category, &cs.Total); err != nil {
			return nil, fmt.Errorf("failed to scan category spending: %w", err)
		}
		spending = append(spending, cs)
	}

	return spending, rows.Err()
}

// MonthlyTrend returns per-month income, expenses, and the transfer
// inflows into savings and investment accounts.
func (r *Reporter) MonthlyTrend(f Filter) ([]MonthPoint, error) {
	clauses, params := filterClauses(f)

	query := `
		SELECT
			strftime('%Y-%m', t.date) AS month,
			SUM(CASE WHEN t.type = 'income' THEN CAST(t.amount AS REAL) ELSE 0 END),
			SUM(CASE WHEN t.type = 'expense' THEN ABS(CAST(t.amount AS REAL)) ELSE 0 END),
			SUM(CASE WHEN a.type = 'savings' AND t.type = 'transfer' THEN CAST(t.amount AS REAL) ELSE 0 END),
			SUM(CASE WHEN a.type = 'investment' AND t.type = 'transfer' THEN CAST(t.amount AS REAL) ELSE 0 END)
		FROM transactions t
		JOIN accounts a ON t.account_id = a.id
		WHERE 1=1` + clauses + `
		GROUP BY month
		ORDER BY month
	`

	rows, err := r.conn.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly trend: %w", err)
	}
	defer rows.Close()

	var trend []MonthPoint
	for rows.Next() {
		var mp MonthPoint
		if err := rows.Scan(&mp.Month, &mp.Income, &mp.Expenses, &mp.Savings, &mp.Investments); err != nil {
			return nil, fmt.Errorf("failed to scan month point: %w", err)
		}
		trend = append(trend, mp)
	}

	return trend, rows.Err()
}
