// Package seed fills a database with generated demo data.
package seed

import (
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/catalog"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/ledger"
)

var accountTypes = []string{"checking", "savings", "investment", "credit"}

// Options controls how much demo data is generated.
type Options struct {
	Accounts     int
	Categories   int
	Payees       int
	Transactions int
}

// Stores bundles the stores the seeder writes through. Going through
// the ledger service keeps the generated balances consistent.
type Stores struct {
	Accounts   *ledger.AccountStore
	Ledger     *ledger.Service
	Categories *catalog.CategoryStore
	Payees     *catalog.PayeeStore
}

// Run generates demo accounts, catalog entries and transactions.
func Run(s Stores, opts Options) error {
	if opts.Transactions > 0 && opts.Accounts <= 0 {
		return fmt.Errorf("cannot seed %d transactions without accounts", opts.Transactions)
	}

	accountIDs := make([]int64, 0, opts.Accounts)
	for i := 0; i < opts.Accounts; i++ {
		// Generated names can collide with the unique constraint; roll
		// again instead of failing the whole run.
		var id int64
		var err error
		for {
			name := fmt.Sprintf("%s %s", gofakeit.AdjectiveDescriptive(), gofakeit.NounAbstract())
			id, err = s.Accounts.Create(name, accountTypes[rand.Intn(len(accountTypes))], decimal.Zero)
			if err == nil {
				break
			}
			if !db.IsUniqueConstraint(err) {
				return fmt.Errorf("failed to seed account: %w", err)
			}
		}
		accountIDs = append(accountIDs, id)
	}

	categories := make([]string, 0, opts.Categories)
	for i := 0; i < opts.Categories; i++ {
		categories = append(categories, gofakeit.Word())
	}
	if err := s.Categories.BulkCreate(categories); err != nil {
		return err
	}

	payees := make([]string, 0, opts.Payees)
	for i := 0; i < opts.Payees; i++ {
		payees = append(payees, gofakeit.Company())
	}
	if err := s.Payees.BulkCreate(payees); err != nil {
		return err
	}

	for i := 0; i < opts.Transactions; i++ {
		transType := ledger.TypeExpense
		amount := decimal.NewFromFloat(gofakeit.Price(1, 500)).Neg()
		if rand.Intn(4) == 0 {
			transType = ledger.TypeIncome
			amount = decimal.NewFromFloat(gofakeit.Price(100, 3000))
		}

		date := time.Now().AddDate(0, 0, -rand.Intn(180)).Format("2006-01-02")
		t := &ledger.Transaction{
			AccountID: accountIDs[rand.Intn(len(accountIDs))],
			Amount:    amount,
			Date:      date,
			Type:      transType,
			Payee:     pick(payees),
			Category:  pick(categories),
		}
		if _, err := s.Ledger.Create(t); err != nil {
			return fmt.Errorf("failed to seed transaction: %w", err)
		}
	}

	return nil
}

func pick(values []string) sql.NullString {
	if len(values) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: values[rand.Intn(len(values))], Valid: true}
}
