package seed

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/catalog"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/ledger"
)

func TestRun(t *testing.T) {
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer conn.Close()

	stores := Stores{
		Accounts:   ledger.NewAccountStore(conn),
		Ledger:     ledger.NewService(conn),
		Categories: catalog.NewCategoryStore(conn),
		Payees:     catalog.NewPayeeStore(conn),
	}
	opts := Options{Accounts: 3, Categories: 5, Payees: 5, Transactions: 40}

	if err := Run(stores, opts); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	accounts, err := stores.Accounts.GetAll()
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(accounts) != opts.Accounts {
		t.Errorf("accounts = %d, expected %d", len(accounts), opts.Accounts)
	}

	transactions, err := stores.Ledger.GetFiltered(ledger.FilterOptions{Limit: opts.Transactions * 2})
	if err != nil {
		t.Fatalf("GetFiltered() error = %v", err)
	}
	if len(transactions) != opts.Transactions {
		t.Errorf("transactions = %d, expected %d", len(transactions), opts.Transactions)
	}

	// Every account's balance must equal the sum of its transactions.
	sums := make(map[int64]decimal.Decimal)
	for _, tr := range transactions {
		sums[tr.AccountID] = sums[tr.AccountID].Add(tr.Amount)
	}
	for _, a := range accounts {
		if !a.Balance.Equal(sums[a.ID]) {
			t.Errorf("account %s balance = %s, transaction sum gives %s", a.Name, a.Balance, sums[a.ID])
		}
	}
}

func TestRunRejectsTransactionsWithoutAccounts(t *testing.T) {
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer conn.Close()

	stores := Stores{
		Accounts:   ledger.NewAccountStore(conn),
		Ledger:     ledger.NewService(conn),
		Categories: catalog.NewCategoryStore(conn),
		Payees:     catalog.NewPayeeStore(conn),
	}

	if err := Run(stores, Options{Accounts: 0, Transactions: 10}); err == nil {
		t.Error("Run() generated transactions with no accounts to attach them to")
	}
}
