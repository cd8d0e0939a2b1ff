package csvio

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/ledger"
)

func openTestDB(t *testing.T) *db.Connection {
	t.Helper()

	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestExportImportRoundTrip(t *testing.T) {
	source := openTestDB(t)
	accounts := ledger.NewAccountStore(source)
	service := ledger.NewService(source)

	checkingID, err := accounts.Create("Checking", "checking", decimal.Zero)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	savingsID, err := accounts.Create("Savings", "savings", decimal.Zero)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	rows := []ledger.Transaction{
		{AccountID: checkingID, Amount: decimal.RequireFromString("2500"), Date: "2026-01-05", Type: ledger.TypeIncome,
			Payee: sql.NullString{String: "Employer", Valid: true}},
		{AccountID: checkingID, Amount: decimal.RequireFromString("-79.99"), Date: "2026-01-08", Type: ledger.TypeExpense,
			Category: sql.NullString{String: "Groceries", Valid: true}},
	}
	for i := range rows {
		if _, err := service.Create(&rows[i]); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}
	if err := service.CreateTransfer(ledger.Transfer{
		FromAccountID: checkingID,
		ToAccountID:   savingsID,
		Amount:        decimal.RequireFromString("400"),
		Date:          "2026-01-10",
	}); err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	var buf bytes.Buffer
	if err := NewExporter(source).Export(&buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	// 1 header + 2 plain rows + 2 transfer legs.
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("exported lines = %d, expected 5:\n%s", len(lines), buf.String())
	}

	target := openTestDB(t)
	targetAccounts := ledger.NewAccountStore(target)
	targetService := ledger.NewService(target)

	result, err := NewImporter(targetAccounts, targetService).Import(&buf)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if result.AccountsCreated != 2 {
		t.Errorf("AccountsCreated = %d, expected 2", result.AccountsCreated)
	}
	if result.Transactions != 2 {
		t.Errorf("Transactions = %d, expected 2", result.Transactions)
	}
	if result.Transfers != 1 {
		t.Errorf("Transfers = %d, expected 1", result.Transfers)
	}
	if result.Skipped != 0 {
		t.Errorf("Skipped = %d, expected 0", result.Skipped)
	}

	// Balances in the target must match the source after replay.
	checking, err := targetAccounts.GetByName("Checking")
	if err != nil || checking == nil {
		t.Fatalf("target Checking account: %v, %v", checking, err)
	}
	if expected := decimal.RequireFromString("2020.01"); !checking.Balance.Equal(expected) {
		t.Errorf("Checking balance = %s, expected %s", checking.Balance, expected)
	}
	savings, err := targetAccounts.GetByName("Savings")
	if err != nil || savings == nil {
		t.Fatalf("target Savings account: %v, %v", savings, err)
	}
	if expected := decimal.RequireFromString("400"); !savings.Balance.Equal(expected) {
		t.Errorf("Savings balance = %s, expected %s", savings.Balance, expected)
	}

	// The transfer legs must be rejoined under one group.
	legs, err := targetService.GetFiltered(ledger.FilterOptions{Type: ledger.TypeTransfer})
	if err != nil {
		t.Fatalf("GetFiltered() error = %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("transfer legs = %d, expected 2", len(legs))
	}
	if !legs[0].TransferGroupID.Valid || legs[0].TransferGroupID != legs[1].TransferGroupID {
		t.Errorf("legs do not share a transfer group: %v vs %v",
			legs[0].TransferGroupID, legs[1].TransferGroupID)
	}
}

func TestImportSkipsMalformedRows(t *testing.T) {
	conn := openTestDB(t)

	input := strings.Join([]string{
		"date,account,type,amount,payee,category,notes,project",
		"2026-01-05,Checking,income,1000,,,,",
		"2026-01-06,Checking,expense,not-a-number,,,,",
		",Checking,expense,-5,,,,",
		"2026-01-07,Checking,expense,-25.50,Cafe,Eating Out,,",
	}, "\n")

	result, err := NewImporter(ledger.NewAccountStore(conn), ledger.NewService(conn)).Import(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Skipped != 2 {
		t.Errorf("Skipped = %d, expected 2", result.Skipped)
	}
	if result.Transactions != 2 {
		t.Errorf("Transactions = %d, expected 2", result.Transactions)
	}
	if result.AccountsCreated != 1 {
		t.Errorf("AccountsCreated = %d, expected 1", result.AccountsCreated)
	}
}

func TestImportUnpairedTransferLeg(t *testing.T) {
	conn := openTestDB(t)

	input := strings.Join([]string{
		"date,account,type,amount,payee,category,notes,project",
		"2026-01-10,Checking,transfer,-400,Savings,,,",
	}, "\n")

	result, err := NewImporter(ledger.NewAccountStore(conn), ledger.NewService(conn)).Import(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Transfers != 0 {
		t.Errorf("Transfers = %d, expected 0 for unpaired leg", result.Transfers)
	}
	if result.Transactions != 1 {
		t.Errorf("Transactions = %d, expected 1 single leg", result.Transactions)
	}
}

func TestImportPairsLegsRegardlessOfOrder(t *testing.T) {
	conn := openTestDB(t)

	// Destination leg appears before the source leg.
	input := strings.Join([]string{
		"date,account,type,amount,payee,category,notes,project",
		"2026-01-10,Savings,transfer,400,Checking,,,",
		"2026-01-10,Checking,transfer,-400,Savings,,,",
	}, "\n")

	result, err := NewImporter(ledger.NewAccountStore(conn), ledger.NewService(conn)).Import(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Transfers != 1 {
		t.Errorf("Transfers = %d, expected 1", result.Transfers)
	}
	if result.Transactions != 0 {
		t.Errorf("Transactions = %d, expected 0", result.Transactions)
	}

	savings, err := ledger.NewAccountStore(conn).GetByName("Savings")
	if err != nil || savings == nil {
		t.Fatalf("Savings account: %v, %v", savings, err)
	}
	if !savings.Balance.Equal(decimal.RequireFromString("400")) {
		t.Errorf("Savings balance = %s, expected 400", savings.Balance)
	}
}
