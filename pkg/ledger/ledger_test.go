package ledger

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
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

func mustCreateAccount(t *testing.T, accounts *AccountStore, name, accountType string, balance string) int64 {
	t.Helper()

	id, err := accounts.Create(name, accountType, decimal.RequireFromString(balance))
	if err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	return id
}

// balanceOf reads the stored balance directly.
func balanceOf(t *testing.T, conn *db.Connection, accountID int64) decimal.Decimal {
	t.Helper()

	var raw string
	if err := conn.QueryRow(`SELECT balance FROM accounts WHERE id = ?`, accountID).Scan(&raw); err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return decimal.RequireFromString(raw)
}

// sumOf recomputes the balance from the transaction rows, the way the
// balance invariant defines it.
func sumOf(t *testing.T, conn *db.Connection, accountID int64) decimal.Decimal {
	t.Helper()

	rows, err := conn.Query(`SELECT amount FROM transactions WHERE account_id = ?`, accountID)
	if err != nil {
		t.Fatalf("read transactions: %v", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			t.Fatalf("scan amount: %v", err)
		}
		total = total.Add(decimal.RequireFromString(raw))
	}
	return total
}

func assertInvariant(t *testing.T, conn *db.Connection, accountID int64, opening string) {
	t.Helper()

	balance := balanceOf(t, conn, accountID)
	expected := decimal.RequireFromString(opening).Add(sumOf(t, conn, accountID))
	if !balance.Equal(expected) {
		t.Errorf("account %d balance = %s, transaction sum gives %s", accountID, balance, expected)
	}
}

func TestCreateAdjustsBalance(t *testing.T) {
	conn := openTestDB(t)
	accounts := NewAccountStore(conn)
	service := NewService(conn)

	accountID := mustCreateAccount(t, accounts, "Checking", "checking", "1000")

	_, err := service.Create(&Transaction{
		AccountID: accountID,
		Amount:    decimal.RequireFromString("-49.99"),
		Date:      "2026-03-01",
		Type:      TypeExpense,
		Category:  sql.NullString{String: "Groceries", Valid: true},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err = service.Create(&Transaction{
		AccountID: accountID,
		Amount:    decimal.RequireFromString("2500"),
		Date:      "2026-03-02",
		Type:      TypeIncome,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	balance := balanceOf(t, conn, accountID)
	if expected := decimal.RequireFromString("3450.01"); !balance.Equal(expected) {
		t.Errorf("balance = %s, expected %s", balance, expected)
	}
	assertInvariant(t, conn, accountID, "1000")
}

func TestCreateUnknownAccount(t *testing.T) {
	conn := openTestDB(t)
	service := NewService(conn)

	_, err := service.Create(&Transaction{
		AccountID: 42,
		Amount:    decimal.RequireFromString("-10"),
		Date:      "2026-03-01",
		Type:      TypeExpense,
	})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("Create() error = %v, expected ErrAccountNotFound", err)
	}

	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if count != 0 {
		t.Errorf("transactions after failed create = %d, expected 0", count)
	}
}

func TestCreateTransfer(t *testing.T) {
	conn := openTestDB(t)
	accounts := NewAccountStore(conn)
	service := NewService(conn)

	fromID := mustCreateAccount(t, accounts, "Checking", "checking", "500")
	toID := mustCreateAccount(t, accounts, "Savings", "savings", "0")

	err := service.CreateTransfer(Transfer{
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        decimal.RequireFromString("100"),
		Date:          "2026-03-05",
	})
	if err != nil {
		t.Fatalf("CreateTransfer() error = %v", err)
	}

	legs, err := service.GetFiltered(FilterOptions{Type: TypeTransfer})
	if err != nil {
		t.Fatalf("GetFiltered() error = %v", err)
	}
	if len(legs) != 2 {
		t.Fatalf("transfer legs = %d, expected 2", len(legs))
	}

	var fromLeg, toLeg *Transaction
	for i := range legs {
		switch legs[i].AccountID {
		case fromID:
			fromLeg = &legs[i]
		case toID:
			toLeg = &legs[i]
		}
	}
	if fromLeg == nil || toLeg == nil {
		t.Fatalf("legs not distributed across both accounts: %+v", legs)
	}

	if !fromLeg.Amount.Equal(decimal.RequireFromString("-100")) {
		t.Errorf("source leg amount = %s, expected -100", fromLeg.Amount)
	}
	if !toLeg.Amount.Equal(decimal.RequireFromString("100")) {
		t.Errorf("destination leg amount = %s, expected 100", toLeg.Amount)
	}
	if !fromLeg.TransferGroupID.Valid || fromLeg.TransferGroupID != toLeg.TransferGroupID {
		t.Errorf("legs do not share a transfer group: %v vs %v",
			fromLeg.TransferGroupID, toLeg.TransferGroupID)
	}
	if fromLeg.Payee.String != "Savings" {
		t.Errorf("source leg payee = %q, expected Savings", fromLeg.Payee.String)
	}
	if toLeg.Payee.String != "Checking" {
		t.Errorf("destination leg payee = %q, expected Checking", toLeg.Payee.String)
	}

	if balance := balanceOf(t, conn, fromID); !balance.Equal(decimal.RequireFromString("400")) {
		t.Errorf("source balance = %s, expected 400", balance)
	}
	if balance := balanceOf(t, conn, toID); !balance.Equal(decimal.RequireFromString("100")) {
		t.Errorf("destination balance = %s, expected 100", balance)
	}
}

func TestCreateTransferUnknownDestination(t *testing.T) {
	conn := openTestDB(t)
	accounts := NewAccountStore(conn)
	service := NewService(conn)

	fromID := mustCreateAccount(t, accounts, "Checking", "checking", "500")

	err := service.CreateTransfer(Transfer{
		FromAccountID: fromID,
		ToAccountID:   99,
		Amount:        decimal.RequireFromString("100"),
		Date:          "2026-03-05",
	})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("CreateTransfer() error = %v, expected ErrAccountNotFound", err)
	}

	// The whole transfer must roll back, including the first leg.
	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if count != 0 {
		t.Errorf("transactions after failed transfer = %d, expected 0", count)
	}
	if balance := balanceOf(t, conn, fromID); !balance.Equal(decimal.RequireFromString("500")) {
		t.Errorf("source balance = %s, expected unchanged 500", balance)
	}
}

func TestUpdateSameAccount(t *testing.T) {
	conn := openTestDB(t)
	accounts := NewAccountStore(conn)
	service := NewService(conn)

	accountID := mustCreateAccount(t, accounts, "Checking", "checking", "0")

	id, err := service.Create(&Transaction{
		AccountID: accountID,
		Amount:    decimal.RequireFromString("-50"),
		Date:      "2026-03-01",
		Type:      TypeExpense,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := service.Update(id, UpdateParams{
		AccountID: accountID,
		Amount:    decimal.RequireFromString("80"), // service normalizes the sign
		Date:      "2026-03-01",
		Type:      TypeExpense,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !found {
		t.Fatal("Update() found = false, expected true")
	}

	updated, err := service.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !updated.Amount.Equal(decimal.RequireFromString("-80")) {
		t.Errorf("amount = %s, expected -80", updated.Amount)
	}
	if balance := balanceOf(t, conn, accountID); !balance.Equal(decimal.RequireFromString("-80")) {
		t.Errorf("balance = %s, expected -80", balance)
	}
	assertInvariant(t, conn, accountID, "0")
}

func TestUpdateMovesAccount(t *testing.T) {
	conn := openTestDB(t)
	accounts := NewAccountStore(conn)
	service := NewService(conn)

	oldID := mustCreateAccount(t, accounts, "Checking", "checking", "0")
	newID := mustCreateAccount(t, accounts, "Credit", "credit", "0")

	id, err := service.Create(&Transaction{
		AccountID: oldID,
		Amount:    decimal.RequireFromString("-30"),
		Date:      "2026-03-01",
		Type:      TypeExpense,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := service.Update(id, UpdateParams{
		AccountID: newID,
		Amount:    decimal.RequireFromString("30"),
		Date:      "2026-03-01",
		Type:      TypeExpense,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !found {
		t.Fatal("Update() found = false, expected true")
	}

	if balance := balanceOf(t, conn, oldID); !balance.IsZero() {
		t.Errorf("old account balance = %s, expected 0", balance)
	}
	if balance := balanceOf(t, conn, newID); !balance.Equal(decimal.RequireFromString("-30")) {
		t.Errorf("new account balance = %s, expected -30", balance)
	}
	assertInvariant(t, conn, oldID, "0")
	assertInvariant(t, conn, newID, "0")
}

func TestUpdateTransferLegKeepsDirection(t *testing.T) {
	conn := openTestDB(t)
	accounts := NewAccountStore(conn)
	service := NewService(conn)

	fromID := mustCreateAccount(t, accounts, "Checking", "checking", "500")
	toID := mustCreateAccount(t, accounts, "Savings", "savings", "0")

	if err := service.CreateTransfer(Transfer{
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        decimal.RequireFromString("100"),
		Date:          "2026-03-05",
	}); err != nil {
		t.Fatalf("CreateTransfer() error = %v", err)
	}

	legs, err := service.GetFiltered(FilterOptions{AccountID: fromID, Type: TypeTransfer})
	if err != nil {
		t.Fatalf("GetFiltered() error = %v", err)
	}
	if len(legs) != 1 {
		t.Fatalf("source legs = %d, expected 1", len(legs))
	}

	found, err := service.Update(legs[0].ID, UpdateParams{
		AccountID:         fromID,
		Amount:            decimal.RequireFromString("150"),
		Date:              "2026-03-05",
		Type:              TypeTransfer,
		TransferAccountID: sql.NullInt64{Int64: toID, Valid: true},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !found {
		t.Fatal("Update() found = false, expected true")
	}

	updated, err := service.GetByID(legs[0].ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !updated.Amount.Equal(decimal.RequireFromString("-150")) {
		t.Errorf("source leg amount = %s, expected -150", updated.Amount)
	}
	if updated.Payee.String != "Savings" {
		t.Errorf("source leg payee = %q, expected Savings", updated.Payee.String)
	}
	if balance := balanceOf(t, conn, fromID); !balance.Equal(decimal.RequireFromString("350")) {
		t.Errorf("source balance = %s, expected 350", balance)
	}
}

func TestUpdateMissing(t *testing.T) {
	conn := openTestDB(t)
	service := NewService(conn)

	found, err := service.Update(9999, UpdateParams{
		AccountID: 1,
		Amount:    decimal.RequireFromString("10"),
		Date:      "2026-03-01",
		Type:      TypeExpense,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if found {
		t.Error("Update() found = true for missing id")
	}
}

func TestDeleteReversesBalance(t *testing.T) {
	conn := openTestDB(t)
	accounts := NewAccountStore(conn)
	service := NewService(conn)

	accountID := mustCreateAccount(t, accounts, "Checking", "checking", "200")

	id, err := service.Create(&Transaction{
		AccountID: accountID,
		Amount:    decimal.RequireFromString("-75.50"),
		Date:      "2026-03-01",
		Type:      TypeExpense,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, err := service.Delete(id)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !found {
		t.Fatal("Delete() found = false, expected true")
	}

	if balance := balanceOf(t, conn, accountID); !balance.Equal(decimal.RequireFromString("200")) {
		t.Errorf("balance = %s, expected 200", balance)
	}

	found, err = service.Delete(id)
	if err != nil {
		t.Fatalf("Delete() second call error = %v", err)
	}
	if found {
		t.Error("Delete() found = true for already deleted id")
	}
}

func TestDuplicateOccurrence(t *testing.T) {
	conn := openTestDB(t)
	accounts := NewAccountStore(conn)
	service := NewService(conn)

	accountID := mustCreateAccount(t, accounts, "Checking", "checking", "0")
	recurringID := sql.NullInt64{Int64: 7, Valid: true}

	occurrence := Transaction{
		AccountID:   accountID,
		Amount:      decimal.RequireFromString("-25"),
		Date:        "2026-03-01",
		Type:        TypeExpense,
		RecurringID: recurringID,
	}
	if _, err := service.Create(&occurrence); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	duplicate := occurrence
	duplicate.ID = 0
	_, err := service.Create(&duplicate)
	if !errors.Is(err, ErrDuplicateOccurrence) {
		t.Fatalf("Create() duplicate error = %v, expected ErrDuplicateOccurrence", err)
	}

	// The duplicate must not double the balance delta.
	if balance := balanceOf(t, conn, accountID); !balance.Equal(decimal.RequireFromString("-25")) {
		t.Errorf("balance = %s, expected -25", balance)
	}

	// Manual rows without a recurring id never collide.
	manual := Transaction{
		AccountID: accountID,
		Amount:    decimal.RequireFromString("-25"),
		Date:      "2026-03-01",
		Type:      TypeExpense,
	}
	if _, err := service.Create(&manual); err != nil {
		t.Fatalf("Create() manual row error = %v", err)
	}
	second := manual
	second.ID = 0
	if _, err := service.Create(&second); err != nil {
		t.Fatalf("Create() repeated manual row error = %v", err)
	}
}

func TestGetFiltered(t *testing.T) {
	conn := openTestDB(t)
	accounts := NewAccountStore(conn)
	service := NewService(conn)

	checkingID := mustCreateAccount(t, accounts, "Checking", "checking", "0")
	savingsID := mustCreateAccount(t, accounts, "Savings", "savings", "0")

	seed := []Transaction{
		{AccountID: checkingID, Amount: decimal.RequireFromString("-10"), Date: "2026-01-05", Type: TypeExpense, Category: sql.NullString{String: "Food", Valid: true}},
		{AccountID: checkingID, Amount: decimal.RequireFromString("-20"), Date: "2026-02-05", Type: TypeExpense, Category: sql.NullString{String: "Rent", Valid: true}},
		{AccountID: savingsID, Amount: decimal.RequireFromString("30"), Date: "2026-02-06", Type: TypeIncome},
	}
	for i := range seed {
		if _, err := service.Create(&seed[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := service.GetFiltered(FilterOptions{})
	if err != nil {
		t.Fatalf("GetFiltered() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("unfiltered count = %d, expected 3", len(all))
	}
	if all[0].Date != "2026-02-06" {
		t.Errorf("first row date = %s, expected newest first", all[0].Date)
	}

	tests := []struct {
		name     string
		opts     FilterOptions
		expected int
	}{
		{"by account", FilterOptions{AccountID: checkingID}, 2},
		{"by category", FilterOptions{Category: "Food"}, 1},
		{"by type", FilterOptions{Type: TypeIncome}, 1},
		{"by date from", FilterOptions{DateFrom: "2026-02-01"}, 2},
		{"with limit", FilterOptions{Limit: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.GetFiltered(tt.opts)
			if err != nil {
				t.Fatalf("GetFiltered() error = %v", err)
			}
			if len(got) != tt.expected {
				t.Errorf("count = %d, expected %d", len(got), tt.expected)
			}
		})
	}
}

func TestTotalBalance(t *testing.T) {
	conn := openTestDB(t)
	accounts := NewAccountStore(conn)

	mustCreateAccount(t, accounts, "Checking", "checking", "100.50")
	mustCreateAccount(t, accounts, "Savings", "savings", "900")
	mustCreateAccount(t, accounts, "Card", "credit", "-50")

	total, err := accounts.TotalBalance(nil)
	if err != nil {
		t.Fatalf("TotalBalance() error = %v", err)
	}
	if expected := decimal.RequireFromString("950.50"); !total.Equal(expected) {
		t.Errorf("TotalBalance(nil) = %s, expected %s", total, expected)
	}

	total, err = accounts.TotalBalance([]string{"checking", "savings"})
	if err != nil {
		t.Fatalf("TotalBalance() error = %v", err)
	}
	if expected := decimal.RequireFromString("1000.50"); !total.Equal(expected) {
		t.Errorf("TotalBalance(checking, savings) = %s, expected %s", total, expected)
	}
}
