// Package ledger implements the transfer-consistent transaction ledger:
// account storage, the balance maintainer and the transaction service.
//
// Every account carries a denormalized running balance. The invariant is
// that after any successful operation the balance equals the sum of the
// account's transaction amounts. All multi-step writes (insert plus
// balance adjustment, or the four writes of a transfer) commit as one
// SQLite transaction.
package ledger

import "errors"

// Type classifies a transaction.
type Type string

const (
	TypeIncome   Type = "income"
	TypeExpense  Type = "expense"
	TypeTransfer Type = "transfer"
)

var (
	// ErrAccountNotFound is returned when a referenced account id does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateOccurrence is returned when a recurring-spawned insert
	// collides with an already materialized occurrence for the same
	// definition, account and date. No balance delta is applied.
	ErrDuplicateOccurrence = errors.New("occurrence already materialized")
)
