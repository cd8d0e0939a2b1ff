package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/ledger"
)

type transactionJSON struct {
	ID              int64           `json:"id"`
	AccountID       int64           `json:"account_id"`
	AccountName     string          `json:"account_name,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Date            string          `json:"date"`
	Type            string          `json:"type"`
	Payee           *string         `json:"payee,omitempty"`
	Category        *string         `json:"category,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	Project         *string         `json:"project,omitempty"`
	RecurringID     *int64          `json:"recurring_id,omitempty"`
	TransferGroupID *string         `json:"transfer_group_id,omitempty"`
	Frequency       *string         `json:"frequency,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toTransactionJSON(t ledger.Transaction) transactionJSON {
	return transactionJSON{
		ID:              t.ID,
		AccountID:       t.AccountID,
		AccountName:     t.AccountName,
		Amount:          t.Amount,
		Date:            t.Date,
		Type:            string(t.Type),
		Payee:           strPtr(t.Payee),
		Category:        strPtr(t.Category),
		Notes:           strPtr(t.Notes),
		Project:         strPtr(t.Project),
		RecurringID:     int64Ptr(t.RecurringID),
		TransferGroupID: strPtr(t.TransferGroupID),
		Frequency:       strPtr(t.Frequency),
		CreatedAt:       t.CreatedAt,
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := ledger.FilterOptions{
		Category: q.Get("category"),
		Type:     ledger.Type(q.Get("type")),
		DateFrom: q.Get("date_from"),
	}
	if v := q.Get("account_id"); v != "" {
		opts.AccountID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := q.Get("limit"); v != "" {
		opts.Limit, _ = strconv.Atoi(v)
	}

	transactions, err := s.ledger.GetFiltered(opts)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]transactionJSON, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type createTransactionRequest struct {
	AccountID int64           `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	Type      string          `json:"type"`
	Payee     *string         `json:"payee"`
	Category  *string         `json:"category"`
	Notes     *string         `json:"notes"`
	Project   *string         `json:"project"`
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AccountID == 0 || req.Date == "" || req.Type == "" {
		writeJSONError(w, http.StatusBadRequest, "account_id, date and type are required")
		return
	}

	// The route layer owns sign normalization; the ledger stores the
	// amount exactly as given.
	amount := req.Amount
	switch ledger.Type(req.Type) {
	case ledger.TypeExpense:
		amount = amount.Abs().Neg()
	case ledger.TypeIncome:
		amount = amount.Abs()
	}

	id, err := s.ledger.Create(&ledger.Transaction{
		AccountID: req.AccountID,
		Amount:    amount,
		Date:      req.Date,
		Type:      ledger.Type(req.Type),
		Payee:     optString(req.Payee),
		Category:  optString(req.Category),
		Notes:     optString(req.Notes),
		Project:   optString(req.Project),
	})
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			writeJSONError(w, http.StatusNotFound, "account not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type createTransferRequest struct {
	FromAccountID int64           `json:"from_account_id"`
	ToAccountID   int64           `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
	Category      *string         `json:"category"`
	Notes         *string         `json:"notes"`
	Project       *string         `json:"project"`
}

func (s *Server) createTransfer(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FromAccountID == 0 || req.ToAccountID == 0 || req.Date == "" {
		writeJSONError(w, http.StatusBadRequest, "from_account_id, to_account_id and date are required")
		return
	}

	err := s.ledger.CreateTransfer(ledger.Transfer{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		Date:          req.Date,
		Category:      optString(req.Category),
		Notes:         optString(req.Notes),
		Project:       optString(req.Project),
	})
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			writeJSONError(w, http.StatusNotFound, "account not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"created": true})
}

type updateTransactionRequest struct {
	AccountID         int64           `json:"account_id"`
	Amount            decimal.Decimal `json:"amount"`
	Date              string          `json:"date"`
	Type              string          `json:"type"`
	Payee             *string         `json:"payee"`
	Category          *string         `json:"category"`
	Notes             *string         `json:"notes"`
	Project           *string         `json:"project"`
	TransferAccountID *int64          `json:"transfer_account_id"`
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req updateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var transferAccountID sql.NullInt64
	if req.TransferAccountID != nil {
		transferAccountID = sql.NullInt64{Int64: *req.TransferAccountID, Valid: true}
	}

	found, err := s.ledger.Update(id, ledger.UpdateParams{
		AccountID:         req.AccountID,
		Amount:            req.Amount,
		Date:              req.Date,
		Type:              ledger.Type(req.Type),
		Payee:             optString(req.Payee),
		Category:          optString(req.Category),
		Notes:             optString(req.Notes),
		Project:           optString(req.Project),
		TransferAccountID: transferAccountID,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			writeJSONError(w, http.StatusNotFound, "account not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeJSONError(w, http.StatusNotFound, "transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	found, err := s.ledger.Delete(id)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeJSONError(w, http.StatusNotFound, "transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
