package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/ledger"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/recurring"
)

type recurringJSON struct {
	ID              int64           `json:"id"`
	AccountID       int64           `json:"account_id"`
	AccountName     string          `json:"account_name"`
	CurrentAmount   decimal.Decimal `json:"current_amount"`
	Type            string          `json:"type"`
	Payee           *string         `json:"payee,omitempty"`
	Category        *string         `json:"category,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	Project         *string         `json:"project,omitempty"`
	Frequency       string          `json:"frequency"`
	StartDate       string          `json:"start_date"`
	EndDate         *string         `json:"end_date,omitempty"`
	LastProcessed   string          `json:"last_processed"`
	IncrementAmount decimal.Decimal `json:"increment_amount"`
	NextDate        string          `json:"next_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toRecurringJSON(d recurring.Definition) recurringJSON {
	return recurringJSON{
		ID:              d.ID,
		AccountID:       d.AccountID,
		AccountName:     d.AccountName,
		CurrentAmount:   d.CurrentAmount,
		Type:            string(d.Type),
		Payee:           strPtr(d.Payee),
		Category:        strPtr(d.Category),
		Notes:           strPtr(d.Notes),
		Project:         strPtr(d.Project),
		Frequency:       string(d.Frequency),
		StartDate:       d.StartDate,
		EndDate:         strPtr(d.EndDate),
		LastProcessed:   d.LastProcessed,
		IncrementAmount: d.IncrementAmount,
		NextDate:        d.NextDate,
		CreatedAt:       d.CreatedAt,
	}
}

func (s *Server) listRecurring(w http.ResponseWriter, r *http.Request) {
	defs, err := s.recurring.GetAllActive()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]recurringJSON, 0, len(defs))
	for _, d := range defs {
		out = append(out, toRecurringJSON(d))
	}
	writeJSON(w, http.StatusOK, out)
}

type createRecurringRequest struct {
	AccountID       int64           `json:"account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Type            string          `json:"type"`
	Payee           *string         `json:"payee"`
	Category        *string         `json:"category"`
	Notes           *string         `json:"notes"`
	Project         *string         `json:"project"`
	Frequency       string          `json:"frequency"`
	StartDate       string          `json:"start_date"`
	EndDate         *string         `json:"end_date"`
	IncrementAmount decimal.Decimal `json:"increment_amount"`
}

func (s *Server) createRecurring(w http.ResponseWriter, r *http.Request) {
	var req createRecurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AccountID == 0 || req.Type == "" || req.Frequency == "" || req.StartDate == "" {
		writeJSONError(w, http.StatusBadRequest, "account_id, type, frequency and start_date are required")
		return
	}
	if !recurring.Frequency(req.Frequency).Valid() {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid frequency %q", req.Frequency))
		return
	}

	id, err := s.recurring.Create(recurring.Definition{
		AccountID:       req.AccountID,
		CurrentAmount:   req.Amount,
		Type:            ledger.Type(req.Type),
		Payee:           optString(req.Payee),
		Category:        optString(req.Category),
		Notes:           optString(req.Notes),
		Project:         optString(req.Project),
		Frequency:       recurring.Frequency(req.Frequency),
		StartDate:       req.StartDate,
		EndDate:         optString(req.EndDate),
		IncrementAmount: req.IncrementAmount,
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) deactivateRecurring(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid recurring id")
		return
	}

	if err := s.recurring.Deactivate(id); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deactivated": true})
}

func (s *Server) processRecurring(w http.ResponseWriter, r *http.Request) {
	s.processMu.Lock()
	defer s.processMu.Unlock()

	count, err := s.recurring.ProcessDue()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"processed": count})
}
