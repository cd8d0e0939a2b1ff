package server

import (
	"net/http"
	"strings"

	"github.com/shunichi-ikebuchi/moneytrack/pkg/analytics"
)

// filterFromQuery reads the shared reporting filter parameters.
func filterFromQuery(r *http.Request) analytics.Filter {
	q := r.URL.Query()
	f := analytics.Filter{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}
	if v := q.Get("account_types"); v != "" {
		f.AccountTypes = strings.Split(v, ",")
	}
	return f
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.reporter.Stats(filterFromQuery(r))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{
		"income":   stats.Income,
		"expenses": stats.Expenses,
		"net":      stats.Net,
	})
}

func (s *Server) categorySpending(w http.ResponseWriter, r *http.Request) {
	spending, err := s.reporter.CategorySpending(filterFromQuery(r))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type entry struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}
	out := make([]entry, 0, len(spending))
	for _, cs := range spending {
		out = append(out, entry{cs.Category, cs.Total})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) monthlyTrend(w http.ResponseWriter, r *http.Request) {
	trend, err := s.reporter.MonthlyTrend(filterFromQuery(r))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type point struct {
		Month       string  `json:"month"`
		Income      float64 `json:"income"`
		Expenses    float64 `json:"expenses"`
		Savings     float64 `json:"savings"`
		Investments float64 `json:"investments"`
	}
	out := make([]point, 0, len(trend))
	for _, mp := range trend {
		out = append(out, point{mp.Month, mp.Income, mp.Expenses, mp.Savings, mp.Investments})
	}
	writeJSON(w, http.StatusOK, out)
}
