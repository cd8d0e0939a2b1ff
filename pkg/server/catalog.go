package server

import (
	"encoding/json"
	"net/http"
	"time"
)

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.GetAll()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	created, err := s.categories.Create(req.Name)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !created {
		writeJSONError(w, http.StatusConflict, "category already exists")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"created": true})
}

type payeeJSON struct {
	Name      string `json:"name"`
	IsAccount bool   `json:"is_account"`
	AccountID *int64 `json:"account_id,omitempty"`
}

func (s *Server) listPayees(w http.ResponseWriter, r *http.Request) {
	payees, err := s.payees.GetAll()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]payeeJSON, 0, len(payees))
	for _, p := range payees {
		out = append(out, payeeJSON{
			Name:      p.Name,
			IsAccount: p.IsAccount,
			AccountID: int64Ptr(p.AccountID),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createPayee(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	created, err := s.payees.Create(req.Name)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !created {
		writeJSONError(w, http.StatusConflict, "payee already exists")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"created": true})
}

type projectJSON struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type projectStatsJSON struct {
	projectJSON
	TotalSpent       float64 `json:"total_spent"`
	TotalEarned      float64 `json:"total_earned"`
	TransactionCount int     `json:"transaction_count"`
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	stats, err := s.projects.GetAllWithStats()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]projectStatsJSON, 0, len(stats))
	for _, ps := range stats {
		out = append(out, projectStatsJSON{
			projectJSON: projectJSON{
				ID:          ps.ID,
				Name:        ps.Name,
				Description: strPtr(ps.Description),
				CreatedAt:   ps.CreatedAt,
			},
			TotalSpent:       ps.TotalSpent,
			TotalEarned:      ps.TotalEarned,
			TransactionCount: ps.TransactionCount,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type projectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	id, err := s.projects.Create(req.Name, optString(req.Description))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	found, err := s.projects.Update(id, req.Name, optString(req.Description))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeJSONError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	found, err := s.projects.Delete(id)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeJSONError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) projectAnalytics(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid project id")
		return
	}

	project, err := s.projects.GetByID(id)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if project == nil {
		writeJSONError(w, http.StatusNotFound, "project not found")
		return
	}

	breakdown, err := s.projects.CategoryBreakdown(id)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type categoryTotalJSON struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
		Count    int     `json:"count"`
	}
	categories := make([]categoryTotalJSON, 0, len(breakdown))
	for _, ct := range breakdown {
		categories = append(categories, categoryTotalJSON{ct.Category, ct.Total, ct.Count})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"project": projectJSON{
			ID:          project.ID,
			Name:        project.Name,
			Description: strPtr(project.Description),
			CreatedAt:   project.CreatedAt,
		},
		"categories": categories,
	})
}
