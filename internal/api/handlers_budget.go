package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgallion1/budgetdesk/internal/budget"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListOperating(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	items, err := s.budget.ListOperating(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleCreateOperating(w http.ResponseWriter, r *http.Request) {
	var item budget.OperatingItem
	if !decodeJSON(w, r, &item) {
		return
	}
	item, err := s.budget.CreateOperating(r.Context(), item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleGetOperating(w http.ResponseWriter, r *http.Request) {
	item, err := s.budget.GetOperating(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateOperating(w http.ResponseWriter, r *http.Request) {
	var item budget.OperatingItem
	if !decodeJSON(w, r, &item) {
		return
	}
	item.ID = chi.URLParam(r, "id")
	item, err := s.budget.UpdateOperating(r.Context(), item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteOperating(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.DeleteOperating(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportOperating(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	items, err := s.budget.ListOperating(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCSVHeaders(w, "operating", f)
	if err := budget.WriteOperatingCSV(w, items); err != nil {
		s.log.Error("write operating csv", "error", err)
	}
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	items, err := s.budget.ListPositions(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	var item budget.PositionItem
	if !decodeJSON(w, r, &item) {
		return
	}
	item, err := s.budget.CreatePosition(r.Context(), item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	item, err := s.budget.GetPosition(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	var item budget.PositionItem
	if !decodeJSON(w, r, &item) {
		return
	}
	item.ID = chi.URLParam(r, "id")
	item, err := s.budget.UpdatePosition(r.Context(), item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeletePosition(w http.ResponseWriter, r *http.Request) {
	if err := s.budget.DeletePosition(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportPositions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	items, err := s.budget.ListPositions(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCSVHeaders(w, "positions", f)
	if err := budget.WritePositionCSV(w, items); err != nil {
		s.log.Error("write positions csv", "error", err)
	}
}

func setCSVHeaders(w http.ResponseWriter, kind string, f budget.Filter) {
	name := kind
	if f.Department != "" {
		name += "-" + budget.Slugify(f.Department)
	}
	if f.FiscalYear != 0 {
		name += fmt.Sprintf("-%d", f.FiscalYear)
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))
}

func (s *Server) handleListEnvelopes(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	envs, err := s.budget.ListEnvelopes(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": envs, "count": len(envs)})
}

func (s *Server) handleSaveEnvelope(w http.ResponseWriter, r *http.Request) {
	var env budget.Envelope
	if !decodeJSON(w, r, &env) {
		return
	}
	env, err := s.budget.SaveEnvelope(r.Context(), env)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// departmentYear reads the {department}/{year} path parameters.
func departmentYear(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		jsonError(w, "year must be a number", http.StatusBadRequest)
		return "", 0, false
	}
	return chi.URLParam(r, "department"), year, true
}

func (s *Server) handleGetEnvelope(w http.ResponseWriter, r *http.Request) {
	dept, year, ok := departmentYear(w, r)
	if !ok {
		return
	}
	env, err := s.budget.GetEnvelope(r.Context(), dept, year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleDeleteEnvelope(w http.ResponseWriter, r *http.Request) {
	dept, year, ok := departmentYear(w, r)
	if !ok {
		return
	}
	if err := s.budget.DeleteEnvelope(r.Context(), dept, year); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	dept, year, ok := departmentYear(w, r)
	if !ok {
		return
	}
	sum, err := s.budget.Summarize(r.Context(), dept, year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": sum,
		"display": map[string]string{
			"envelope":  budget.FormatCurrency(sum.Envelope),
			"operating": budget.FormatCurrency(sum.Operating),
			"positions": budget.FormatCurrency(sum.Positions),
			"allocated": budget.FormatCurrency(sum.Allocated),
			"remaining": budget.FormatCurrency(sum.Remaining),
		},
	})
}
