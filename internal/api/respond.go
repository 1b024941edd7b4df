package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgallion1/budgetdesk/internal/budget"
	"github.com/dgallion1/budgetdesk/internal/pipeline"
	"github.com/dgallion1/budgetdesk/internal/suggest"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps service errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *budget.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "validation failed",
			"problems": verr.Problems,
		})
	case errors.Is(err, budget.ErrNotFound):
		jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, suggest.ErrDisabled), errors.Is(err, pipeline.ErrQueueFull):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

// parseFilter reads the department and year query parameters.
func parseFilter(r *http.Request) (budget.Filter, error) {
	q := r.URL.Query()
	f := budget.Filter{Department: q.Get("department")}
	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("year must be a number: %q", v)
		}
		f.FiscalYear = year
	}
	return f, nil
}
