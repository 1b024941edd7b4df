package api

import (
	"net/http"

	"github.com/dgallion1/budgetdesk/internal/suggest"
)

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if !s.claude.Enabled() {
		jsonError(w, suggest.ErrDisabled.Error(), http.StatusServiceUnavailable)
		return
	}

	var req suggest.Request
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Fill in the stored narrative so the model sees the other sections.
	if req.Narrative.Empty() {
		doc, err := s.budget.GetNarrative(r.Context(), s.narrativeKey(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		req.Narrative = doc.Narrative
	}
	if req.CurrentText == "" {
		req.CurrentText = req.Narrative.Field(req.Section)
	}

	text, err := s.claude.Suggest(r.Context(), req)
	if err != nil {
		s.log.Error("suggestion failed", "section", req.Section, "error", err)
		jsonError(w, "suggestion failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"section":    req.Section,
		"suggestion": text,
		"model":      s.claude.Model(),
	})
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.claude == nil || s.claude.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model":   s.claude.Model(),
		"enabled": s.claude.Enabled(),
		"stats":   s.claude.Stats.Snapshot(),
	})
}
