package api

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dgallion1/budgetdesk/internal/narrative"
	"github.com/dgallion1/budgetdesk/internal/pipeline"
	"github.com/dgallion1/budgetdesk/internal/textextract"
	"github.com/go-chi/chi/v5"
)

// narrativeKey returns the aggregate key for the request. A "key" query
// parameter overrides the configured default.
func (s *Server) narrativeKey(r *http.Request) string {
	if k := strings.TrimSpace(r.URL.Query().Get("key")); k != "" {
		return k
	}
	return s.cfg.NarrativeKey
}

func (s *Server) handleGetNarrative(w http.ResponseWriter, r *http.Request) {
	doc, err := s.budget.GetNarrative(r.Context(), s.narrativeKey(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePutNarrative(w http.ResponseWriter, r *http.Request) {
	var n narrative.Narrative
	if !decodeJSON(w, r, &n) {
		return
	}
	doc, err := s.budget.SaveNarrative(r.Context(), s.narrativeKey(r), n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleNarrativeSource streams the original upload the narrative was last
// merged from.
func (s *Server) handleNarrativeSource(w http.ResponseWriter, r *http.Request) {
	doc, err := s.budget.GetNarrative(r.Context(), s.narrativeKey(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if doc.SourceKey == "" {
		jsonError(w, "narrative has no uploaded source", http.StatusNotFound)
		return
	}
	rc, err := s.blobs.Get(r.Context(), doc.SourceKey)
	if errors.Is(err, fs.ErrNotExist) {
		jsonError(w, "uploaded source is no longer stored", http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.SourceFile))
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Warn("stream narrative source", "key", doc.SourceKey, "error", err)
	}
}

func (s *Server) handleUploadNarrative(w http.ResponseWriter, r *http.Request) {
	// Limit total request size; allow 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !textextract.IsSupported(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type %q; supported: %s",
			filepath.Ext(filename), strings.Join(slices.Sorted(maps.Keys(textextract.SupportedExtensions)), ", ")),
			http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		jsonError(w, "file is empty", http.StatusBadRequest)
		return
	}

	key := s.narrativeKey(r)
	if v := strings.TrimSpace(r.FormValue("key")); v != "" {
		key = v
	}

	job := pipeline.NewJob(key, filename, data)
	if err := s.orchestrator.Submit(job); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/narrative/upload/%s", job.ID),
	})
}

func (s *Server) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func sanitizeFilename(name string) string {
	// Browsers on Windows may send the full client path.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
