package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/budgetdesk/internal/narrative"
)

// JobStatus represents the state of a narrative upload job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusStoring    JobStatus = "storing"
	StatusExtracting JobStatus = "extracting"
	StatusParsing    JobStatus = "parsing"
	StatusMerging    JobStatus = "merging"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusNoSections JobStatus = "no_sections"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Terminal reports whether the job will not change again.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusNoSections, StatusDupSkipped:
		return true
	}
	return false
}

// Job tracks the state of a single narrative upload.
type Job struct {
	mu sync.Mutex

	ID           string `json:"job_id"`
	NarrativeKey string `json:"narrative_key"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	BlobKey     string    `json:"blob_key,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	result   *narrative.Narrative
	errors   []string
}

// NewJob creates a queued job for an uploaded file.
func NewJob(narrativeKey, filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:           ContentHashHex([]byte(fmt.Sprintf("%s-%s-%d", narrativeKey, filename, now.UnixNano())))[:20],
		NarrativeKey: narrativeKey,
		Status:       StatusQueued,
		Phase:        "queued",
		Filename:     filename,
		CreatedAt:    now,
		UpdatedAt:    now,
		fileData:     data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes finished jobs not updated within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Terminal() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
	if status.Terminal() {
		// The upload bytes are no longer needed once the job is done.
		j.fileData = nil
	}
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetBlob records where the original upload was stored.
func (j *Job) SetBlob(key string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.BlobKey = key
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the extracted text.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
	j.UpdatedAt = time.Now()
}

// SetResult records the parsed narrative.
func (j *Job) SetResult(n narrative.Narrative) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = &n
	j.UpdatedAt = time.Now()
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID           string               `json:"job_id"`
	NarrativeKey string               `json:"narrative_key"`
	Status       JobStatus            `json:"status"`
	Phase        string               `json:"phase"`
	Filename     string               `json:"filename"`
	BlobKey      string               `json:"blob_key,omitempty"`
	ContentHash  string               `json:"content_hash,omitempty"`
	Result       *narrative.Narrative `json:"result,omitempty"`
	Errors       []string             `json:"errors"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.errors))
	copy(errs, j.errors)
	var result *narrative.Narrative
	if j.result != nil {
		r := *j.result
		result = &r
	}
	return JobSnapshot{
		ID:           j.ID,
		NarrativeKey: j.NarrativeKey,
		Status:       j.Status,
		Phase:        j.Phase,
		Filename:     j.Filename,
		BlobKey:      j.BlobKey,
		ContentHash:  j.ContentHash,
		Result:       result,
		Errors:       errs,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
