package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/budgetdesk/internal/blobstore"
	"github.com/dgallion1/budgetdesk/internal/budget"
	"github.com/dgallion1/budgetdesk/internal/narrative"
	"github.com/dgallion1/budgetdesk/internal/notify"
	"github.com/dgallion1/budgetdesk/internal/textextract"
)

// Notifier delivers a notice after a narrative changes.
type Notifier interface {
	Notify(ctx context.Context, msg notify.Message) error
}

// noSectionsMessage is surfaced to the uploader when nothing was recognised.
const noSectionsMessage = "no Context, Challenges or Opportunities headings were found; " +
	"start each section on its own line with its heading, e.g. \"Context: ...\""

// Worker processes a single narrative upload job.
type Worker struct {
	blobs    *blobstore.Store
	budget   *budget.Service
	notifier Notifier
	log      *slog.Logger
	extract  textextract.Options
}

func NewWorker(blobs *blobstore.Store, svc *budget.Service, notifier Notifier, log *slog.Logger, opts textextract.Options) *Worker {
	return &Worker{
		blobs:    blobs,
		budget:   svc,
		notifier: notifier,
		log:      log,
		extract:  opts,
	}
}

// Process runs the upload pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "narrative_key", job.NarrativeKey, "filename", job.Filename)
	data := job.FileData()

	// Phase 1: keep the original upload.
	job.SetStatus(StatusStoring, "storing original")
	obj, err := w.blobs.Put(ctx, blobstore.UploadKey(job.Filename), bytes.NewReader(data))
	if err != nil {
		w.fail(log, job, "storing original", fmt.Errorf("store upload: %w", err))
		return
	}
	job.SetBlob(obj.Key)

	// Phase 2: extract plain text.
	job.SetStatus(StatusExtracting, "extracting text")
	ex, err := textextract.ForFile(job.Filename, w.extract)
	if err != nil {
		w.fail(log, job, "extracting text", err)
		return
	}
	text, err := ex.Extract(bytes.NewReader(data))
	if err != nil {
		w.fail(log, job, "extracting text", fmt.Errorf("extract: %w", err))
		return
	}
	job.SetContentHash(ContentHashHex([]byte(text)))

	// Phase 3: parse sections.
	job.SetStatus(StatusParsing, "parsing sections")
	parsed := narrative.Parse(text)
	job.SetResult(parsed)
	if parsed.Empty() {
		log.Warn("no narrative sections found", "text_bytes", len(text))
		w.discardBlob(ctx, log, job)
		job.AddError(noSectionsMessage)
		job.SetStatus(StatusNoSections, "parsing sections")
		return
	}

	// Phase 3.5: dedup against the stored narrative.
	current, err := w.budget.GetNarrative(ctx, job.NarrativeKey)
	if err != nil {
		log.Warn("dedup check failed, proceeding", "error", err)
	} else if current.SourceHash == job.Snapshot().ContentHash && current.Narrative == parsed {
		log.Info("narrative unchanged, skipping")
		w.discardBlob(ctx, log, job)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 4: merge into the stored narrative.
	job.SetStatus(StatusMerging, "merging narrative")
	snap := job.Snapshot()
	if _, err := w.budget.MergeNarrative(ctx, job.NarrativeKey, parsed, budget.NarrativeSource{
		File: job.Filename,
		Key:  snap.BlobKey,
		Hash: snap.ContentHash,
	}); err != nil {
		w.fail(log, job, "merging narrative", err)
		return
	}
	log.Info("narrative merged",
		"context_chars", len(parsed.Context),
		"challenges_chars", len(parsed.Challenges),
		"opportunities_chars", len(parsed.Opportunities),
	)

	if w.notifier != nil {
		msg := notify.Message{
			Subject: fmt.Sprintf("Budget narrative %q updated from %s", job.NarrativeKey, job.Filename),
			Body:    summarize(parsed),
		}
		if err := w.notifier.Notify(ctx, msg); err != nil {
			log.Warn("notify failed", "error", err)
		}
	}

	job.SetStatus(StatusCompleted, "done")
}

// discardBlob removes the stored original of an upload that changed nothing.
func (w *Worker) discardBlob(ctx context.Context, log *slog.Logger, job *Job) {
	key := job.Snapshot().BlobKey
	if key == "" {
		return
	}
	if err := w.blobs.Delete(ctx, key); err != nil {
		log.Warn("discard upload failed", "blob_key", key, "error", err)
		return
	}
	job.SetBlob("")
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase string, err error) {
	log.Error("upload failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}

// summarize lists each section with its first line.
func summarize(n narrative.Narrative) string {
	var buf bytes.Buffer
	for _, s := range narrative.Sections {
		text := n.Field(s)
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i] + " ..."
		}
		if text == "" {
			text = "(empty)"
		}
		fmt.Fprintf(&buf, "%s: %s\n", s, text)
	}
	return buf.String()
}
