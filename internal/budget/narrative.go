package budget

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dgallion1/budgetdesk/internal/narrative"
	"github.com/microcosm-cc/bluemonday"
)

// NarrativeDoc is the stored narrative aggregate. There is one per key; the
// key names the tenant or planning cycle that owns it.
type NarrativeDoc struct {
	Key string `json:"key"`
	narrative.Narrative
	SourceFile string    `json:"source_file,omitempty"`
	SourceKey  string    `json:"source_key,omitempty"`
	SourceHash string    `json:"source_hash,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NarrativeSource records which upload a merged narrative came from.
type NarrativeSource struct {
	File string
	Key  string
	Hash string
}

var plainText = bluemonday.StrictPolicy()

// sanitize strips any markup and returns plain text. Entity-encoded markup
// decodes into tags on the first pass, so the policy is re-applied until the
// text stops changing.
func sanitize(s string) string {
	for range 5 {
		out := html.UnescapeString(plainText.Sanitize(s))
		if out == s {
			return strings.TrimSpace(out)
		}
		s = out
	}
	// Still changing: keep the escaped form.
	return strings.TrimSpace(plainText.Sanitize(s))
}

// GetNarrative loads the narrative for key. A missing narrative is returned
// as an empty document rather than an error.
func (s *Service) GetNarrative(ctx context.Context, key string) (NarrativeDoc, error) {
	var doc NarrativeDoc
	err := s.store.Get(ctx, CollectionNarratives, key, &doc)
	if errors.Is(err, ErrNotFound) {
		return NarrativeDoc{Key: key}, nil
	}
	if err != nil {
		return NarrativeDoc{}, fmt.Errorf("load narrative: %w", err)
	}
	doc.Key = key
	return doc, nil
}

// SaveNarrative stores hand-edited narrative text, stripping markup.
func (s *Service) SaveNarrative(ctx context.Context, key string, n narrative.Narrative) (NarrativeDoc, error) {
	n = narrative.Narrative{
		Context:       sanitize(n.Context),
		Challenges:    sanitize(n.Challenges),
		Opportunities: sanitize(n.Opportunities),
	}
	return s.mergeNarrative(ctx, key, n, map[string]any{})
}

// MergeNarrative writes parsed narrative sections from an uploaded document
// into the stored narrative and stamps the update time.
func (s *Service) MergeNarrative(ctx context.Context, key string, n narrative.Narrative, src NarrativeSource) (NarrativeDoc, error) {
	return s.mergeNarrative(ctx, key, n, map[string]any{
		"source_file": src.File,
		"source_key":  src.Key,
		"source_hash": src.Hash,
	})
}

func (s *Service) mergeNarrative(ctx context.Context, key string, n narrative.Narrative, fields map[string]any) (NarrativeDoc, error) {
	if key == "" {
		return NarrativeDoc{}, &ValidationError{Problems: []string{"narrative key is required"}}
	}
	fields["key"] = key
	fields["context"] = n.Context
	fields["challenges"] = n.Challenges
	fields["opportunities"] = n.Opportunities
	fields["updated_at"] = s.now()

	if err := s.store.Merge(ctx, CollectionNarratives, key, fields); err != nil {
		return NarrativeDoc{}, fmt.Errorf("merge narrative: %w", err)
	}
	return s.GetNarrative(ctx, key)
}
