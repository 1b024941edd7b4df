// Package docstore persists JSON documents grouped into named collections.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Record is a stored document as returned by List.
type Record struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Decode unmarshals the record payload into out.
func (r Record) Decode(out any) error {
	return json.Unmarshal(r.Data, out)
}

// Store is a document-oriented datastore.
type Store interface {
	// Get loads the document into out. Returns ErrNotFound if absent.
	Get(ctx context.Context, collection, id string, out any) error
	// Put replaces the whole document.
	Put(ctx context.Context, collection, id string, doc any) error
	// Merge sets the given top-level fields, creating the document if needed.
	Merge(ctx context.Context, collection, id string, fields map[string]any) error
	// Delete removes the document. Returns ErrNotFound if absent.
	Delete(ctx context.Context, collection, id string) error
	// List returns every document in the collection ordered by id.
	List(ctx context.Context, collection string) ([]Record, error)
	Close() error
}

// mergeFields applies fields onto an existing JSON object.
func mergeFields(existing []byte, fields map[string]any) ([]byte, error) {
	doc := map[string]any{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, fmt.Errorf("decode existing document: %w", err)
		}
	}
	for k, v := range fields {
		doc[k] = v
	}
	return json.Marshal(doc)
}

func validKey(collection, id string) error {
	if collection == "" {
		return errors.New("collection is required")
	}
	if id == "" {
		return errors.New("id is required")
	}
	return nil
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
}
