package docstore

import (
	"context"
	"errors"
	"testing"
)

type item struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

func openMemory(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_PutGet(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	if err := s.Put(ctx, "operating", "a", item{Name: "supplies", Amount: "10.00"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	var got item
	if err := s.Get(ctx, "operating", "a", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "supplies" || got.Amount != "10.00" {
		t.Errorf("unexpected document: %+v", got)
	}

	// Put replaces the whole document.
	if err := s.Put(ctx, "operating", "a", item{Name: "travel"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got = item{}
	if err := s.Get(ctx, "operating", "a", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "travel" || got.Amount != "" {
		t.Errorf("expected replaced document, got %+v", got)
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := openMemory(t)
	var got item
	err := s.Get(context.Background(), "operating", "nope", &got)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_MergeCreatesAndUpdates(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	if err := s.Merge(ctx, "narratives", "primary", map[string]any{"context": "c1"}); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if err := s.Merge(ctx, "narratives", "primary", map[string]any{"challenges": "h1"}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	var got map[string]string
	if err := s.Get(ctx, "narratives", "primary", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["context"] != "c1" || got["challenges"] != "h1" {
		t.Errorf("expected merged fields, got %v", got)
	}
}

func TestSQLiteStore_DeleteAndList(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		if err := s.Put(ctx, "positions", id, item{Name: id}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	if err := s.Put(ctx, "other", "z", item{Name: "z"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := s.Delete(ctx, "positions", "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "positions", "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	recs, err := s.List(ctx, "positions")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ID != "a" || recs[1].ID != "c" {
		t.Errorf("expected ids [a c], got [%s %s]", recs[0].ID, recs[1].ID)
	}
	var first item
	if err := recs[0].Decode(&first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Name != "a" {
		t.Errorf("expected name a, got %q", first.Name)
	}
	if recs[0].UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}
}

func TestSQLiteStore_RejectsEmptyKey(t *testing.T) {
	s := openMemory(t)
	if err := s.Put(context.Background(), "operating", "", item{}); err == nil {
		t.Error("expected error for empty id")
	}
	if err := s.Merge(context.Background(), "", "x", nil); err == nil {
		t.Error("expected error for empty collection")
	}
}
