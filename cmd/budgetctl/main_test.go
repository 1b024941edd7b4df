package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/budgetdesk/internal/narrative"
	"github.com/google/go-cmp/cmp"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "narrative.md")
	content := "# Budget narrative\n\n## Context\n\nPopulation grew.\n\n## Opportunities: Shared services\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "parse", path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var got narrative.Narrative
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	want := narrative.Narrative{Context: "Population grew.", Opportunities: "Shared services"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("narrative mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCommand_NoSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("nothing here\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "parse", path)
	if err == nil || !strings.Contains(err.Error(), "no Context") {
		t.Errorf("expected no-sections error, got %v", err)
	}
}

func TestExportAndSummary_EmptyStore(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "budget.db"))
	t.Setenv("BLOB_DIR", filepath.Join(dir, "blobs"))

	out, err := execute(t, "export", "operating", "--department", "Parks")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(out, "ID,Department,Fiscal Year,Account") {
		t.Errorf("expected csv header, got %q", out)
	}

	out, err = execute(t, "summary", "Parks", "2026")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out, "(none set)") || !strings.Contains(out, "$0.00") {
		t.Errorf("unexpected summary output %q", out)
	}

	if _, err := execute(t, "export", "invoices"); err == nil {
		t.Error("expected error for unknown export kind")
	}
}
