package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/budgetdesk/internal/narrative"
)

func init() {
	backoffBase = time.Millisecond
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSuggest_Success(t *testing.T) {
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "key" {
			t.Errorf("expected api key header")
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write([]byte(`{"content":[{"type":"text","text":"  Demand for services grew.  "}]}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("key", "test-model", discardLogger()).WithBaseURL(srv.URL)
	text, err := c.Suggest(context.Background(), Request{
		Section:    "context",
		Department: "Parks",
		Narrative:  narrative.Narrative{Challenges: "Aging playgrounds"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Demand for services grew." {
		t.Errorf("expected trimmed text, got %q", text)
	}
	if gotReq.Model != "test-model" || gotReq.System == "" {
		t.Errorf("unexpected request: %+v", gotReq)
	}
	if !strings.Contains(gotReq.Messages[0].Content, "Aging playgrounds") {
		t.Errorf("expected other sections in prompt, got %q", gotReq.Messages[0].Content)
	}
	if snap := c.Stats.Snapshot(); snap.Calls != 1 || snap.Failures != 0 {
		t.Errorf("expected one successful call recorded, got %+v", snap)
	}
}

func TestSuggest_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`rate limited`))
			return
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("key", "m", discardLogger()).WithBaseURL(srv.URL)
	text, err := c.Suggest(context.Background(), Request{Section: narrative.Challenges})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "ok" || calls.Load() != 3 {
		t.Errorf("expected success on third call, got %q after %d calls", text, calls.Load())
	}
}

func TestSuggest_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClaudeClient("key", "m", discardLogger()).WithBaseURL(srv.URL)
	_, err := c.Suggest(context.Background(), Request{Section: narrative.Opportunities})
	if !IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
	if calls.Load() != MaxRetries {
		t.Errorf("expected %d calls, got %d", MaxRetries, calls.Load())
	}
}

func TestSuggest_PermanentErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("key", "m", discardLogger()).WithBaseURL(srv.URL)
	if _, err := c.Suggest(context.Background(), Request{Section: narrative.Context}); err == nil || IsRetryable(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call, got %d", calls.Load())
	}
}

func TestSuggest_DisabledAndInvalid(t *testing.T) {
	c := NewClaudeClient("", "m", discardLogger())
	if _, err := c.Suggest(context.Background(), Request{Section: narrative.Context}); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}

	c = NewClaudeClient("key", "m", discardLogger())
	if _, err := c.Suggest(context.Background(), Request{Section: "Summary"}); err == nil {
		t.Error("expected error for unknown section")
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(Request{
		Section:     narrative.Opportunities,
		Department:  "Library",
		FiscalYear:  2027,
		CurrentText: "Expand hours.",
		Narrative:   narrative.Narrative{Context: "Usage up 10%", Opportunities: "ignored"},
	})
	for _, want := range []string{`"Opportunities"`, "Library department", "fiscal year 2027", "Usage up 10%", "Expand hours."} {
		if !strings.Contains(p, want) {
			t.Errorf("expected prompt to contain %q:\n%s", want, p)
		}
	}
	if strings.Contains(p, "ignored") {
		t.Error("expected the drafted section's stored text to be left out")
	}
}

func TestBackoff_Grows(t *testing.T) {
	if Backoff(2) < Backoff(0) {
		t.Error("expected later attempts to wait at least as long")
	}
}
