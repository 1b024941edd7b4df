package narrative

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Narrative
	}{
		{
			name:  "empty input",
			input: "",
			want:  Narrative{},
		},
		{
			name:  "no headings",
			input: "Budget overview\nSome text\n\nMore text",
			want:  Narrative{},
		},
		{
			name:  "all three sections",
			input: "Context\nLine A\nLine B\n\nChallenges: C1\nOpportunities\nO1\nO2",
			want: Narrative{
				Context:       "Line A\nLine B",
				Challenges:    "C1",
				Opportunities: "O1\nO2",
			},
		},
		{
			name:  "heading with colon and nothing else",
			input: "Opportunities:",
			want:  Narrative{},
		},
		{
			name:  "byte-order mark before first heading",
			input: "\uFEFFContext: x\nChallenges: y",
			want:  Narrative{Context: "x", Challenges: "y"},
		},
		{
			name:  "byte-order mark on a line of its own",
			input: "\uFEFF\r\nContext\r\nGrowth\r\n",
			want:  Narrative{Context: "Growth"},
		},
		{
			name:  "stray line before first heading is dropped",
			input: "stray line\nContext\nreal content",
			want:  Narrative{Context: "real content"},
		},
		{
			name:  "inline text without colon",
			input: "Context some more text\nnext",
			want:  Narrative{Context: "some more text\nnext"},
		},
		{
			name:  "colon with padding",
			input: "Challenges   :   staffing gaps  ",
			want:  Narrative{Challenges: "staffing gaps"},
		},
		{
			name:  "crlf line endings",
			input: "Context\r\nfirst\r\n\r\nsecond\r\n",
			want:  Narrative{Context: "first\nsecond"},
		},
		{
			name:  "repeated heading appends to same section",
			input: "Context: a\nChallenges: b\nContext: c",
			want:  Narrative{Context: "a\nc", Challenges: "b"},
		},
		{
			name:  "indented lines are trimmed",
			input: "   Opportunities\n\t grant funding \n",
			want:  Narrative{Opportunities: "grant funding"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestParse_InlineContentComesFirst(t *testing.T) {
	got := Parse("Context: Initial text\nfollow-up")
	if !strings.HasPrefix(got.Context, "Initial text") {
		t.Errorf("expected context to start with %q, got %q", "Initial text", got.Context)
	}
}

func TestParse_CaseInsensitive(t *testing.T) {
	upper := Parse("CONTEXT: hello")
	lower := Parse("context: hello")
	if upper != lower {
		t.Errorf("expected identical results, got %+v and %+v", upper, lower)
	}
	if upper.Context != "hello" {
		t.Errorf("expected %q, got %q", "hello", upper.Context)
	}
}

func TestParse_BlankLinesDoNotSurvive(t *testing.T) {
	got := Parse("Challenges\none\n\n\n   \ntwo")
	if got.Challenges != "one\ntwo" {
		t.Errorf("expected %q, got %q", "one\ntwo", got.Challenges)
	}
}

func TestParse_ConcurrentCalls(t *testing.T) {
	input := "Context: c\nChallenges: h\nOpportunities: o"
	want := Narrative{Context: "c", Challenges: "h", Opportunities: "o"}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := Parse(input); got != want {
				t.Errorf("expected %+v, got %+v", want, got)
			}
		}()
	}
	wg.Wait()
}

func TestNarrative_Empty(t *testing.T) {
	if !(Narrative{}).Empty() {
		t.Error("expected zero narrative to be empty")
	}
	if (Narrative{Opportunities: "x"}).Empty() {
		t.Error("expected narrative with content to be non-empty")
	}
}

func TestNarrative_Field(t *testing.T) {
	n := Narrative{Context: "a", Challenges: "b", Opportunities: "c"}
	for sec, want := range map[Section]string{Context: "a", Challenges: "b", Opportunities: "c", "Other": ""} {
		if got := n.Field(sec); got != want {
			t.Errorf("Field(%s): expected %q, got %q", sec, want, got)
		}
	}
}
