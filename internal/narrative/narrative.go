package narrative

import (
	"strings"
	"unicode"
)

// Section names one of the fixed narrative blocks.
type Section string

const (
	Context       Section = "Context"
	Challenges    Section = "Challenges"
	Opportunities Section = "Opportunities"
)

// Sections lists the narrative blocks in heading-match priority order.
var Sections = []Section{Context, Challenges, Opportunities}

// Narrative is the three-part budget rationale. Every field is always set,
// possibly to the empty string.
type Narrative struct {
	Context       string `json:"context"`
	Challenges    string `json:"challenges"`
	Opportunities string `json:"opportunities"`
}

// Empty reports whether no section has content.
func (n Narrative) Empty() bool {
	return n.Context == "" && n.Challenges == "" && n.Opportunities == ""
}

// Field returns the text for a section.
func (n Narrative) Field(s Section) string {
	switch s {
	case Context:
		return n.Context
	case Challenges:
		return n.Challenges
	case Opportunities:
		return n.Opportunities
	}
	return ""
}

// Parse splits extracted document text into narrative sections. A line whose
// text starts (case-insensitively) with a section label opens that section;
// text after the label, minus an optional colon, is its first line. Lines
// before the first heading are dropped.
func Parse(text string) Narrative {
	lines := make(map[Section][]string, len(Sections))
	var current Section

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimFunc(raw, isTrimmable)
		if line == "" {
			continue
		}

		if sec, rest, ok := matchHeading(line); ok {
			current = sec
			rest = strings.TrimFunc(rest, isTrimmable)
			rest = strings.TrimFunc(strings.TrimPrefix(rest, ":"), isTrimmable)
			if rest != "" {
				lines[sec] = append(lines[sec], rest)
			}
			continue
		}

		if current != "" {
			lines[current] = append(lines[current], line)
		}
	}

	join := func(s Section) string {
		return strings.TrimSpace(strings.Join(lines[s], "\n"))
	}
	return Narrative{
		Context:       join(Context),
		Challenges:    join(Challenges),
		Opportunities: join(Opportunities),
	}
}

// isTrimmable reports whitespace and the byte-order mark, which editors
// leave at the start of saved text files.
func isTrimmable(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// matchHeading tests the labels in order and returns the first one the line
// starts with, plus the text that follows it.
func matchHeading(line string) (Section, string, bool) {
	for _, sec := range Sections {
		label := string(sec)
		if len(line) >= len(label) && strings.EqualFold(line[:len(label)], label) {
			return sec, line[len(label):], true
		}
	}
	return "", "", false
}
