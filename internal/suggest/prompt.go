// Package suggest drafts narrative text with an LLM.
package suggest

import (
	"fmt"
	"strings"

	"github.com/dgallion1/budgetdesk/internal/narrative"
)

const SystemPrompt = `You help municipal department heads write budget narratives.
Write in plain, factual prose suitable for a public budget book. Do not invent figures.
Respond with only the suggested section text, no headings or commentary.`

// Request describes the section to draft.
type Request struct {
	Section     narrative.Section   `json:"section"`
	Department  string              `json:"department"`
	FiscalYear  int                 `json:"fiscal_year"`
	CurrentText string              `json:"current_text"`
	Narrative   narrative.Narrative `json:"narrative"`
}

// Validate checks the section name and normalises its case.
func (r *Request) Validate() error {
	for _, s := range narrative.Sections {
		if strings.EqualFold(string(s), string(r.Section)) {
			r.Section = s
			return nil
		}
	}
	return fmt.Errorf("unknown section %q", r.Section)
}

// BuildPrompt creates the user prompt for a section suggestion, including the
// other sections as context.
func BuildPrompt(r Request) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Draft the %q section of the budget narrative", r.Section)
	if r.Department != "" {
		fmt.Fprintf(&sb, " for the %s department", r.Department)
	}
	if r.FiscalYear != 0 {
		fmt.Fprintf(&sb, ", fiscal year %d", r.FiscalYear)
	}
	sb.WriteString(".\n")

	for _, s := range narrative.Sections {
		if s == r.Section {
			continue
		}
		if text := r.Narrative.Field(s); text != "" {
			fmt.Fprintf(&sb, "\n%s (for reference):\n%s\n", s, text)
		}
	}

	if strings.TrimSpace(r.CurrentText) != "" {
		sb.WriteString("\nImprove this existing draft:\n---\n")
		sb.WriteString(r.CurrentText)
		sb.WriteString("\n---\n")
	}
	return sb.String()
}
