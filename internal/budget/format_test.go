package budget

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatCurrency(t *testing.T) {
	tests := map[string]string{
		"0":          "$0.00",
		"5":          "$5.00",
		"1234.5":     "$1,234.50",
		"1234567.89": "$1,234,567.89",
		"-80":        "-$80.00",
		"-1000.456":  "-$1,000.46",
		"0.005":      "$0.01",
	}
	for in, want := range tests {
		if got := FormatCurrency(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatCurrency(%s): expected %q, got %q", in, want, got)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Public Works 2026":      "public-works-2026",
		"  IT / Help-Desk  ":     "it-help-desk",
		"Parks & Recreation!!":   "parks-recreation",
		"":                       "",
		strings.Repeat("a", 60):  strings.Repeat("a", 50),
		strings.Repeat("a-", 30): strings.TrimRight(strings.Repeat("a-", 25), "-"),
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestNewID(t *testing.T) {
	a := NewID("Finance", "Office supplies")
	b := NewID("Finance", "Office supplies")
	if a == b {
		t.Error("expected unique ids")
	}
	if !strings.HasPrefix(a, "finance-office-supplies-") {
		t.Errorf("unexpected id %q", a)
	}
	if got := NewID("!!!"); !strings.HasPrefix(got, "item-") {
		t.Errorf("expected fallback slug, got %q", got)
	}
}

func TestWriteOperatingCSV(t *testing.T) {
	items := []OperatingItem{{
		ID:          "finance-supplies-1",
		Department:  "Finance",
		FiscalYear:  2026,
		Account:     "5100",
		Description: "Supplies, paper",
		Amount:      decimal.RequireFromString("1500.5"),
		FundingSources: []FundingSource{
			{Name: "General Fund", Percent: decimal.NewFromInt(60)},
			{Name: "Grant", Percent: decimal.NewFromInt(40)},
		},
	}}

	var buf bytes.Buffer
	if err := WriteOperatingCSV(&buf, items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "ID,Department,Fiscal Year,Account,Description,Amount,Funding Sources,Notes\n" +
		`finance-supplies-1,Finance,2026,5100,"Supplies, paper","$1,500.50",General Fund 60%; Grant 40%,` + "\n"
	if buf.String() != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, buf.String())
	}
}

func TestWritePositionCSV(t *testing.T) {
	items := []PositionItem{{
		ID:           "finance-analyst-1",
		Department:   "Finance",
		FiscalYear:   2026,
		Title:        "Analyst",
		FTE:          decimal.RequireFromString("0.5"),
		Salary:       decimal.NewFromInt(80000),
		BenefitsRate: decimal.RequireFromString("0.25"),
	}}

	var buf bytes.Buffer
	if err := WritePositionCSV(&buf, items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	want := `finance-analyst-1,Finance,2026,Analyst,,0.50,"$80,000.00",25.0%,"$50,000.00",`
	if lines[1] != want {
		t.Errorf("expected %q, got %q", want, lines[1])
	}
}

func TestEnvelopeID_KeepsYearForLongDepartment(t *testing.T) {
	dept := "Department of Public Works and Infrastructure Services"
	a, b := EnvelopeID(dept, 2025), EnvelopeID(dept, 2026)
	if a == b {
		t.Fatalf("expected distinct ids per year, both %q", a)
	}
	if !strings.HasSuffix(a, "-2025") || !strings.HasSuffix(b, "-2026") {
		t.Errorf("expected year suffix, got %q and %q", a, b)
	}
	if got := EnvelopeID("Finance", 2026); got != "finance-2026" {
		t.Errorf("expected %q, got %q", "finance-2026", got)
	}
}

func TestNewID_LongPartsKeepDescription(t *testing.T) {
	id := NewID("Department of Public Works and Infrastructure Services", "Snow removal")
	if !strings.Contains(id, "-snow-removal-") {
		t.Errorf("expected description in id, got %q", id)
	}
	if len(id) > maxSlugLen+1+8 {
		t.Errorf("id too long (%d): %q", len(id), id)
	}
}
