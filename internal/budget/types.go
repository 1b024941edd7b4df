// Package budget holds the budget-planning records (operating line items,
// positions, envelopes, narrative) and the service that persists them.
package budget

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fiscal years outside this range are rejected.
const (
	MinFiscalYear = 2000
	MaxFiscalYear = 2100
)

var hundred = decimal.NewFromInt(100)

// FundingSource is a share of a line item charged to one fund.
type FundingSource struct {
	Name    string          `json:"name"`
	Percent decimal.Decimal `json:"percent"`
}

// OperatingItem is a non-personnel budget line.
type OperatingItem struct {
	ID             string          `json:"id"`
	Department     string          `json:"department"`
	FiscalYear     int             `json:"fiscal_year"`
	Account        string          `json:"account"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	FundingSources []FundingSource `json:"funding_sources"`
	Notes          string          `json:"notes,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PositionItem is a personnel budget line.
type PositionItem struct {
	ID             string          `json:"id"`
	Department     string          `json:"department"`
	FiscalYear     int             `json:"fiscal_year"`
	Title          string          `json:"title"`
	Employee       string          `json:"employee,omitempty"`
	FTE            decimal.Decimal `json:"fte"`
	Salary         decimal.Decimal `json:"salary"`
	BenefitsRate   decimal.Decimal `json:"benefits_rate"`
	FundingSources []FundingSource `json:"funding_sources"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Total is the loaded cost of the position: salary × FTE × (1 + benefits rate),
// rounded to cents.
func (p PositionItem) Total() decimal.Decimal {
	return p.Salary.Mul(p.FTE).Mul(decimal.NewFromInt(1).Add(p.BenefitsRate)).Round(2)
}

// Envelope is the spending ceiling for a department in a fiscal year.
type Envelope struct {
	ID         string          `json:"id"`
	Department string          `json:"department"`
	FiscalYear int             `json:"fiscal_year"`
	Amount     decimal.Decimal `json:"amount"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// EnvelopeID is the stable id for a department/year envelope. The year is
// appended after the department slug is capped, so it is never cut off.
func EnvelopeID(department string, year int) string {
	return fmt.Sprintf("%s-%d", Slugify(department), year)
}

// Summary compares allocations against the envelope.
type Summary struct {
	Department  string          `json:"department"`
	FiscalYear  int             `json:"fiscal_year"`
	HasEnvelope bool            `json:"has_envelope"`
	Envelope    decimal.Decimal `json:"envelope"`
	Operating   decimal.Decimal `json:"operating"`
	Positions   decimal.Decimal `json:"positions"`
	Allocated   decimal.Decimal `json:"allocated"`
	Remaining   decimal.Decimal `json:"remaining"`
	OverBudget  bool            `json:"over_budget"`
}

// Filter narrows list results. Zero values match everything.
type Filter struct {
	Department string
	FiscalYear int
}

func (f Filter) match(department string, year int) bool {
	if f.Department != "" && !strings.EqualFold(f.Department, department) {
		return false
	}
	if f.FiscalYear != 0 && f.FiscalYear != year {
		return false
	}
	return true
}

// ValidationError lists every problem found with a record.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid record: " + strings.Join(e.Problems, "; ")
}

type validator struct {
	problems []string
}

func (v *validator) check(ok bool, format string, args ...any) {
	if !ok {
		v.problems = append(v.problems, fmt.Sprintf(format, args...))
	}
}

func (v *validator) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

func (v *validator) common(department string, year int) {
	v.check(strings.TrimSpace(department) != "", "department is required")
	v.check(year >= MinFiscalYear && year <= MaxFiscalYear,
		"fiscal_year must be between %d and %d", MinFiscalYear, MaxFiscalYear)
}

// fundingSources checks each share and that the shares add up to exactly 100,
// or to exactly 0 when nothing has been allocated yet.
func (v *validator) fundingSources(sources []FundingSource) {
	sum := decimal.Zero
	for i, fs := range sources {
		v.check(strings.TrimSpace(fs.Name) != "", "funding_sources[%d].name is required", i)
		v.check(!fs.Percent.IsNegative() && fs.Percent.LessThanOrEqual(hundred),
			"funding_sources[%d].percent must be between 0 and 100", i)
		sum = sum.Add(fs.Percent)
	}
	v.check(sum.IsZero() || sum.Equal(hundred),
		"funding source percentages must total 100 (got %s)", sum.String())
}

// Validate checks the operating item.
func (o OperatingItem) Validate() error {
	var v validator
	v.common(o.Department, o.FiscalYear)
	v.check(strings.TrimSpace(o.Description) != "", "description is required")
	v.check(!o.Amount.IsNegative(), "amount must not be negative")
	v.fundingSources(o.FundingSources)
	return v.err()
}

// Validate checks the position item.
func (p PositionItem) Validate() error {
	var v validator
	v.common(p.Department, p.FiscalYear)
	v.check(strings.TrimSpace(p.Title) != "", "title is required")
	v.check(p.FTE.IsPositive() && p.FTE.LessThanOrEqual(decimal.NewFromInt(1)), "fte must be greater than 0 and at most 1")
	v.check(!p.Salary.IsNegative(), "salary must not be negative")
	v.check(!p.BenefitsRate.IsNegative() && p.BenefitsRate.LessThanOrEqual(decimal.NewFromInt(1)),
		"benefits_rate must be between 0 and 1")
	v.fundingSources(p.FundingSources)
	return v.err()
}

// Validate checks the envelope.
func (e Envelope) Validate() error {
	var v validator
	v.common(e.Department, e.FiscalYear)
	v.check(!e.Amount.IsNegative(), "amount must not be negative")
	return v.err()
}

func trimFunding(sources []FundingSource) []FundingSource {
	if sources == nil {
		return []FundingSource{}
	}
	for i := range sources {
		sources[i].Name = strings.TrimSpace(sources[i].Name)
	}
	return sources
}
