package budget

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FormatCurrency renders an amount as US dollars, e.g. "$1,234.56" or "-$80.00".
func FormatCurrency(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := d.IntPart()
	cents := d.Sub(decimal.NewFromInt(whole)).Mul(hundred).IntPart()
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.Comma(whole), cents)
}

// FormatFunding renders funding shares as "General Fund 60%; Grant 40%".
func FormatFunding(sources []FundingSource) string {
	parts := make([]string, 0, len(sources))
	for _, fs := range sources {
		parts = append(parts, fmt.Sprintf("%s %s%%", fs.Name, fs.Percent.String()))
	}
	return strings.Join(parts, "; ")
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// maxSlugLen caps Slugify output.
const maxSlugLen = 50

// Slugify converts a string to a URL/path-safe slug of at most 50 characters.
func Slugify(s string) string {
	return slugifyN(s, maxSlugLen)
}

func slugifyN(s string, n int) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > n {
		s = strings.TrimRight(s[:n], "-")
	}
	return s
}

// NewID builds a readable unique id from the given parts plus a random suffix.
// Each part is slugged and capped on its own so a long leading part cannot
// push the later ones out of the id.
func NewID(parts ...string) string {
	per := maxSlugLen
	if len(parts) > 1 {
		per = maxSlugLen / len(parts)
	}
	slugs := make([]string, 0, len(parts))
	for _, p := range parts {
		if sl := slugifyN(p, per); sl != "" {
			slugs = append(slugs, sl)
		}
	}
	slug := strings.Join(slugs, "-")
	if slug == "" {
		slug = "item"
	}
	u := uuid.Must(uuid.NewV7()).String()
	return slug + "-" + u[len(u)-8:]
}

// WriteOperatingCSV writes operating items with a header row.
func WriteOperatingCSV(w io.Writer, items []OperatingItem) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"ID", "Department", "Fiscal Year", "Account", "Description", "Amount", "Funding Sources", "Notes"})
	for _, it := range items {
		cw.Write([]string{
			it.ID,
			it.Department,
			strconv.Itoa(it.FiscalYear),
			it.Account,
			it.Description,
			FormatCurrency(it.Amount),
			FormatFunding(it.FundingSources),
			it.Notes,
		})
	}
	cw.Flush()
	return cw.Error()
}

// WritePositionCSV writes position items with a header row.
func WritePositionCSV(w io.Writer, items []PositionItem) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"ID", "Department", "Fiscal Year", "Title", "Employee", "FTE", "Salary", "Benefits Rate", "Total", "Funding Sources"})
	for _, it := range items {
		cw.Write([]string{
			it.ID,
			it.Department,
			strconv.Itoa(it.FiscalYear),
			it.Title,
			it.Employee,
			it.FTE.StringFixed(2),
			FormatCurrency(it.Salary),
			it.BenefitsRate.Mul(hundred).StringFixed(1) + "%",
			FormatCurrency(it.Total()),
			FormatFunding(it.FundingSources),
		})
	}
	cw.Flush()
	return cw.Error()
}
