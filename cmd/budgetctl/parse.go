package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgallion1/budgetdesk/internal/narrative"
	"github.com/dgallion1/budgetdesk/internal/textextract"
	"github.com/spf13/cobra"
)

var parseNoPdftotext bool

// parseCmd extracts a document and prints its narrative sections as JSON.
var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Split a narrative document into Context, Challenges and Opportunities",
	Long: `Extract text from a .docx, .pdf, .md, .html, .csv or .txt file and print
the recognised narrative sections as JSON. Nothing is stored.

Exits non-zero when no section headings are found.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseNoPdftotext, "no-pdftotext", false, "Do not fall back to pdftotext for PDFs")
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]
	ex, err := textextract.ForFile(path, textextract.Options{PDFFallbackPdftotext: !parseNoPdftotext})
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	text, err := ex.Extract(f)
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}

	n := narrative.Parse(text)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(n); err != nil {
		return err
	}
	if n.Empty() {
		return fmt.Errorf("no Context, Challenges or Opportunities headings found in %s", path)
	}
	return nil
}
