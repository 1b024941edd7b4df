package main

import (
	"fmt"
	"strconv"

	"github.com/dgallion1/budgetdesk/internal/budget"
	"github.com/dgallion1/budgetdesk/internal/config"
	"github.com/dgallion1/budgetdesk/internal/docstore"
	"github.com/spf13/cobra"
)

var (
	exportDepartment string
	exportYear       int
)

// exportCmd writes operating or position lines as CSV.
var exportCmd = &cobra.Command{
	Use:       "export {operating|positions}",
	Short:     "Export budget lines as CSV",
	Long:      "Export budget lines from the configured store (see CONFIG_FILE / STORE_BACKEND) as CSV on stdout.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"operating", "positions"},
	RunE:      runExport,
}

// summaryCmd prints the envelope comparison for one department and year.
var summaryCmd = &cobra.Command{
	Use:   "summary DEPARTMENT YEAR",
	Short: "Compare a department's allocations to its envelope",
	Args:  cobra.ExactArgs(2),
	RunE:  runSummary,
}

func init() {
	exportCmd.Flags().StringVarP(&exportDepartment, "department", "d", "", "Only this department")
	exportCmd.Flags().IntVarP(&exportYear, "year", "y", 0, "Only this fiscal year")
}

// openService opens the store named by the server configuration.
func openService() (*budget.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	var store docstore.Store
	if cfg.StoreBackend == "pathstore" {
		store = docstore.NewPathstoreStore(cfg.PathstoreURL, cfg.PathstoreAPIKey, cfg.PathstorePrefix)
	} else {
		s, err := docstore.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store = s
	}
	return budget.NewService(store), func() { store.Close() }, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	f := budget.Filter{Department: exportDepartment, FiscalYear: exportYear}
	out := cmd.OutOrStdout()
	switch args[0] {
	case "operating":
		items, err := svc.ListOperating(ctx, f)
		if err != nil {
			return err
		}
		return budget.WriteOperatingCSV(out, items)
	default:
		items, err := svc.ListPositions(ctx, f)
		if err != nil {
			return err
		}
		return budget.WritePositionCSV(out, items)
	}
}

func runSummary(cmd *cobra.Command, args []string) error {
	year, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("year must be a number: %q", args[1])
	}
	svc, closeFn, err := openService()
	if err != nil {
		return err
	}
	defer closeFn()

	sum, err := svc.Summarize(cmd.Context(), args[0], year)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s FY%d\n", sum.Department, sum.FiscalYear)
	if sum.HasEnvelope {
		fmt.Fprintf(out, "  Envelope:  %14s\n", budget.FormatCurrency(sum.Envelope))
	} else {
		fmt.Fprintf(out, "  Envelope:  %14s\n", "(none set)")
	}
	fmt.Fprintf(out, "  Operating: %14s\n", budget.FormatCurrency(sum.Operating))
	fmt.Fprintf(out, "  Positions: %14s\n", budget.FormatCurrency(sum.Positions))
	fmt.Fprintf(out, "  Allocated: %14s\n", budget.FormatCurrency(sum.Allocated))
	if sum.HasEnvelope {
		fmt.Fprintf(out, "  Remaining: %14s\n", budget.FormatCurrency(sum.Remaining))
	}
	if sum.OverBudget {
		fmt.Fprintln(out, "  OVER BUDGET")
	}
	return nil
}
