package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/market-scout/internal/export"
	"github.com/sells-group/market-scout/internal/model"
	"github.com/sells-group/market-scout/internal/store"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect saved opportunity reports",
	Long:  "Commands for listing, viewing, and exporting saved analysis reports.",
}

// -- reports list --

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		term, _ := cmd.Flags().GetString("term")
		limit, _ := cmd.Flags().GetInt("limit")

		reports, err := st.ListReports(ctx, store.ReportFilter{BusinessTerm: term, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "reports list")
		}

		if len(reports) == 0 {
			fmt.Fprintln(os.Stderr, "No reports found.")
			return nil
		}

		formatReportsList(os.Stdout, reports)
		return nil
	},
}

// -- reports get --

var reportsGetCmd = &cobra.Command{
	Use:   "get <report-id>",
	Short: "Show a saved report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		sr, err := st.GetReport(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "reports get")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sr)
	},
}

// -- reports export --

var reportsExportCmd = &cobra.Command{
	Use:   "export <file.xlsx>",
	Short: "Export saved reports to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		term, _ := cmd.Flags().GetString("term")
		limit, _ := cmd.Flags().GetInt("limit")

		reports, err := st.ListReports(ctx, store.ReportFilter{BusinessTerm: term, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "reports export")
		}
		if len(reports) == 0 {
			fmt.Fprintln(os.Stderr, "No reports to export.")
			return nil
		}

		if err := export.WriteReportsXLSX(args[0], reports); err != nil {
			return eris.Wrap(err, "reports export")
		}
		fmt.Fprintf(os.Stderr, "Exported %d reports to %s\n", len(reports), args[0])
		return nil
	},
}

func init() {
	reportsListCmd.Flags().String("term", "", "filter by business term")
	reportsListCmd.Flags().Int("limit", 50, "max number of reports to display")

	reportsExportCmd.Flags().String("term", "", "filter by business term")
	reportsExportCmd.Flags().Int("limit", 1000, "max number of reports to export")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsGetCmd)
	reportsCmd.AddCommand(reportsExportCmd)
	rootCmd.AddCommand(reportsCmd)
}

// formatReportsList writes a tabular list of saved reports to w.
func formatReportsList(out io.Writer, reports []model.SavedReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTERM\tLOCATION\tCOMPETITORS\tSCORE\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t--------\t-----------\t-----\t-------")

	for _, sr := range reports {
		location := sr.Report.SearchLocation
		if len(location) > 40 {
			location = location[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(sr.ID),
			sr.BusinessTerm,
			location,
			sr.Report.CompetitorCount,
			sr.Report.OpportunityScore,
			sr.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
