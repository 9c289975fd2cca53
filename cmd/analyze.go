package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/market-scout/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a one-shot market opportunity analysis",
	Long:  "Analyzes the market opportunity for a business type in a zip code or around an address and prints the report as JSON.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAnalyzer(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		term, _ := cmd.Flags().GetString("term")
		zip, _ := cmd.Flags().GetString("zip")
		address, _ := cmd.Flags().GetString("address")
		radius, _ := cmd.Flags().GetFloat64("radius")
		locations, _ := cmd.Flags().GetBool("locations")
		boundary, _ := cmd.Flags().GetBool("boundary")
		save, _ := cmd.Flags().GetBool("save")

		req := model.AnalyzeRequest{
			BusinessTerm:     term,
			ZipCode:          zip,
			Address:          address,
			RadiusMiles:      radius,
			IncludeLocations: locations,
			UseBoundary:      boundary,
		}

		report, err := env.Analyzer.Analyze(ctx, req)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		if save {
			saved, err := env.Store.SaveReport(ctx, req.BusinessTerm, *report)
			if err != nil {
				return eris.Wrap(err, "save report")
			}
			zap.L().Info("report saved", zap.String("id", saved.ID))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	analyzeCmd.Flags().String("term", "", "business type to analyze (e.g. \"coffee shop\")")
	analyzeCmd.Flags().String("zip", "", "5-digit US zip code")
	analyzeCmd.Flags().String("address", "", "street address (alternative to --zip)")
	analyzeCmd.Flags().Float64("radius", 0, "search radius in miles for address searches (default from config)")
	analyzeCmd.Flags().Bool("locations", false, "include competitor coordinates in the report")
	analyzeCmd.Flags().Bool("boundary", false, "search the zip's postal boundary polygon instead of a centered radius")
	analyzeCmd.Flags().Bool("save", false, "persist the report to the store")
	_ = analyzeCmd.MarkFlagRequired("term")
	rootCmd.AddCommand(analyzeCmd)
}
