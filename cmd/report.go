package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/domain-categorizer/internal/report"
)

// newReportCmd creates the 'report' subcommand, which summarizes the success log.
func newReportCmd() *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Count classified domains per category",
		Long: `Reads the success log, writes the category-count CSV (CATEGORY,DOMAIN_count)
sorted by count and prints the same counts as a table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("input") {
				input = e.cfg.Output.SuccessPath
			}
			if !cmd.Flags().Changed("output") {
				output = e.cfg.Report.OutputPath
			}

			counts, err := report.LoadCounts(input)
			if err != nil {
				return err
			}
			if err := report.WriteCSVFile(output, counts); err != nil {
				return err
			}
			e.logger.Info("category report written",
				zap.String("input", input),
				zap.String("output", output),
				zap.Int("categories", len(counts)),
			)
			report.Render(cmd.OutOrStdout(), counts)
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "success log to count (overrides output.success_path)")
	cmd.Flags().StringVar(&output, "output", "", "category-count CSV to write (overrides report.output_path)")
	return cmd
}
