package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/export"
)

var (
	exportRunID string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a run's records to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if _, err := st.GetRun(ctx, exportRunID); err != nil {
			return eris.Wrap(err, "export")
		}
		recs, err := st.ListRecords(ctx, exportRunID)
		if err != nil {
			return eris.Wrap(err, "export: list records")
		}

		if err := export.WriteXLSX(exportOut, recs); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("run_id", exportRunID),
			zap.String("path", exportOut),
			zap.Int("records", len(recs)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "run ID to export (required)")
	exportCmd.Flags().StringVar(&exportOut, "out", "leads.xlsx", "output XLSX path")
	_ = exportCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(exportCmd)
}
