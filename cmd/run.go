package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	runProfilePath string
	runOut         string
	runRecords     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the lead-generation pipeline for a search profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		prof, err := loadRunProfile(runProfilePath)
		if err != nil {
			return err
		}
		// A missing generation key is fatal before any output.
		if err := prof.Validate(cfg.Strategy.Provider, cfg.Anthropic.Key); err != nil {
			return eris.Wrap(err, "invalid profile")
		}

		env, err := initPipeline(ctx, runOut)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Run(ctx, prof)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		if result.Error != "" {
			zap.L().Warn("run produced no records", zap.String("error", result.Error))
		} else {
			zap.L().Info("run complete",
				zap.String("run_id", result.RunID),
				zap.Int("records", len(result.Records)),
			)
		}

		return writeRunResult(os.Stdout, result, runRecords)
	},
}

// loadRunProfile reads the profile at path, or returns the default profile
// when path is empty. Missing keys fall back to the application config.
func loadRunProfile(path string) (config.Profile, error) {
	prof := config.DefaultProfile()
	if path != "" {
		p, err := config.LoadProfile(path)
		if err != nil {
			return config.Profile{}, err
		}
		prof = p
	}
	return prof.WithFallbackKeys(cfg), nil
}

// writeRunResult prints the result as indented JSON. Records are omitted
// unless withRecords is set.
func writeRunResult(w io.Writer, result *model.RunResult, withRecords bool) error {
	out := *result
	if !withRecords {
		out.Records = nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	runCmd.Flags().StringVar(&runProfilePath, "profile", "", "path to a run profile (JSON or YAML); defaults apply when omitted")
	runCmd.Flags().StringVar(&runOut, "out", "", "append records to this JSONL file (overrides output.jsonl_path)")
	runCmd.Flags().BoolVar(&runRecords, "records", false, "include records in the printed result")
	rootCmd.AddCommand(runCmd)
}
