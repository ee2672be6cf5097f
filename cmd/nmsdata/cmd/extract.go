package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bradhave/nmsdata/internal/config"
	"github.com/bradhave/nmsdata/internal/pipeline"
	"github.com/bradhave/nmsdata/pkg/logging"
	"github.com/bradhave/nmsdata/pkg/report"
)

var (
	extractDataDir    string
	extractOutDir     string
	extractVersionKey string
	extractStrict     bool
	extractAllowCross bool
	extractDryRun     bool
	extractReportDir  string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the extraction pipeline",
	Long: `Extract reads converter output from the data directory, builds the
categorized bucket files, and writes them to the output directory along
with diagnostics (none.json) and a change report against the previous
run. The previous run's snapshot is rotated afterwards, so the next
extract diffs against this one.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractDataDir, "data", "data", "converter output directory (records/ and lang/)")
	extractCmd.Flags().StringVar(&extractOutDir, "out", "out", "output directory for bucket files")
	extractCmd.Flags().StringVar(&extractVersionKey, "version-key", "", "game data version label for the report")
	extractCmd.Flags().BoolVar(&extractStrict, "strict", false, "fail when any bucket produces no records")
	extractCmd.Flags().BoolVar(&extractAllowCross, "allow-cross-duplicates", false,
		"resolve cross-bucket duplicate ids keep-first instead of failing")
	extractCmd.Flags().BoolVar(&extractDryRun, "dry-run", false, "compute everything but write nothing")
	extractCmd.Flags().StringVar(&extractReportDir, "report", "", "also write report.md and report.json to this directory")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(viper.GetString("rules"))
	if err != nil {
		return err
	}

	p := pipeline.New(cfg, extractDataDir, extractOutDir)
	result, err := p.Run(cmd.Context(), pipeline.Options{
		VersionKey:           extractVersionKey,
		AllowCrossDuplicates: extractAllowCross,
		Strict:               extractStrict,
		DryRun:               extractDryRun,
	})
	if err != nil {
		return err
	}

	meta := report.Meta{
		GeneratedAt: result.GeneratedAt,
		VersionKey:  extractVersionKey,
	}
	if result.Previous != nil {
		meta.PreviousRun = result.Previous.GeneratedAt.Format(time.RFC3339)
	}

	if extractReportDir != "" && !extractDryRun {
		if err := writeReportFiles(extractReportDir, result, meta); err != nil {
			return err
		}
	}

	for reason, n := range result.Metrics.Rejected {
		logging.Info().Str("reason", reason).Int("records", n).Msg("records rejected")
	}
	if result.Metrics.Unrouted > 0 {
		logging.Warn().Int("records", result.Metrics.Unrouted).Msg("records matched no routing rule")
	}

	return report.WriteSummaryTable(cmd.OutOrStdout(), result.Changes)
}

func writeReportFiles(dir string, result *pipeline.Result, meta report.Meta) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	md := report.Markdown(result.Changes, meta)
	mdPath := filepath.Join(dir, "report.md")
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}

	data, err := report.JSON(result.Changes, meta)
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(dir, "report.json")
	if err := os.WriteFile(jsonPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", jsonPath, err)
	}

	logging.Info().Str("dir", dir).Msg("report written")
	return nil
}
