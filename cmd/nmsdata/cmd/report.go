package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bradhave/nmsdata/internal/config"
	"github.com/bradhave/nmsdata/internal/snapshot"
	"github.com/bradhave/nmsdata/pkg/differ"
	"github.com/bradhave/nmsdata/pkg/errors"
	"github.com/bradhave/nmsdata/pkg/report"
)

var (
	reportFormat     string
	reportVersionKey string
)

var reportCmd = &cobra.Command{
	Use:   "report OLD_DIR NEW_DIR",
	Short: "Diff two snapshot directories",
	Long: `Report compares two snapshot directories (each a set of bucket JSON
files, as written by extract) and renders the change report. Fields in
the rule set's ignore-list are excluded from comparison.`,
	Args: cobra.ExactArgs(2),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "table", "output format: table, markdown, or json")
	reportCmd.Flags().StringVar(&reportVersionKey, "version-key", "", "game data version label for the report")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetString("rules"))
	if err != nil {
		return err
	}

	// snapshot.Load tolerates a missing directory (the pipeline needs
	// that for first runs), but here a typo'd path would silently diff
	// against nothing.
	for _, dir := range args {
		if err := requireSnapshotDir(dir); err != nil {
			return err
		}
	}

	old, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}
	updated, err := snapshot.Load(args[1])
	if err != nil {
		return err
	}

	d := differ.New(differ.WithIgnoredFields(cfg.DiffIgnoreFields...))
	changes := d.Snapshots(old, updated)
	meta := report.Meta{
		GeneratedAt: time.Now().UTC(),
		VersionKey:  reportVersionKey,
	}

	switch reportFormat {
	case "table":
		return report.WriteSummaryTable(cmd.OutOrStdout(), changes)
	case "markdown":
		fmt.Fprint(cmd.OutOrStdout(), report.Markdown(changes, meta))
		return nil
	case "json":
		data, err := report.JSON(changes, meta)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, markdown, or json)", reportFormat)
	}
}

// requireSnapshotDir verifies dir exists and is a directory.
func requireSnapshotDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("snapshot directory %s: %w", dir, errors.ErrNotFound)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshot directory %s: not a directory: %w", dir, errors.ErrInvalidInput)
	}
	return nil
}
