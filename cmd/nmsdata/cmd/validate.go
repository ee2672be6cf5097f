package cmd

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bradhave/nmsdata/internal/config"
	"github.com/bradhave/nmsdata/internal/snapshot"
	"github.com/bradhave/nmsdata/pkg/records"
)

var validateCmd = &cobra.Command{
	Use:   "validate OUT_DIR",
	Short: "Smoke-check an output directory",
	Long: `Validate runs structural checks on an extract output directory: every
configured bucket file exists and parses, every record carries an id and
a name, no id repeats within a bucket, and no id is claimed by more than
one bucket. A failing check makes the command exit non-zero, so it works
as a post-extract gate in CI.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// check is one smoke-check outcome for the results table.
type check struct {
	name   string
	detail string
	ok     bool
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetString("rules"))
	if err != nil {
		return err
	}

	snap, err := snapshot.Load(args[0])
	if err != nil {
		return err
	}

	checks := runChecks(cfg, snap)

	table := tablewriter.NewTable(cmd.OutOrStdout())
	table.Header("Check", "Result", "Detail")
	failed := 0
	for _, c := range checks {
		status := "ok"
		if !c.ok {
			status = "FAIL"
			failed++
		}
		if err := table.Append(c.name, status, c.detail); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	return nil
}

func runChecks(cfg *config.Config, snap *records.Snapshot) []check {
	var checks []check

	for _, bucket := range cfg.Buckets {
		got, ok := snap.Buckets[bucket.Name]
		if !ok {
			checks = append(checks, check{
				name:   "bucket file: " + bucket.Name,
				detail: "missing",
			})
			continue
		}
		checks = append(checks, check{
			name:   "bucket file: " + bucket.Name,
			detail: fmt.Sprintf("%d records", got.Len()),
			ok:     got.Len() > 0,
		})
	}

	checks = append(checks, checkRecordShape(snap))
	checks = append(checks, checkUniqueInBucket(snap))
	checks = append(checks, checkUniqueAcrossBuckets(snap))

	return checks
}

// checkRecordShape verifies every record carries an id and a name.
func checkRecordShape(snap *records.Snapshot) check {
	bad := 0
	for _, name := range snap.BucketNames() {
		for _, rec := range snap.Buckets[name].Records {
			if rec.ID == "" || strings.TrimSpace(rec.Name) == "" {
				bad++
			}
		}
	}
	c := check{name: "records have id and name", ok: bad == 0, detail: "all records"}
	if bad > 0 {
		c.detail = fmt.Sprintf("%d records missing id or name", bad)
	}
	return c
}

func checkUniqueInBucket(snap *records.Snapshot) check {
	dupes := 0
	for _, name := range snap.BucketNames() {
		seen := make(map[string]bool)
		for _, rec := range snap.Buckets[name].Records {
			if seen[rec.ID] {
				dupes++
			}
			seen[rec.ID] = true
		}
	}
	c := check{name: "ids unique within bucket", ok: dupes == 0, detail: "no duplicates"}
	if dupes > 0 {
		c.detail = fmt.Sprintf("%d duplicate ids", dupes)
	}
	return c
}

func checkUniqueAcrossBuckets(snap *records.Snapshot) check {
	owner := make(map[string]string)
	conflicts := 0
	for _, name := range snap.BucketNames() {
		for _, id := range snap.Buckets[name].IDs() {
			if prev, taken := owner[id]; taken && prev != name {
				conflicts++
				continue
			}
			owner[id] = name
		}
	}
	c := check{name: "ids unique across buckets", ok: conflicts == 0, detail: "no conflicts"}
	if conflicts > 0 {
		c.detail = fmt.Sprintf("%d ids in more than one bucket", conflicts)
	}
	return c
}
