// Package report renders a differ.ChangeReport as audit artifacts: a
// human-readable markdown document, a terminal summary table, and a
// machine-checkable JSON payload. Rendering is deterministic: the same
// report always produces byte-identical output.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/bradhave/nmsdata/pkg/differ"
)

// previewLimit caps how many ids a markdown highlight lists per change
// kind before eliding with a count.
const previewLimit = 25

// Meta describes the run that produced the report.
type Meta struct {
	GeneratedAt time.Time `json:"generated_at"`
	VersionKey  string    `json:"version_key"`
	PreviousRun string    `json:"previous_run,omitempty"`
}

// Payload is the machine-readable report artifact.
type Payload struct {
	Meta   Meta                 `json:"meta"`
	Report *differ.ChangeReport `json:"report"`
}

// Markdown renders the full change report as a markdown document:
// totals, a per-bucket table, and net-new highlights with capped
// id previews.
func Markdown(rep *differ.ChangeReport, meta Meta) string {
	var b strings.Builder

	b.WriteString("# Data Refresh Report\n\n")
	fmt.Fprintf(&b, "- Generated: `%s`\n", meta.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Version key: `%s`\n", meta.VersionKey)
	if meta.PreviousRun != "" {
		fmt.Fprintf(&b, "- Previous run: `%s`\n", meta.PreviousRun)
	} else {
		b.WriteString("- Previous run: `none` (first report)\n")
	}

	b.WriteString("\n## Totals\n\n")
	fmt.Fprintf(&b, "- Old total records: **%d**\n", rep.Totals.OldRecords)
	fmt.Fprintf(&b, "- New total records: **%d**\n", rep.Totals.NewRecords)
	fmt.Fprintf(&b, "- Added IDs: **%d**\n", rep.Totals.Added)
	fmt.Fprintf(&b, "- Removed IDs: **%d**\n", rep.Totals.Removed)
	fmt.Fprintf(&b, "- Changed IDs: **%d**\n", rep.Totals.Changed)

	b.WriteString("\n## Per Bucket\n\n")
	b.WriteString("| Bucket | Old | New | Added | Removed | Changed |\n")
	b.WriteString("|:-------|----:|----:|------:|--------:|--------:|\n")
	for _, bucket := range rep.Buckets {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %d |\n",
			bucket.Bucket, bucket.OldCount, bucket.NewCount,
			len(bucket.Added), len(bucket.Removed), len(bucket.Changed))
	}

	b.WriteString("\n## Net New Highlights\n\n")
	changesFound := false
	for _, bucket := range rep.Buckets {
		if !bucket.HasChanges() {
			continue
		}
		changesFound = true
		fmt.Fprintf(&b, "### %s\n", bucket.Bucket)
		writeIDPreview(&b, "Added", bucket.Added)
		writeIDPreview(&b, "Removed", bucket.Removed)
		writeIDPreview(&b, "Changed", bucket.ChangedIDs())
		b.WriteString("\n")
	}
	if !changesFound {
		b.WriteString("- No net changes detected versus previous run.\n")
	}

	return b.String()
}

func writeIDPreview(b *strings.Builder, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	preview := ids
	if len(preview) > previewLimit {
		preview = preview[:previewLimit]
	}
	fmt.Fprintf(b, "- %s (%d): %s\n", label, len(ids), strings.Join(preview, ", "))
	if len(ids) > previewLimit {
		fmt.Fprintf(b, "  - ... and %d more\n", len(ids)-previewLimit)
	}
}

// WriteSummaryTable renders the per-bucket summary as a terminal table.
func WriteSummaryTable(w io.Writer, rep *differ.ChangeReport) error {
	table := tablewriter.NewTable(w)
	table.Header("Bucket", "Old", "New", "Added", "Removed", "Changed")
	for _, bucket := range rep.Buckets {
		err := table.Append(
			bucket.Bucket,
			fmt.Sprintf("%d", bucket.OldCount),
			fmt.Sprintf("%d", bucket.NewCount),
			fmt.Sprintf("%d", len(bucket.Added)),
			fmt.Sprintf("%d", len(bucket.Removed)),
			fmt.Sprintf("%d", len(bucket.Changed)),
		)
		if err != nil {
			return err
		}
	}
	if err := table.Append(
		"TOTAL",
		fmt.Sprintf("%d", rep.Totals.OldRecords),
		fmt.Sprintf("%d", rep.Totals.NewRecords),
		fmt.Sprintf("%d", rep.Totals.Added),
		fmt.Sprintf("%d", rep.Totals.Removed),
		fmt.Sprintf("%d", rep.Totals.Changed),
	); err != nil {
		return err
	}
	return table.Render()
}

// JSON renders the machine-readable payload.
func JSON(rep *differ.ChangeReport, meta Meta) ([]byte, error) {
	return json.MarshalIndent(Payload{Meta: meta, Report: rep}, "", "  ")
}
