package differ

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/bradhave/nmsdata/pkg/records"
)

// Differ handles change detection between snapshots.
type Differ interface {
	// Snapshots compares two complete snapshots. Both are read-only.
	Snapshots(old, updated *records.Snapshot) *ChangeReport

	// Buckets compares two generations of one bucket.
	Buckets(name string, old, updated *records.Bucket) BucketChangeset
}

// differ is the default implementation of Differ.
type differ struct {
	ignoreFields map[string]bool
}

// New creates a Differ with the given options.
func New(opts ...Option) Differ {
	d := &differ{
		ignoreFields: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Snapshots compares two complete snapshots. A bucket present in only
// one snapshot is treated as fully added or fully removed. Buckets and
// ids are iterated in sorted order so the report is reproducible.
func (d *differ) Snapshots(old, updated *records.Snapshot) *ChangeReport {
	report := &ChangeReport{}

	names := map[string]bool{}
	if old != nil {
		for name := range old.Buckets {
			names[name] = true
		}
	}
	if updated != nil {
		for name := range updated.Buckets {
			names[name] = true
		}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		var oldBucket, newBucket *records.Bucket
		if old != nil {
			oldBucket = old.Buckets[name]
		}
		if updated != nil {
			newBucket = updated.Buckets[name]
		}
		changeset := d.Buckets(name, oldBucket, newBucket)
		report.Buckets = append(report.Buckets, changeset)

		report.Totals.OldRecords += changeset.OldCount
		report.Totals.NewRecords += changeset.NewCount
		report.Totals.Added += len(changeset.Added)
		report.Totals.Removed += len(changeset.Removed)
		report.Totals.Changed += len(changeset.Changed)
	}

	return report
}

// Buckets compares two generations of one bucket. Either side may be
// nil, which counts as empty.
func (d *differ) Buckets(name string, old, updated *records.Bucket) BucketChangeset {
	changeset := BucketChangeset{
		Bucket:  name,
		Added:   []string{},
		Removed: []string{},
		Changed: []RecordUpdate{},
	}

	oldByID := map[string]records.Record{}
	if old != nil {
		oldByID = old.ByID()
	}
	newByID := map[string]records.Record{}
	if updated != nil {
		newByID = updated.ByID()
	}
	changeset.OldCount = len(oldByID)
	changeset.NewCount = len(newByID)

	for id := range newByID {
		if _, exists := oldByID[id]; !exists {
			changeset.Added = append(changeset.Added, id)
		}
	}
	for id := range oldByID {
		if _, exists := newByID[id]; !exists {
			changeset.Removed = append(changeset.Removed, id)
		}
	}
	sort.Strings(changeset.Added)
	sort.Strings(changeset.Removed)

	common := make([]string, 0, len(newByID))
	for id := range newByID {
		if _, exists := oldByID[id]; exists {
			common = append(common, id)
		}
	}
	sort.Strings(common)

	for _, id := range common {
		if update := d.record(oldByID[id], newByID[id]); update != nil {
			changeset.Changed = append(changeset.Changed, *update)
		}
	}

	return changeset
}

// record compares two generations of one record and returns an update
// if any non-ignored field differs. Values are compared deeply, not by
// reference.
func (d *differ) record(old, updated records.Record) *RecordUpdate {
	changes := []FieldChange{}

	if old.Name != updated.Name && !d.ignoreFields["Name"] {
		changes = append(changes, FieldChange{
			Path:     "Name",
			OldValue: old.Name,
			NewValue: updated.Name,
		})
	}
	if old.Group != updated.Group && !d.ignoreFields["Group"] {
		changes = append(changes, FieldChange{
			Path:     "Group",
			OldValue: old.Group,
			NewValue: updated.Group,
		})
	}

	fields := map[string]bool{}
	for name := range old.Fields {
		fields[name] = true
	}
	for name := range updated.Fields {
		fields[name] = true
	}
	sorted := make([]string, 0, len(fields))
	for name := range fields {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, field := range sorted {
		if d.ignoreFields[field] {
			continue
		}
		oldVal, oldOK := old.Fields[field]
		newVal, newOK := updated.Fields[field]
		if oldOK && newOK && reflect.DeepEqual(oldVal, newVal) {
			continue
		}
		if !oldOK && !newOK {
			continue
		}
		changes = append(changes, FieldChange{
			Path:     field,
			OldValue: formatValue(oldVal, oldOK),
			NewValue: formatValue(newVal, newOK),
		})
	}

	if len(changes) == 0 {
		return nil
	}

	name := old.Name
	if name == "" {
		name = updated.Name
	}
	return &RecordUpdate{ID: old.ID, Name: name, Changes: changes}
}

// formatValue renders a field value for the report. Absent fields show
// as "<absent>" to distinguish them from empty values.
func formatValue(v any, present bool) string {
	if !present {
		return "<absent>"
	}
	return truncateString(fmt.Sprintf("%v", v), 60)
}

// truncateString truncates a string to a maximum length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
