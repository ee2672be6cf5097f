// Package differ compares two generations of the persisted output and
// produces a structured change report. Output ordering is stable so
// repeated runs on identical input produce byte-identical reports; the
// report is itself an audit artifact compared across runs.
package differ

// FieldChange records one field that differs between generations of the
// same record.
type FieldChange struct {
	Path     string `json:"path"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// RecordUpdate represents a record whose non-ignored fields changed.
type RecordUpdate struct {
	ID      string        `json:"id"`
	Name    string        `json:"name,omitempty"`
	Changes []FieldChange `json:"changes"`
}

// BucketChangeset holds the per-bucket comparison: added and removed
// ids (sorted) and per-id field changes for ids present in both
// generations.
type BucketChangeset struct {
	Bucket   string         `json:"bucket"`
	OldCount int            `json:"old_count"`
	NewCount int            `json:"new_count"`
	Added    []string       `json:"added_ids"`
	Removed  []string       `json:"removed_ids"`
	Changed  []RecordUpdate `json:"changed"`
}

// HasChanges reports whether the bucket differs at all.
func (c *BucketChangeset) HasChanges() bool {
	return len(c.Added) > 0 || len(c.Removed) > 0 || len(c.Changed) > 0
}

// ChangedIDs returns the ids of changed records in report order.
func (c *BucketChangeset) ChangedIDs() []string {
	ids := make([]string, len(c.Changed))
	for i, upd := range c.Changed {
		ids[i] = upd.ID
	}
	return ids
}

// Totals aggregates counts across buckets.
type Totals struct {
	OldRecords int `json:"old_records"`
	NewRecords int `json:"new_records"`
	Added      int `json:"added"`
	Removed    int `json:"removed"`
	Changed    int `json:"changed"`
}

// ChangeReport is the full comparison of two snapshots: one changeset
// per bucket name present in either snapshot, plus totals.
type ChangeReport struct {
	Buckets []BucketChangeset `json:"buckets"`
	Totals  Totals            `json:"totals"`
}

// Bucket returns the changeset for a bucket name, or nil.
func (r *ChangeReport) Bucket(name string) *BucketChangeset {
	for i := range r.Buckets {
		if r.Buckets[i].Bucket == name {
			return &r.Buckets[i]
		}
	}
	return nil
}

// HasChanges reports whether any bucket changed.
func (r *ChangeReport) HasChanges() bool {
	return r.Totals.Added > 0 || r.Totals.Removed > 0 || r.Totals.Changed > 0
}
