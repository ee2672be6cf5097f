// Package dedupe collapses records sharing an id within one bucket.
// The policy is per-bucket configuration, not global: buckets fed by
// streams with incompatible schemas keep the first record verbatim,
// while the bucket whose streams share a schema merges fields for
// completeness.
package dedupe

import (
	"fmt"

	"github.com/bradhave/nmsdata/pkg/records"
)

// Policy selects how duplicate ids within a bucket are collapsed.
type Policy string

const (
	// PolicyKeepFirst retains the first record for an id verbatim and
	// discards later ones entirely. Safe for buckets assembled from
	// streams with different, non-overlapping field schemas.
	PolicyKeepFirst Policy = "keep-first"

	// PolicyMerge folds later records' fields into the first record,
	// last writer wins per field (not per record). Only for buckets
	// whose source streams share a compatible schema.
	PolicyMerge Policy = "merge"
)

// Valid reports whether the policy is one of the known values.
func (p Policy) Valid() bool {
	return p == PolicyKeepFirst || p == PolicyMerge
}

// UnmarshalYAML validates the policy when decoding configuration.
func (p *Policy) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	policy := Policy(s)
	if !policy.Valid() {
		return fmt.Errorf("unknown dedupe policy %q", s)
	}
	*p = policy
	return nil
}

// Dedupe returns a new bucket containing at most one record per id,
// preserving first-encounter order, plus the number of duplicates
// collapsed. The input bucket is not mutated.
func Dedupe(bucket *records.Bucket, policy Policy) (*records.Bucket, int) {
	out := records.NewBucket(bucket.Name)
	index := make(map[string]int)
	removed := 0

	for _, rec := range bucket.Records {
		if rec.ID == "" {
			out.Add(rec)
			continue
		}
		pos, seen := index[rec.ID]
		if !seen {
			index[rec.ID] = len(out.Records)
			out.Add(rec.Clone())
			continue
		}
		removed++
		if policy == PolicyMerge {
			mergeFields(&out.Records[pos], rec)
		}
	}
	return out, removed
}

// mergeFields overwrites the target's fields with the later record's,
// field by field. The later record's resolved name and group also win
// when present, matching last-writer-wins semantics.
func mergeFields(target *records.Record, later records.Record) {
	if later.Name != "" {
		target.Name = later.Name
	}
	if later.Group != "" {
		target.Group = later.Group
	}
	if len(later.Fields) == 0 {
		return
	}
	if target.Fields == nil {
		target.Fields = make(map[string]any, len(later.Fields))
	}
	for key, value := range later.Fields {
		target.Fields[key] = value
	}
}
