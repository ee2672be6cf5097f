package dedupe

import (
	"sort"

	"github.com/bradhave/nmsdata/pkg/errors"
	"github.com/bradhave/nmsdata/pkg/records"
)

// CrossBucketResult reports ids that appear in more than one bucket and,
// when the override is enabled, how many later occurrences were removed.
type CrossBucketResult struct {
	Conflicts []errors.ConflictError
	Removed   map[string]int
}

// EnforceUniqueIDs detects ids owned by more than one bucket. Buckets
// are visited in the snapshot's deterministic name order, so the first
// owner of an id is stable across runs.
//
// By default any cross-bucket duplicate is a hard validation failure.
// With allowDuplicates the conflict is downgraded: the first owner keeps
// the record, later buckets lose it (keep-first semantics), and the
// result records what was removed so the run metrics can surface it.
func EnforceUniqueIDs(snap *records.Snapshot, allowDuplicates bool) (*CrossBucketResult, error) {
	result := &CrossBucketResult{Removed: make(map[string]int)}
	ownerByID := make(map[string]string)
	bucketsByID := make(map[string][]string)

	for _, name := range snap.BucketNames() {
		bucket := snap.Buckets[name]
		kept := bucket.Records[:0:0]
		for _, rec := range bucket.Records {
			if rec.ID == "" {
				kept = append(kept, rec)
				continue
			}
			owner, taken := ownerByID[rec.ID]
			if !taken {
				ownerByID[rec.ID] = name
				kept = append(kept, rec)
				continue
			}
			if bucketsByID[rec.ID] == nil {
				bucketsByID[rec.ID] = []string{owner}
			}
			bucketsByID[rec.ID] = append(bucketsByID[rec.ID], name)
			if allowDuplicates {
				result.Removed[name]++
				continue
			}
			kept = append(kept, rec)
		}
		if allowDuplicates {
			bucket.Records = kept
		}
	}

	ids := make([]string, 0, len(bucketsByID))
	for id := range bucketsByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		result.Conflicts = append(result.Conflicts, errors.ConflictError{
			ID:      id,
			Buckets: bucketsByID[id],
		})
	}

	if len(result.Conflicts) > 0 && !allowDuplicates {
		first := result.Conflicts[0]
		return result, &first
	}
	return result, nil
}
