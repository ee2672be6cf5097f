package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradhave/nmsdata/internal/config"
	"github.com/bradhave/nmsdata/pkg/dedupe"
	"github.com/bradhave/nmsdata/pkg/records"
)

func checkConfig() *config.Config {
	return &config.Config{
		Localization: config.Localization{MergeOrder: []string{"base_english"}},
		Buckets: []config.Bucket{
			{Name: "Products", Groups: []string{"Tradeable Component"}, Dedupe: dedupe.PolicyKeepFirst},
			{Name: "Fish", Table: "Fish", Dedupe: dedupe.PolicyKeepFirst},
		},
	}
}

func healthySnapshot() *records.Snapshot {
	snap := records.NewSnapshot()
	snap.Bucket("Products").Add(records.Record{ID: "GEL", Name: "Organic Gel"})
	snap.Bucket("Fish").Add(records.Record{ID: "TROUT", Name: "Crystal Trout"})
	return snap
}

func failures(checks []check) []string {
	var out []string
	for _, c := range checks {
		if !c.ok {
			out = append(out, c.name)
		}
	}
	return out
}

func TestRunChecks_Healthy(t *testing.T) {
	checks := runChecks(checkConfig(), healthySnapshot())
	assert.Empty(t, failures(checks))
	require.Len(t, checks, 5, "one per bucket plus the three structural checks")
}

func TestRunChecks_MissingBucketFile(t *testing.T) {
	snap := healthySnapshot()
	delete(snap.Buckets, "Fish")

	checks := runChecks(checkConfig(), snap)
	assert.Contains(t, failures(checks), "bucket file: Fish")
}

func TestRunChecks_EmptyBucket(t *testing.T) {
	snap := healthySnapshot()
	snap.Buckets["Fish"].Records = nil

	checks := runChecks(checkConfig(), snap)
	assert.Contains(t, failures(checks), "bucket file: Fish")
}

func TestRunChecks_RecordShape(t *testing.T) {
	snap := healthySnapshot()
	snap.Bucket("Products").Add(records.Record{ID: "NAMELESS"})
	snap.Bucket("Products").Add(records.Record{Name: "No ID"})

	checks := runChecks(checkConfig(), snap)
	assert.Contains(t, failures(checks), "records have id and name")
}

func TestRunChecks_DuplicateInBucket(t *testing.T) {
	snap := healthySnapshot()
	snap.Bucket("Products").Add(records.Record{ID: "GEL", Name: "Again"})

	checks := runChecks(checkConfig(), snap)
	assert.Contains(t, failures(checks), "ids unique within bucket")
}

func TestRunChecks_DuplicateAcrossBuckets(t *testing.T) {
	snap := healthySnapshot()
	snap.Bucket("Fish").Add(records.Record{ID: "GEL", Name: "Fishy Gel"})

	checks := runChecks(checkConfig(), snap)
	assert.Contains(t, failures(checks), "ids unique across buckets")
}
