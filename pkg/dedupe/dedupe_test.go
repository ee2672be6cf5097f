package dedupe

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradhave/nmsdata/pkg/records"
)

func bucketOf(name string, recs ...records.Record) *records.Bucket {
	b := records.NewBucket(name)
	for _, rec := range recs {
		b.Add(rec)
	}
	return b
}

func TestDedupe_KeepFirst(t *testing.T) {
	in := bucketOf("Products",
		records.Record{ID: "A", Name: "First", Fields: map[string]any{"f1": "old"}},
		records.Record{ID: "B", Name: "Other"},
		records.Record{ID: "A", Name: "Second", Fields: map[string]any{"f1": "new", "f2": "x"}},
	)

	out, removed := Dedupe(in, PolicyKeepFirst)

	assert.Equal(t, 1, removed)
	require.Equal(t, []string{"A", "B"}, out.IDs(), "first-encounter order preserved")

	kept := out.ByID()["A"]
	assert.Equal(t, "First", kept.Name)
	assert.Equal(t, map[string]any{"f1": "old"}, kept.Fields, "later duplicate discarded entirely")
}

func TestDedupe_Merge(t *testing.T) {
	in := bucketOf("Food",
		records.Record{ID: "A", Name: "First", Fields: map[string]any{"f1": "old"}},
		records.Record{ID: "A", Name: "Second", Fields: map[string]any{"f1": "new", "f2": "x"}},
	)

	out, removed := Dedupe(in, PolicyMerge)

	assert.Equal(t, 1, removed)
	require.Equal(t, 1, out.Len())

	merged := out.Records[0]
	assert.Equal(t, "Second", merged.Name, "later name wins")
	assert.Equal(t, map[string]any{"f1": "new", "f2": "x"}, merged.Fields,
		"merge is per field, last writer wins")
}

func TestDedupe_MergeKeepsEarlierWhenLaterOmits(t *testing.T) {
	in := bucketOf("Food",
		records.Record{ID: "A", Name: "First", Group: "Edible Product", Fields: map[string]any{"f1": "old"}},
		records.Record{ID: "A", Fields: map[string]any{"f2": "x"}},
	)

	out, _ := Dedupe(in, PolicyMerge)
	merged := out.Records[0]
	assert.Equal(t, "First", merged.Name, "empty later name must not wipe the earlier one")
	assert.Equal(t, "Edible Product", merged.Group)
	assert.Equal(t, map[string]any{"f1": "old", "f2": "x"}, merged.Fields)
}

func TestDedupe_InputNotMutated(t *testing.T) {
	first := records.Record{ID: "A", Fields: map[string]any{"f1": "old"}}
	in := bucketOf("Food", first,
		records.Record{ID: "A", Fields: map[string]any{"f1": "new"}},
	)

	_, _ = Dedupe(in, PolicyMerge)

	assert.Equal(t, "old", in.Records[0].Fields["f1"], "source bucket must stay untouched")
	assert.Equal(t, 2, in.Len())
}

func TestDedupe_NoDuplicates(t *testing.T) {
	in := bucketOf("Trade",
		records.Record{ID: "A"},
		records.Record{ID: "B"},
	)
	out, removed := Dedupe(in, PolicyKeepFirst)
	assert.Zero(t, removed)
	assert.Equal(t, []string{"A", "B"}, out.IDs())
}

func TestPolicy_Valid(t *testing.T) {
	assert.True(t, PolicyKeepFirst.Valid())
	assert.True(t, PolicyMerge.Valid())
	assert.False(t, Policy("drop-all").Valid())
	assert.False(t, Policy("").Valid())
}

func TestPolicy_UnmarshalYAML(t *testing.T) {
	var p Policy
	require.NoError(t, yaml.Unmarshal([]byte(`merge`), &p))
	assert.Equal(t, PolicyMerge, p)

	err := yaml.Unmarshal([]byte(`drop-all`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dedupe policy")
}
