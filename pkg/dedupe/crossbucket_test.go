package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradhave/nmsdata/pkg/errors"
	"github.com/bradhave/nmsdata/pkg/records"
)

func snapshotWithConflict() *records.Snapshot {
	snap := records.NewSnapshot()
	snap.Bucket("Products").Add(records.Record{ID: "SHARED", Name: "From Products"})
	snap.Bucket("Products").Add(records.Record{ID: "P_ONLY"})
	snap.Bucket("Technology").Add(records.Record{ID: "SHARED", Name: "From Technology"})
	snap.Bucket("Technology").Add(records.Record{ID: "T_ONLY"})
	return snap
}

func TestEnforceUniqueIDs_Clean(t *testing.T) {
	snap := records.NewSnapshot()
	snap.Bucket("Products").Add(records.Record{ID: "A"})
	snap.Bucket("Technology").Add(records.Record{ID: "B"})

	result, err := EnforceUniqueIDs(snap, false)
	require.NoError(t, err)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.Removed)
}

func TestEnforceUniqueIDs_ConflictIsFatal(t *testing.T) {
	snap := snapshotWithConflict()

	result, err := EnforceUniqueIDs(snap, false)
	require.Error(t, err)
	assert.True(t, errors.IsIDConflict(err))

	var conflict *errors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "SHARED", conflict.ID)
	assert.Equal(t, []string{"Products", "Technology"}, conflict.Buckets)

	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, 2, snap.Buckets["Technology"].Len(), "buckets untouched on failure")
}

func TestEnforceUniqueIDs_OverrideKeepsFirstOwner(t *testing.T) {
	snap := snapshotWithConflict()

	result, err := EnforceUniqueIDs(snap, true)
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1, "override still reports the conflict")
	assert.Equal(t, map[string]int{"Technology": 1}, result.Removed)

	// Bucket names sort Products < Technology, so Products owns the id.
	assert.Equal(t, []string{"SHARED", "P_ONLY"}, snap.Buckets["Products"].IDs())
	assert.Equal(t, []string{"T_ONLY"}, snap.Buckets["Technology"].IDs())
}

func TestEnforceUniqueIDs_ConflictsSortedByID(t *testing.T) {
	snap := records.NewSnapshot()
	for _, id := range []string{"ZULU", "ALPHA", "MIKE"} {
		snap.Bucket("A").Add(records.Record{ID: id})
		snap.Bucket("B").Add(records.Record{ID: id})
	}

	result, err := EnforceUniqueIDs(snap, true)
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 3)
	assert.Equal(t, "ALPHA", result.Conflicts[0].ID)
	assert.Equal(t, "MIKE", result.Conflicts[1].ID)
	assert.Equal(t, "ZULU", result.Conflicts[2].ID)
}

func TestEnforceUniqueIDs_EmptyIDsIgnored(t *testing.T) {
	snap := records.NewSnapshot()
	snap.Bucket("A").Add(records.Record{Name: "anonymous"})
	snap.Bucket("B").Add(records.Record{Name: "also anonymous"})

	result, err := EnforceUniqueIDs(snap, false)
	require.NoError(t, err)
	assert.Empty(t, result.Conflicts)
}
