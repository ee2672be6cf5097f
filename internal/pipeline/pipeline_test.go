package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradhave/nmsdata/internal/config"
	"github.com/bradhave/nmsdata/pkg/dedupe"
	"github.com/bradhave/nmsdata/pkg/errors"
	"github.com/bradhave/nmsdata/pkg/logging"
	"github.com/bradhave/nmsdata/pkg/records"
)

func writeFile(t *testing.T, dir, subdir, name, content string) {
	t.Helper()
	full := filepath.Join(dir, subdir)
	require.NoError(t, os.MkdirAll(full, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(full, name), []byte(content), 0o644))
}

// testData lays out a small but complete converter output directory:
// one direct-feed table split by a flag, one routed table containing a
// duplicate, a keyword reject, an unroutable group, and a key with no
// translation.
func testData(t *testing.T) string {
	t.Helper()
	logging.DisableForTest(t)
	dir := t.TempDir()

	writeFile(t, dir, "lang", "base_english.json", `{
		"PRODUCT_CAKE_NAME": "<STELLAR>glass cake<> of wonder",
		"GEL_NAME": "Organic Gel",
		"REFINERY_SALT_NAME": "Refined Salt"
	}`)

	writeFile(t, dir, "records", "Refinery.json", `[
		{"Id": "R_SALT", "Group": "Refinery Recipe", "NameKey": "REFINERY_SALT_NAME", "Cooking": false, "Time": "20"},
		{"Id": "R_CAKE", "Group": "Refinery Recipe", "NameKey": "PROD_CAKE_NAME", "Cooking": true},
		{"Id": "R_SALT", "Group": "Refinery Recipe", "NameKey": "REFINERY_SALT_NAME", "Cooking": false, "Time": "30"}
	]`)

	writeFile(t, dir, "records", "Products.json", `[
		{"Id": "GEL", "Group": "Tradeable Component", "NameKey": "GEL_NAME", "BaseValue": 200},
		{"Id": "GEL", "Group": "Tradeable Component", "NameKey": "GEL_NAME", "Rarity": "Common"},
		{"Id": "JUNK1", "Group": "DUMMY Group", "NameKey": "GEL_NAME"},
		{"Id": "MYST", "Group": "Mystery Thing", "NameKey": "GEL_NAME"},
		{"Id": "RAWKEY", "Group": "Tradeable Component", "NameKey": "UNKNOWN_THING_NAME", "Icon": ""},
		{"Id": "CASING", "Group": "Tradeable Component", "NameKey": "CASING_NAME"}
	]`)

	return dir
}

func testConfig() *config.Config {
	return &config.Config{
		Localization:      config.Localization{MergeOrder: []string{"base_english"}},
		RouteTables:       []string{"Products"},
		ExclusionKeywords: []string{"DUMMY"},
		Buckets: []config.Bucket{
			{Name: "Refinery", Table: "Refinery", Where: map[string]any{"Cooking": false},
				Dedupe: dedupe.PolicyKeepFirst, Slug: "refinery/"},
			{Name: "NutrientProcessor", Table: "Refinery", Where: map[string]any{"Cooking": true},
				Dedupe: dedupe.PolicyKeepFirst},
			{Name: "Products", Groups: []string{"Tradeable Component"},
				Dedupe: dedupe.PolicyMerge, Slug: "products/"},
		},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	dataDir := testData(t)
	outDir := t.TempDir()

	p := New(testConfig(), dataDir, outDir)
	result, err := p.Run(context.Background(), Options{VersionKey: "6.1"})
	require.NoError(t, err)

	// Direct feed split by the Cooking flag.
	refinery := result.Snapshot.Buckets["Refinery"]
	require.Equal(t, 1, refinery.Len(), "duplicate R_SALT collapsed keep-first")
	salt := refinery.Records[0]
	assert.Equal(t, "R_SALT", salt.ID)
	assert.Equal(t, "Refined Salt", salt.Name)
	assert.Equal(t, "20", salt.Fields["Time"], "keep-first keeps the earlier record's fields")
	assert.Equal(t, "refinery/R_SALT", salt.Fields["Slug"], "slug keeps the id's casing")

	nutrient := result.Snapshot.Buckets["NutrientProcessor"]
	require.Equal(t, 1, nutrient.Len())
	cake := nutrient.Records[0]
	assert.Equal(t, "R_CAKE", cake.ID)
	assert.Equal(t, "Glass Cake of Wonder", cake.Name,
		"markup stripped, title-cased, resolved via prefix transform")
	_, hasSlug := cake.Fields["Slug"]
	assert.False(t, hasSlug, "buckets without a slug prefix stay unstamped")

	// Routed bucket with merge policy.
	products := result.Snapshot.Buckets["Products"]
	require.Equal(t, 3, products.Len())
	gel := products.ByID()["GEL"]
	assert.Equal(t, float64(200), gel.Fields["BaseValue"])
	assert.Equal(t, "Common", gel.Fields["Rarity"], "merge folds the later duplicate's fields in")
	assert.Equal(t, "products/GEL", gel.Fields["Slug"])
	assert.Equal(t, "Unknown Thing", products.ByID()["RAWKEY"].Name, "fallback name is usable")
	assert.Equal(t, "Casing", products.ByID()["CASING"].Name,
		"a fallback that matches the id case-insensitively is still usable")

	// Diagnostics capture rejects and unroutable records, annotated.
	require.Equal(t, 2, result.Diagnostics.Len())
	diag := result.Diagnostics.ByID()
	assert.Equal(t, "exclusion-keyword", diag["JUNK1"].Fields["Reason"])
	assert.Equal(t, "unrouted-group", diag["MYST"].Fields["Reason"])
	assert.Equal(t, "Products", diag["MYST"].Fields["SourceTable"])

	// Run accounting.
	assert.Equal(t, 1, result.Metrics.Unrouted)
	assert.Equal(t, 1, result.Metrics.Rejected["exclusion-keyword"])
	assert.Equal(t, 2, result.Metrics.FallbackNames)
	assert.Equal(t, 1, result.Metrics.MissingIcons)
	assert.Equal(t, 1, result.Metrics.DuplicatesRemoved["Refinery"])
	assert.Equal(t, 1, result.Metrics.DuplicatesRemoved["Products"])

	// First run diffs against nothing.
	assert.Nil(t, result.Previous)
	assert.Equal(t, 5, result.Changes.Totals.Added)
	assert.Zero(t, result.Changes.Totals.Removed)

	// Output files on disk.
	for _, name := range []string{"Refinery.json", "NutrientProcessor.json", "Products.json", "none.json", "latest_run.json"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, "expected %s", name)
	}
	_, err = os.Stat(filepath.Join(outDir, "_latest", "Products.json"))
	assert.NoError(t, err)
}

func TestRun_SecondRunDiffsAgainstFirst(t *testing.T) {
	dataDir := testData(t)
	outDir := t.TempDir()
	cfg := testConfig()

	_, err := New(cfg, dataDir, outDir).Run(context.Background(), Options{VersionKey: "6.1"})
	require.NoError(t, err)

	result, err := New(cfg, dataDir, outDir).Run(context.Background(), Options{VersionKey: "6.1"})
	require.NoError(t, err)

	require.NotNil(t, result.Previous)
	assert.Equal(t, "6.1", result.Previous.VersionKey)
	assert.False(t, result.Changes.HasChanges(), "identical input produces an empty diff")
}

// A record without a name key still gets a display name, derived from
// its id, so it lands in a bucket instead of the diagnostic stream.
func TestRun_NameFromIDWhenKeyMissing(t *testing.T) {
	logging.DisableForTest(t)
	dir := t.TempDir()
	writeFile(t, dir, "lang", "base_english.json", `{}`)
	writeFile(t, dir, "records", "Refinery.json", `[]`)
	writeFile(t, dir, "records", "Products.json", `[
		{"Id": "SALT_DUST", "Group": "Tradeable Component"}
	]`)

	result, err := New(testConfig(), dir, t.TempDir()).Run(context.Background(), Options{})
	require.NoError(t, err)

	products := result.Snapshot.Buckets["Products"]
	require.Equal(t, 1, products.Len())
	assert.Equal(t, "Salt Dust", products.Records[0].Name)
	assert.Zero(t, result.Diagnostics.Len())
	assert.Equal(t, 1, result.Metrics.FallbackNames)
}

func TestRun_CrossBucketConflict(t *testing.T) {
	dataDir := testData(t)
	cfg := testConfig()
	// Feed the same table into a second bucket unfiltered so every
	// Cooking:false id is claimed twice.
	cfg.Buckets = append(cfg.Buckets, config.Bucket{
		Name: "RefineryCopy", Table: "Refinery", Where: map[string]any{"Cooking": false},
		Dedupe: dedupe.PolicyKeepFirst,
	})

	_, err := New(cfg, dataDir, t.TempDir()).Run(context.Background(), Options{})
	require.Error(t, err)
	assert.True(t, errors.IsIDConflict(err))
}

func TestRun_CrossBucketOverride(t *testing.T) {
	dataDir := testData(t)
	cfg := testConfig()
	cfg.Buckets = append(cfg.Buckets, config.Bucket{
		Name: "RefineryCopy", Table: "Refinery", Where: map[string]any{"Cooking": false},
		Dedupe: dedupe.PolicyKeepFirst,
	})

	result, err := New(cfg, dataDir, t.TempDir()).Run(context.Background(), Options{
		AllowCrossDuplicates: true,
	})
	require.NoError(t, err)

	// Bucket names sort Refinery < RefineryCopy, so Refinery keeps the id.
	assert.Equal(t, 1, result.Snapshot.Buckets["Refinery"].Len())
	assert.Equal(t, 0, result.Snapshot.Buckets["RefineryCopy"].Len())
	assert.Equal(t, 1, result.Metrics.CrossBucketRemoved["RefineryCopy"])
}

func TestRun_StrictFailsOnEmptyBucket(t *testing.T) {
	dataDir := testData(t)
	cfg := testConfig()
	cfg.Buckets = append(cfg.Buckets, config.Bucket{
		Name: "NeverFed", Table: "Refinery", Where: map[string]any{"Cooking": "never"},
		Dedupe: dedupe.PolicyKeepFirst,
	})

	_, err := New(cfg, dataDir, t.TempDir()).Run(context.Background(), Options{Strict: true})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	_, err = New(cfg, dataDir, t.TempDir()).Run(context.Background(), Options{})
	assert.NoError(t, err, "empty buckets are tolerated outside strict mode")
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	dataDir := testData(t)
	outDir := t.TempDir()

	result, err := New(testConfig(), dataDir, outDir).Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Changes.Totals.Added, "diff is still computed")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_MissingSourceTableIsFatal(t *testing.T) {
	logging.DisableForTest(t)
	dir := t.TempDir()
	writeFile(t, dir, "lang", "base_english.json", `{}`)

	_, err := New(testConfig(), dir, t.TempDir()).Run(context.Background(), Options{})
	require.Error(t, err)
	assert.True(t, errors.IsSourceContract(err))
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig(), testData(t), t.TempDir()).Run(ctx, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMatchesWhere(t *testing.T) {
	rec := records.Record{Fields: map[string]any{"Cooking": false, "Tier": float64(2)}}

	assert.True(t, matchesWhere(rec, nil))
	assert.True(t, matchesWhere(rec, map[string]any{"Cooking": false}))
	assert.False(t, matchesWhere(rec, map[string]any{"Cooking": true}))
	assert.False(t, matchesWhere(rec, map[string]any{"Missing": "x"}))
	// YAML decodes 2 as an int, JSON as a float64; the filter must
	// still match.
	assert.True(t, matchesWhere(rec, map[string]any{"Tier": 2}))
}
