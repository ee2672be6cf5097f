// Package pipeline orchestrates one extraction run: resolve names,
// validate them, route records into buckets, collapse duplicates,
// enforce cross-bucket id uniqueness, persist the snapshot, and diff it
// against the previous run. Each stage is a separate package; this one
// only sequences them and accounts for what they did.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/bradhave/nmsdata/internal/config"
	"github.com/bradhave/nmsdata/internal/snapshot"
	"github.com/bradhave/nmsdata/internal/sources"
	"github.com/bradhave/nmsdata/pkg/dedupe"
	"github.com/bradhave/nmsdata/pkg/differ"
	"github.com/bradhave/nmsdata/pkg/errors"
	"github.com/bradhave/nmsdata/pkg/localization"
	"github.com/bradhave/nmsdata/pkg/logging"
	"github.com/bradhave/nmsdata/pkg/records"
	"github.com/bradhave/nmsdata/pkg/router"
	"github.com/bradhave/nmsdata/pkg/validate"
)

// Options configure a run.
type Options struct {
	// VersionKey labels the game data version this run extracted.
	VersionKey string

	// AllowCrossDuplicates downgrades cross-bucket id conflicts from a
	// hard failure to keep-first with a warning.
	AllowCrossDuplicates bool

	// Strict fails the run when any configured bucket ends up empty,
	// which almost always means an upstream table silently changed.
	Strict bool

	// DryRun computes everything but writes nothing.
	DryRun bool
}

// Metrics accounts for what the run did, for logging and the report.
type Metrics struct {
	SourceTables        int            `json:"source_tables"`
	LocalizationEntries int            `json:"localization_entries"`
	FallbackNames       int            `json:"fallback_names"`
	MissingIcons        int            `json:"missing_icons"`
	Rejected            map[string]int `json:"rejected"`
	Unrouted            int            `json:"unrouted"`
	DuplicatesRemoved   map[string]int `json:"duplicates_removed"`
	CrossBucketRemoved  map[string]int `json:"cross_bucket_removed"`
}

// Result is everything a run produced.
type Result struct {
	Snapshot    *records.Snapshot
	Diagnostics *records.Bucket
	Changes     *differ.ChangeReport
	Previous    *snapshot.Meta
	Metrics     Metrics
	GeneratedAt time.Time
}

// Pipeline wires the stages together for one rule set.
type Pipeline struct {
	cfg    *config.Config
	loader *sources.Loader
	store  *snapshot.Store
}

// New creates a Pipeline reading from dataDir and writing to outDir
// under the given rule set.
func New(cfg *config.Config, dataDir, outDir string) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		loader: sources.NewLoader(dataDir),
		store:  snapshot.NewStore(outDir),
	}
}

// Run executes the full extraction. On success the output directory
// holds the new bucket files and the previous run has been rotated out;
// the returned Result carries the change report against it.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	result := &Result{
		Diagnostics: records.NewBucket("none"),
		GeneratedAt: time.Now().UTC(),
		Metrics: Metrics{
			Rejected:           make(map[string]int),
			DuplicatesRemoved:  make(map[string]int),
			CrossBucketRemoved: make(map[string]int),
		},
	}

	resolver, err := p.buildResolver()
	if err != nil {
		return nil, err
	}
	result.Metrics.LocalizationEntries = resolver.table.Len()

	validator := validate.New(
		p.cfg.PlaceholderPrefixes,
		p.cfg.ExclusionKeywords,
		p.cfg.ExemptGroups(),
	)
	rt := router.New(p.cfg.RouterRules())

	snap := records.NewSnapshot()
	for _, bucket := range p.cfg.Buckets {
		snap.Bucket(bucket.Name)
	}
	result.Snapshot = snap

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.runDirectFeeds(resolver, validator, snap, result); err != nil {
		return nil, err
	}
	if err := p.runRoutedTables(resolver, validator, rt, snap, result); err != nil {
		return nil, err
	}

	p.collapseDuplicates(snap, result)

	cross, err := dedupe.EnforceUniqueIDs(snap, opts.AllowCrossDuplicates)
	if err != nil {
		return nil, err
	}
	for bucket, n := range cross.Removed {
		result.Metrics.CrossBucketRemoved[bucket] = n
	}
	for _, conflict := range cross.Conflicts {
		logging.Warn().
			Str("id", conflict.ID).
			Strs("buckets", conflict.Buckets).
			Msg("cross-bucket duplicate resolved keep-first")
	}

	p.assignSlugs(snap)

	if opts.Strict {
		if err := checkNonEmpty(snap); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	previous, previousMeta, err := p.store.Latest()
	if err != nil {
		return nil, err
	}
	result.Previous = previousMeta

	d := differ.New(differ.WithIgnoredFields(p.cfg.DiffIgnoreFields...))
	result.Changes = d.Snapshots(previous, snap)

	if opts.DryRun {
		logging.Info().Msg("dry run, skipping output")
		return result, nil
	}

	if err := p.store.Write(snap); err != nil {
		return nil, err
	}
	if err := p.store.WriteDiagnostics(result.Diagnostics); err != nil {
		return nil, err
	}
	meta := snapshot.Meta{GeneratedAt: result.GeneratedAt, VersionKey: opts.VersionKey}
	if err := p.store.Rotate(snap, meta); err != nil {
		return nil, err
	}

	logging.Info().
		Int("buckets", len(snap.Buckets)).
		Int("records", snap.TotalRecords()).
		Int("diagnostics", result.Diagnostics.Len()).
		Int("fallback_names", result.Metrics.FallbackNames).
		Msg("extraction complete")
	return result, nil
}

// resolverState pairs the resolver with its backing table so the
// pipeline can report the merged entry count.
type resolverState struct {
	*localization.Resolver
	table *localization.Table
}

func (p *Pipeline) buildResolver() (*resolverState, error) {
	srcs, err := p.loader.Localization(p.cfg.Localization.MergeOrder)
	if err != nil {
		return nil, err
	}
	table := localization.Merge(srcs...)
	logging.Debug().
		Int("tables", len(srcs)).
		Int("entries", table.Len()).
		Msg("localization tables merged")
	return &resolverState{
		Resolver: localization.NewResolver(table, p.cfg.Localization.Transforms),
		table:    table,
	}, nil
}

// runDirectFeeds fills buckets fed straight from a source table. Each
// table is read once even when it feeds several buckets.
func (p *Pipeline) runDirectFeeds(resolver *resolverState, validator *validate.Validator, snap *records.Snapshot, result *Result) error {
	loaded := make(map[string][]records.Record)

	for _, bucket := range p.cfg.Buckets {
		if bucket.Table == "" {
			continue
		}
		recs, ok := loaded[bucket.Table]
		if !ok {
			var err error
			recs, err = p.loader.Records(bucket.Table)
			if err != nil {
				return err
			}
			loaded[bucket.Table] = recs
			result.Metrics.SourceTables++
		}

		target := snap.Bucket(bucket.Name)
		for _, rec := range recs {
			if !matchesWhere(rec, bucket.Where) {
				continue
			}
			rec, translated := p.resolveName(resolver, rec, result)
			if verdict := validator.Check(rec, rec.Name, translated); !verdict.Usable {
				p.reject(rec, bucket.Table, verdict, result)
				continue
			}
			target.Add(rec)
		}
	}
	return nil
}

// runRoutedTables sends every record of the routed tables through the
// group router. Records no rule claims go to diagnostics, never to an
// output bucket.
func (p *Pipeline) runRoutedTables(resolver *resolverState, validator *validate.Validator, rt *router.Router, snap *records.Snapshot, result *Result) error {
	for _, table := range p.cfg.RouteTables {
		recs, err := p.loader.Records(table)
		if err != nil {
			return err
		}
		result.Metrics.SourceTables++

		for _, rec := range recs {
			rec, translated := p.resolveName(resolver, rec, result)
			if verdict := validator.Check(rec, rec.Name, translated); !verdict.Usable {
				p.reject(rec, table, verdict, result)
				continue
			}
			bucketName, ok := rt.Route(rec)
			if !ok {
				result.Metrics.Unrouted++
				p.diagnose(rec, table, "unrouted-group", result)
				continue
			}
			snap.Bucket(bucketName).Add(rec)
		}
	}
	return nil
}

// resolveName fills the record's display name from its name key and
// reports whether the name came from a localization entry. A name
// already present on the record (set by the converter) is kept and
// counts as translated. Records shipping without an icon asset are
// counted; the web application falls back to a placeholder image for
// them.
func (p *Pipeline) resolveName(resolver *resolverState, rec records.Record, result *Result) (records.Record, bool) {
	if icon, ok := rec.Fields["Icon"]; ok && icon == "" {
		result.Metrics.MissingIcons++
	}
	if rec.Name != "" {
		return rec, true
	}
	if rec.NameKey == "" {
		// No key to resolve; derive a readable name from the id so
		// name resolution stays total over records.
		rec.Name = localization.FormatKey(rec.ID)
		result.Metrics.FallbackNames++
		logging.Debug().
			Str("id", rec.ID).
			Str("fallback", rec.Name).
			Msg("no name key, formatted id used")
		return rec, false
	}
	name, translated := resolver.Lookup(rec.NameKey)
	rec.Name = name
	if !translated {
		result.Metrics.FallbackNames++
		logging.Debug().
			Str("id", rec.ID).
			Str("key", rec.NameKey).
			Str("fallback", name).
			Msg("no translation, formatted key used")
	}
	return rec, translated
}

func (p *Pipeline) reject(rec records.Record, table string, verdict validate.Verdict, result *Result) {
	reason := string(verdict.Reason)
	result.Metrics.Rejected[reason]++
	if verdict.Keyword != "" {
		logging.Debug().
			Str("id", rec.ID).
			Str("keyword", verdict.Keyword).
			Msg("record rejected by exclusion keyword")
	}
	p.diagnose(rec, table, reason, result)
}

// diagnose shunts a record to the diagnostic stream, annotated with why
// it landed there and where it came from.
func (p *Pipeline) diagnose(rec records.Record, table, reason string, result *Result) {
	out := rec.Clone()
	if out.Fields == nil {
		out.Fields = make(map[string]any, 2)
	}
	out.Fields["Reason"] = reason
	out.Fields["SourceTable"] = table
	result.Diagnostics.Add(out)
}

func (p *Pipeline) collapseDuplicates(snap *records.Snapshot, result *Result) {
	policies := p.cfg.DedupePolicies()
	for _, name := range snap.BucketNames() {
		policy, ok := policies[name]
		if !ok {
			policy = dedupe.PolicyKeepFirst
		}
		deduped, removed := dedupe.Dedupe(snap.Buckets[name], policy)
		snap.Buckets[name] = deduped
		if removed > 0 {
			result.Metrics.DuplicatesRemoved[name] = removed
			logging.Debug().
				Str("bucket", name).
				Str("policy", string(policy)).
				Int("removed", removed).
				Msg("duplicate ids collapsed")
		}
	}
}

// assignSlugs stamps each record with its web path. Slugs derive from
// the final bucket assignment, so this runs after routing, dedupe, and
// cross-bucket enforcement have settled where every record lives.
func (p *Pipeline) assignSlugs(snap *records.Snapshot) {
	slugs := p.cfg.Slugs()
	for name, bucket := range snap.Buckets {
		prefix, ok := slugs[name]
		if !ok {
			continue
		}
		for i := range bucket.Records {
			rec := &bucket.Records[i]
			if rec.ID == "" {
				continue
			}
			if rec.Fields == nil {
				rec.Fields = make(map[string]any, 1)
			}
			rec.Fields["Slug"] = prefix + rec.ID
		}
	}
}

// matchesWhere applies a direct feed's field filter. An empty filter
// matches everything. Values are compared by printed form because the
// filter comes from YAML and the field from JSON, which disagree on
// numeric types.
func matchesWhere(rec records.Record, where map[string]any) bool {
	for field, want := range where {
		got, ok := rec.Fields[field]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func checkNonEmpty(snap *records.Snapshot) error {
	for _, name := range snap.BucketNames() {
		if snap.Buckets[name].Len() == 0 {
			return errors.NewValidationError("bucket", name, "bucket "+name+" produced no records")
		}
	}
	return nil
}
