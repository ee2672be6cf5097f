// Package nmsdata turns exported game-definition tables into the
// categorized JSON files the web application consumes. The CLI under
// cmd/nmsdata is a thin wrapper over this package; programs embedding
// the engine call Extract and Compare directly.
package nmsdata

import (
	"context"

	"github.com/bradhave/nmsdata/internal/config"
	"github.com/bradhave/nmsdata/internal/pipeline"
	"github.com/bradhave/nmsdata/internal/snapshot"
	"github.com/bradhave/nmsdata/pkg/differ"
	"github.com/bradhave/nmsdata/pkg/records"
)

// Options re-exports the pipeline run options.
type Options = pipeline.Options

// Result re-exports the pipeline run result.
type Result = pipeline.Result

// Extract runs one extraction: the rule set comes from rulesPath (or
// the embedded default when empty), converter output is read from
// dataDir, and bucket files plus diagnostics land in outDir. The
// returned Result carries the change report against the previous run.
func Extract(ctx context.Context, rulesPath, dataDir, outDir string, opts Options) (*Result, error) {
	cfg, err := config.Load(rulesPath)
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, dataDir, outDir).Run(ctx, opts)
}

// Compare diffs two snapshot directories written by Extract, honoring
// the rule set's diff ignore-list.
func Compare(rulesPath, oldDir, newDir string) (*differ.ChangeReport, error) {
	cfg, err := config.Load(rulesPath)
	if err != nil {
		return nil, err
	}
	old, err := snapshot.Load(oldDir)
	if err != nil {
		return nil, err
	}
	updated, err := snapshot.Load(newDir)
	if err != nil {
		return nil, err
	}
	d := differ.New(differ.WithIgnoredFields(cfg.DiffIgnoreFields...))
	return d.Snapshots(old, updated), nil
}

// LoadSnapshot reads a snapshot directory written by Extract.
func LoadSnapshot(dir string) (*records.Snapshot, error) {
	return snapshot.Load(dir)
}
