// Package snapshot persists one run's buckets as the categorized JSON
// files the web application consumes, and keeps the previous run's
// output around so the differ has something to compare against.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bradhave/nmsdata/pkg/errors"
	"github.com/bradhave/nmsdata/pkg/records"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644

	// latestDir is where the previous run's output lives between runs.
	latestDir = "_latest"
	// metaFile records when and from what the latest snapshot was taken.
	metaFile = "latest_run.json"
	// diagnosticFile collects rejected and unrouted records for review.
	diagnosticFile = "none.json"
)

// Meta describes the run that produced the latest snapshot.
type Meta struct {
	GeneratedAt time.Time `json:"generated_at"`
	VersionKey  string    `json:"version_key"`
}

// Store reads and writes snapshots under a root directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Write persists every bucket as <Bucket>.json, an ordered array of
// flat objects (tab-indented, the format the web application consumes).
func (s *Store) Write(snap *records.Snapshot) error {
	if err := os.MkdirAll(s.root, dirPermissions); err != nil {
		return errors.WrapIO("create", s.root, err)
	}
	for _, name := range snap.BucketNames() {
		bucket := snap.Buckets[name]
		path := filepath.Join(s.root, name+".json")
		if err := writeJSON(path, flattenBucket(bucket)); err != nil {
			return err
		}
	}
	return nil
}

// WriteDiagnostics persists the rejected/unrouted records to none.json
// for operator review. Always written, even when empty, so a clean run
// is distinguishable from a run that never got that far.
func (s *Store) WriteDiagnostics(bucket *records.Bucket) error {
	if err := os.MkdirAll(s.root, dirPermissions); err != nil {
		return errors.WrapIO("create", s.root, err)
	}
	return writeJSON(filepath.Join(s.root, diagnosticFile), flattenBucket(bucket))
}

// Load reads a snapshot from a directory of bucket files. The
// diagnostic file and run metadata are not part of the snapshot.
// A missing directory loads as an empty snapshot (first run).
func Load(dir string) (*records.Snapshot, error) {
	snap := records.NewSnapshot()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return nil, errors.WrapIO("read", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if name == diagnosticFile || name == metaFile {
			continue
		}
		bucketName := strings.TrimSuffix(name, ".json")
		path := filepath.Join(dir, name)
		bucket, err := loadBucket(path, bucketName)
		if err != nil {
			return nil, err
		}
		snap.Buckets[bucketName] = bucket
	}
	return snap, nil
}

// Latest loads the previous run's snapshot and metadata, if any.
func (s *Store) Latest() (*records.Snapshot, *Meta, error) {
	snap, err := Load(filepath.Join(s.root, latestDir))
	if err != nil {
		return nil, nil, err
	}
	meta, err := s.readMeta()
	if err != nil {
		return nil, nil, err
	}
	return snap, meta, nil
}

// Rotate replaces the latest snapshot with the current output and
// stamps the run metadata, making this run the baseline for the next.
func (s *Store) Rotate(snap *records.Snapshot, meta Meta) error {
	dir := filepath.Join(s.root, latestDir)
	if err := os.RemoveAll(dir); err != nil {
		return errors.WrapIO("remove", dir, err)
	}
	latest := NewStore(dir)
	if err := latest.Write(snap); err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.root, metaFile)
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

func (s *Store) readMeta() (*Meta, error) {
	path := filepath.Join(s.root, metaFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapIO("read", path, err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.WrapIO("parse", path, err)
	}
	return &meta, nil
}

// flattenBucket renders records as flat JSON objects: Id, Name and
// Group beside the table-specific fields, matching the original output
// format. Map key order inside an object is encoding/json's sorted
// order, so output is byte-reproducible.
func flattenBucket(bucket *records.Bucket) []map[string]any {
	out := make([]map[string]any, 0, len(bucket.Records))
	for _, rec := range bucket.Records {
		obj := make(map[string]any, len(rec.Fields)+3)
		for k, v := range rec.Fields {
			obj[k] = v
		}
		obj["Id"] = rec.ID
		if rec.Name != "" {
			obj["Name"] = rec.Name
		}
		if rec.Group != "" {
			obj["Group"] = rec.Group
		}
		out = append(out, obj)
	}
	return out
}

func loadBucket(path, name string) (*records.Bucket, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapIO("parse", path, err)
	}
	bucket := records.NewBucket(name)
	for _, obj := range raw {
		rec := records.Record{Fields: make(map[string]any)}
		for key, value := range obj {
			switch key {
			case "Id":
				rec.ID, _ = value.(string)
			case "Name":
				rec.Name, _ = value.(string)
			case "Group":
				rec.Group, _ = value.(string)
			default:
				rec.Fields[key] = value
			}
		}
		bucket.Add(rec)
	}
	return bucket, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), filePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
