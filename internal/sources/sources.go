// Package sources reads the upstream converter's output: one JSON
// record stream per source table, and one key→text JSON mapping per
// localization table. The core never parses the game's binary or MXML
// formats; that conversion is an external collaborator, and this
// package holds it to its contract.
package sources

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bradhave/nmsdata/pkg/errors"
	"github.com/bradhave/nmsdata/pkg/localization"
	"github.com/bradhave/nmsdata/pkg/logging"
	"github.com/bradhave/nmsdata/pkg/records"
)

// reservedKeys are record-level keys lifted out of the JSON object;
// everything else lands in Fields.
var reservedKeys = map[string]bool{
	"Id":      true,
	"Group":   true,
	"NameKey": true,
	"Name":    true,
}

// Loader reads converter output from a data directory laid out as
// records/<Table>.json and lang/<table>.json.
type Loader struct {
	dir string
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Records reads one source table's record stream. An absent or
// malformed stream is a contract violation by the upstream converter
// and aborts the run.
func (l *Loader) Records(table string) ([]records.Record, error) {
	path := filepath.Join(l.dir, "records", table+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewSourceError(table, path, "record stream missing", err)
	}

	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewSourceError(table, path, "record stream malformed", err)
	}

	out := make([]records.Record, 0, len(raw))
	for i, obj := range raw {
		rec, err := decodeRecord(obj)
		if err != nil {
			return nil, errors.NewSourceError(table, path, "record stream malformed", err)
		}
		if rec.ID == "" {
			logging.Warn().Str("table", table).Int("index", i).Msg("record without id skipped")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeRecord(obj map[string]json.RawMessage) (records.Record, error) {
	var rec records.Record
	for _, key := range []struct {
		name   string
		target *string
	}{
		{"Id", &rec.ID},
		{"Group", &rec.Group},
		{"NameKey", &rec.NameKey},
		{"Name", &rec.Name},
	} {
		if raw, ok := obj[key.name]; ok {
			if err := json.Unmarshal(raw, key.target); err != nil {
				return rec, err
			}
		}
	}
	for name, raw := range obj {
		if reservedKeys[name] {
			continue
		}
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return rec, err
		}
		if rec.Fields == nil {
			rec.Fields = make(map[string]any)
		}
		rec.Fields[name] = value
	}
	return rec, nil
}

// Localization reads the named localization tables in the given merge
// order. A missing table is skipped with a warning (translations then
// fall through to the next table or the resolver's formatted fallback),
// but a present-but-malformed table is fatal.
func (l *Loader) Localization(mergeOrder []string) ([]localization.Source, error) {
	out := make([]localization.Source, 0, len(mergeOrder))
	for _, name := range mergeOrder {
		path := filepath.Join(l.dir, "lang", name+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				logging.Warn().Str("table", name).Msg("localization table not found, skipping")
				continue
			}
			return nil, errors.WrapIO("read", path, err)
		}
		var entries map[string]string
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, errors.NewSourceError(name, path, "localization table malformed", err)
		}
		out = append(out, localization.Source{Name: name, Entries: entries})
	}
	return out, nil
}
