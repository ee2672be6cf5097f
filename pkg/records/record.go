// Package records defines the data model shared by every stage of the
// extraction pipeline: records handed over by the upstream converter,
// the buckets they are routed into, and the per-run snapshot the differ
// consumes.
package records

import "sort"

// Record is one item extracted from a source table, before categorization.
// It is created by the upstream extraction step and treated as immutable
// by the core; stages that need to change a record copy it first.
type Record struct {
	// ID is the stable game identifier, unique within a source table
	// but not globally.
	ID string `json:"Id" yaml:"id"`

	// Group is the free-text category tag supplied by the source table.
	// It drives routing.
	Group string `json:"Group" yaml:"group"`

	// NameKey is the localization key the display name resolves from.
	NameKey string `json:"NameKey,omitempty" yaml:"name_key,omitempty"`

	// Name is the resolved display name. Empty until the localization
	// resolver has run.
	Name string `json:"Name,omitempty" yaml:"name,omitempty"`

	// Fields holds the table-specific payload (values are JSON-shaped:
	// strings, numbers, bools, slices, nested maps).
	Fields map[string]any `json:"Fields,omitempty" yaml:"fields,omitempty"`
}

// Clone returns a deep copy of the record. Fields values that are maps
// or slices are copied one level deep, which is enough for the
// JSON-shaped payloads the converter emits.
func (r Record) Clone() Record {
	out := r
	if r.Fields != nil {
		out.Fields = cloneFields(r.Fields)
	}
	return out
}

// FieldNames returns the record's field names in sorted order.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneFields(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
