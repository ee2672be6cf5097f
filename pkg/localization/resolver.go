package localization

import "strings"

// Transform is one deterministic key rewrite tried when a direct lookup
// misses. The source naming convention derives alternate keys by prefix,
// so a miss on one spelling often hits under another.
type Transform struct {
	Prefix      string `yaml:"prefix"`
	Replacement string `yaml:"replacement"`
}

// Apply rewrites the key if it carries the transform's prefix. The
// second return reports whether the transform applied.
func (t Transform) Apply(key string) (string, bool) {
	if t.Prefix == "" || !strings.HasPrefix(key, t.Prefix) {
		return key, false
	}
	return t.Replacement + strings.TrimPrefix(key, t.Prefix), true
}

// DefaultTransforms are the known prefix substitutions between source
// tables and the localization tables, tried in order.
func DefaultTransforms() []Transform {
	return []Transform{
		{Prefix: "UI_", Replacement: ""},
		{Prefix: "BLD_", Replacement: "BUILD_"},
		{Prefix: "PROD_", Replacement: "PRODUCT_"},
	}
}

// Resolver resolves name keys against a merged Table with deterministic
// fallback behavior. It never fails on a non-empty key: worst case it
// returns a formatted rendering of the raw key. The empty key resolves
// to empty text, which tells the caller to derive a display name from
// the record id instead.
type Resolver struct {
	table      *Table
	transforms []Transform
}

// NewResolver creates a resolver over the merged table. A nil or empty
// transform list falls back to DefaultTransforms.
func NewResolver(table *Table, transforms []Transform) *Resolver {
	if len(transforms) == 0 {
		transforms = DefaultTransforms()
	}
	return &Resolver{table: table, transforms: transforms}
}

// Resolve returns the display text for a key. Lookup order: the direct
// key, the key under each prefix substitution, the key with the _NAME
// suffix convention applied, and finally FormatKey of the raw key.
func (r *Resolver) Resolve(key string) string {
	text, _ := r.Lookup(key)
	return text
}

// Lookup resolves a key and reports whether a real translation was
// found, as opposed to a synthesized fallback. The validator uses the
// distinction; callers that just need a display name use Resolve.
func (r *Resolver) Lookup(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if text, ok := r.table.Get(key); ok {
		return text, true
	}
	for _, tr := range r.transforms {
		candidate, applied := tr.Apply(key)
		if !applied {
			continue
		}
		if text, ok := r.table.Get(candidate); ok {
			return text, true
		}
	}
	if !strings.HasSuffix(key, "_NAME") {
		if text, ok := r.table.Get(key + "_NAME"); ok {
			return text, true
		}
	}
	return FormatKey(key), false
}
