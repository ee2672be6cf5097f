// Package localization merges the game's localization tables into a
// single lookup and resolves record name keys into display names. The
// resolver is total: a lookup never fails, it degrades to a formatted
// rendering of the raw key so every record gets a displayable name.
package localization

import (
	"regexp"
	"strings"
)

// markupTags matches the game's inline markup, e.g. <TECHNOLOGY>...<>
// or <IMG>...</>, which must not leak into display text.
var markupTags = regexp.MustCompile(`<[^>]*>`)

// Source is one key→text table with its position in the merge order.
// The order of Sources passed to Merge is the fixed priority list:
// overlapping keys across tables do occur and must resolve the same
// way every run.
type Source struct {
	Name    string
	Entries map[string]string
}

// Table is the merged localization lookup, built once at startup and
// read-only afterwards.
type Table struct {
	entries map[string]string
}

// Merge builds a Table from sources in priority order. The first table
// to define a key wins; later tables never overwrite it.
func Merge(sources ...Source) *Table {
	merged := make(map[string]string)
	for _, src := range sources {
		for key, text := range src.Entries {
			if key == "" || text == "" {
				continue
			}
			if _, exists := merged[key]; exists {
				continue
			}
			text = StripMarkup(text)
			if strings.HasSuffix(key, "_NAME") {
				text = TitleCase(text)
			}
			merged[key] = text
		}
	}
	return &Table{entries: merged}
}

// Len returns the number of merged entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Get returns the text for a key and whether the key exists.
func (t *Table) Get(key string) (string, bool) {
	text, ok := t.entries[key]
	return text, ok
}

// StripMarkup removes game markup tags from localized text.
// e.g. "<TECHNOLOGY>freighter's emergency log<>" -> "freighter's emergency log".
func StripMarkup(text string) string {
	if text == "" {
		return text
	}
	return markupTags.ReplaceAllString(text, "")
}
