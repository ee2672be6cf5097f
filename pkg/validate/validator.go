// Package validate decides whether a record's resolved name is usable.
// Records that fail are not dropped: the caller shunts them to the
// diagnostic stream so an operator can review what the filters caught.
package validate

import (
	"strings"

	"github.com/bradhave/nmsdata/pkg/records"
)

// Reason identifies which rule rejected a record.
type Reason string

const (
	// ReasonOK means the record passed every rule.
	ReasonOK Reason = ""
	// ReasonEmptyName means the resolved name is absent or blank.
	ReasonEmptyName Reason = "empty-name"
	// ReasonPlaceholderPrefix means the name begins with a known raw-key
	// prefix, indicating an untranslated internal key leaked through.
	ReasonPlaceholderPrefix Reason = "placeholder-prefix"
	// ReasonEqualsID means a translated name equals the raw id
	// case-insensitively, indicating the translation is just the id
	// echoed back.
	ReasonEqualsID Reason = "equals-id"
	// ReasonExclusionKeyword means the group or name contains a
	// developer-internal keyword.
	ReasonExclusionKeyword Reason = "exclusion-keyword"
)

// Verdict is the outcome of checking one record.
type Verdict struct {
	Usable bool
	Reason Reason
	// Keyword is set when Reason is ReasonExclusionKeyword.
	Keyword string
}

// DefaultPlaceholderPrefixes are key prefixes that indicate a raw
// internal identifier leaked into display text untranslated.
func DefaultPlaceholderPrefixes() []string {
	return []string{"UI_", "LOC_", "TKLOC_"}
}

// Validator applies the name-usability rules. All rule inputs are data:
// placeholder prefixes, the global exclusion keyword set, and the groups
// exempt from the untranslated-name rules.
type Validator struct {
	placeholderPrefixes []string
	exclusionKeywords   []string
	exemptGroups        map[string]bool
}

// New creates a Validator. Nil placeholder prefixes fall back to
// DefaultPlaceholderPrefixes. Exclusion keywords are matched
// case-insensitively as substrings of the group and the resolved name.
func New(placeholderPrefixes, exclusionKeywords, exemptGroups []string) *Validator {
	if placeholderPrefixes == nil {
		placeholderPrefixes = DefaultPlaceholderPrefixes()
	}
	exempt := make(map[string]bool, len(exemptGroups))
	for _, g := range exemptGroups {
		exempt[g] = true
	}
	keywords := make([]string, len(exclusionKeywords))
	for i, kw := range exclusionKeywords {
		keywords[i] = strings.ToUpper(kw)
	}
	return &Validator{
		placeholderPrefixes: placeholderPrefixes,
		exclusionKeywords:   keywords,
		exemptGroups:        exempt,
	}
}

// Check applies the rejection rules to a record and its resolved name.
// translated reports whether the name came from a localization entry;
// names synthesized by formatting the name key are readable derivations
// and skip the equals-id rule, which exists to catch translations that
// are just the raw id echoed back.
//
// The exclusion-keyword rule runs first and applies to every record,
// exempt or not: a record that matches both an exemption and a junk
// keyword is still rejected by the keyword rule. The exemption set only
// suppresses the untranslated-looking rules (placeholder prefix and
// name-equals-id), because some groups legitimately derive display
// names from internal keys and have no localization entries.
func (v *Validator) Check(rec records.Record, resolvedName string, translated bool) Verdict {
	if keyword := v.matchKeyword(rec.Group); keyword != "" {
		return Verdict{Reason: ReasonExclusionKeyword, Keyword: keyword}
	}
	if keyword := v.matchKeyword(resolvedName); keyword != "" {
		return Verdict{Reason: ReasonExclusionKeyword, Keyword: keyword}
	}

	if strings.TrimSpace(resolvedName) == "" {
		return Verdict{Reason: ReasonEmptyName}
	}

	if v.exemptGroups[rec.Group] {
		return Verdict{Usable: true}
	}

	for _, prefix := range v.placeholderPrefixes {
		if strings.HasPrefix(resolvedName, prefix) {
			return Verdict{Reason: ReasonPlaceholderPrefix}
		}
	}

	if translated && strings.EqualFold(resolvedName, rec.ID) {
		return Verdict{Reason: ReasonEqualsID}
	}

	return Verdict{Usable: true}
}

func (v *Validator) matchKeyword(text string) string {
	if text == "" {
		return ""
	}
	upper := strings.ToUpper(text)
	for _, kw := range v.exclusionKeywords {
		if kw != "" && strings.Contains(upper, kw) {
			return kw
		}
	}
	return ""
}
