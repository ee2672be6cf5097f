// Package router assigns validated records to output buckets. Matching
// is by exact group membership against an ordered rule list. Substring
// matching is deliberately not supported: it previously swept tags
// containing a generic word into unrelated buckets.
package router

import (
	"github.com/bradhave/nmsdata/pkg/records"
)

// Rule maps one bucket to the exact set of group tags it claims.
type Rule struct {
	Bucket string   `yaml:"bucket"`
	Groups []string `yaml:"groups"`
}

// Router routes records by evaluating rules in their configured order.
// Order is load-bearing: when a group is deliberately listed in two
// buckets' sets, the earlier rule wins, which is the configuration's
// override mechanism.
type Router struct {
	rules  []Rule
	groups []map[string]bool
}

// New creates a Router from an ordered rule list.
func New(rules []Rule) *Router {
	sets := make([]map[string]bool, len(rules))
	for i, rule := range rules {
		set := make(map[string]bool, len(rule.Groups))
		for _, g := range rule.Groups {
			set[g] = true
		}
		sets[i] = set
	}
	return &Router{rules: rules, groups: sets}
}

// Route returns the name of the first bucket whose exact-match set
// contains the record's group. ok is false when no rule matches; such
// records belong in the diagnostic catch-all, not an error path.
func (r *Router) Route(rec records.Record) (string, bool) {
	for i, set := range r.groups {
		if set[rec.Group] {
			return r.rules[i].Bucket, true
		}
	}
	return "", false
}

// Buckets returns the bucket names in rule order.
func (r *Router) Buckets() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Bucket
	}
	return names
}
