// Package config loads the extraction rule set: bucket definitions with
// their exact-match group sets, exclusion keywords, name-filter
// exemptions, per-bucket dedupe policies, localization merge order, and
// the differ's ignore-list. All of it is data handed to the engine, not
// logic baked into it: editing the YAML is how routing behavior changes.
package config

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/bradhave/nmsdata/internal/embedded"
	"github.com/bradhave/nmsdata/pkg/dedupe"
	"github.com/bradhave/nmsdata/pkg/errors"
	"github.com/bradhave/nmsdata/pkg/localization"
	"github.com/bradhave/nmsdata/pkg/router"
)

// Bucket configures one output bucket. Buckets appear in the file in
// evaluation order; the router preserves that order.
type Bucket struct {
	// Name is the bucket (and output file base) name.
	Name string `yaml:"name"`

	// Groups is the exact-match set of category tags routed here.
	// Empty for buckets fed directly by a source table.
	Groups []string `yaml:"groups,omitempty"`

	// ExemptGroups lists category tags exempt from the
	// untranslated-name validation rules.
	ExemptGroups []string `yaml:"exempt_groups,omitempty"`

	// Dedupe selects the duplicate-id policy for this bucket.
	Dedupe dedupe.Policy `yaml:"dedupe"`

	// Slug is the path prefix prepended to record ids for web links.
	Slug string `yaml:"slug,omitempty"`

	// Table optionally feeds a source table straight into this bucket,
	// bypassing group routing.
	Table string `yaml:"table,omitempty"`

	// Where filters a direct table feed: only records whose named field
	// equals the given value are taken. This is how one source table
	// legitimately feeds two buckets split by a flag.
	Where map[string]any `yaml:"where,omitempty"`
}

// Localization configures the resolver.
type Localization struct {
	// MergeOrder is the fixed priority list of localization tables.
	// First writer wins on key collisions, so order matters.
	MergeOrder []string `yaml:"merge_order"`

	// Transforms are the prefix substitutions tried on a lookup miss.
	Transforms []localization.Transform `yaml:"transforms,omitempty"`
}

// Config is the full rule set.
type Config struct {
	Localization        Localization `yaml:"localization"`
	RouteTables         []string     `yaml:"route_tables"`
	ExclusionKeywords   []string     `yaml:"exclusion_keywords"`
	PlaceholderPrefixes []string     `yaml:"placeholder_prefixes,omitempty"`
	DiffIgnoreFields    []string     `yaml:"diff_ignore_fields,omitempty"`
	Buckets             []Bucket     `yaml:"buckets"`
}

// Load reads a rule set from path, or the embedded default rule set
// when path is empty.
func Load(path string) (*Config, error) {
	var data []byte
	var err error
	if path == "" {
		data, err = embedded.FS.ReadFile("rules.yaml")
		if err != nil {
			return nil, &errors.ConfigError{Component: "rules", Message: "embedded rule set missing", Err: err}
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapIO("read", path, err)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &errors.ConfigError{Component: "rules", Message: "invalid rule set", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects rule sets the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.Buckets) == 0 {
		return &errors.ConfigError{Component: "rules", Message: "no buckets defined"}
	}
	seen := make(map[string]bool, len(c.Buckets))
	for _, bucket := range c.Buckets {
		if bucket.Name == "" {
			return &errors.ConfigError{Component: "rules", Message: "bucket with empty name"}
		}
		if seen[bucket.Name] {
			return &errors.ConfigError{Component: "rules", Message: "duplicate bucket name " + bucket.Name}
		}
		seen[bucket.Name] = true
		if !bucket.Dedupe.Valid() {
			return &errors.ConfigError{
				Component: "rules",
				Message:   "bucket " + bucket.Name + " has unknown dedupe policy",
			}
		}
		if len(bucket.Groups) == 0 && bucket.Table == "" {
			return &errors.ConfigError{
				Component: "rules",
				Message:   "bucket " + bucket.Name + " has neither groups nor a source table",
			}
		}
	}
	if len(c.Localization.MergeOrder) == 0 {
		return &errors.ConfigError{Component: "rules", Message: "localization merge_order is empty"}
	}
	return nil
}

// RouterRules converts the routed buckets to the router's ordered rule
// list, preserving file order.
func (c *Config) RouterRules() []router.Rule {
	rules := make([]router.Rule, 0, len(c.Buckets))
	for _, bucket := range c.Buckets {
		if len(bucket.Groups) == 0 {
			continue
		}
		rules = append(rules, router.Rule{Bucket: bucket.Name, Groups: bucket.Groups})
	}
	return rules
}

// ExemptGroups returns the union of every bucket's exemption set.
func (c *Config) ExemptGroups() []string {
	var out []string
	for _, bucket := range c.Buckets {
		out = append(out, bucket.ExemptGroups...)
	}
	return out
}

// DedupePolicies returns the per-bucket policy assignment.
func (c *Config) DedupePolicies() map[string]dedupe.Policy {
	out := make(map[string]dedupe.Policy, len(c.Buckets))
	for _, bucket := range c.Buckets {
		out[bucket.Name] = bucket.Dedupe
	}
	return out
}

// Slugs returns the per-bucket slug prefixes.
func (c *Config) Slugs() map[string]string {
	out := make(map[string]string, len(c.Buckets))
	for _, bucket := range c.Buckets {
		if bucket.Slug != "" {
			out[bucket.Name] = bucket.Slug
		}
	}
	return out
}
