package differ

// Option is a functional option for configuring a Differ.
type Option func(*differ)

// WithIgnoredFields sets volatile fields to skip during comparison
// (e.g. derived asset URLs that differ every run).
func WithIgnoredFields(fields ...string) Option {
	return func(d *differ) {
		for _, field := range fields {
			d.ignoreFields[field] = true
		}
	}
}
