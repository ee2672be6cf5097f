package records

import "sort"

// Snapshot is the complete set of buckets produced by one run, keyed by
// bucket name. The previous run's snapshot is read-only input to the
// differ and is never mutated.
type Snapshot struct {
	Buckets map[string]*Bucket `json:"buckets" yaml:"buckets"`
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{Buckets: make(map[string]*Bucket)}
}

// Bucket returns the named bucket, creating it if absent.
func (s *Snapshot) Bucket(name string) *Bucket {
	b, ok := s.Buckets[name]
	if !ok {
		b = NewBucket(name)
		s.Buckets[name] = b
	}
	return b
}

// BucketNames returns bucket names in sorted order so every iteration
// over a snapshot is reproducible.
func (s *Snapshot) BucketNames() []string {
	names := make([]string, 0, len(s.Buckets))
	for name := range s.Buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TotalRecords counts records across all buckets.
func (s *Snapshot) TotalRecords() int {
	total := 0
	for _, b := range s.Buckets {
		total += b.Len()
	}
	return total
}
