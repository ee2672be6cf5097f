package records

// Bucket is one named output collection. Records keep their insertion
// order; output file content is the bucket serialized as an ordered
// JSON array.
type Bucket struct {
	Name    string   `json:"name" yaml:"name"`
	Records []Record `json:"records" yaml:"records"`
}

// NewBucket creates an empty bucket with the given name.
func NewBucket(name string) *Bucket {
	return &Bucket{Name: name}
}

// Add appends a record to the bucket.
func (b *Bucket) Add(rec Record) {
	b.Records = append(b.Records, rec)
}

// Len returns the number of records in the bucket.
func (b *Bucket) Len() int {
	return len(b.Records)
}

// IDs returns the record ids in insertion order.
func (b *Bucket) IDs() []string {
	ids := make([]string, len(b.Records))
	for i, rec := range b.Records {
		ids[i] = rec.ID
	}
	return ids
}

// ByID indexes the bucket's records by id. When an id occurs more than
// once the first occurrence wins, matching the keep-first dedupe policy.
func (b *Bucket) ByID() map[string]Record {
	out := make(map[string]Record, len(b.Records))
	for _, rec := range b.Records {
		if _, exists := out[rec.ID]; !exists {
			out[rec.ID] = rec
		}
	}
	return out
}
