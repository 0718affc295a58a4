package usnjrnl

import "github.com/ntfs-forensics/mft2bodyfile/internal/mftref"

// Index groups raw $UsnJrnl:$J records by the file reference they
// target, per spec.md §4.5. Within a bucket, records are kept in
// arrival order; the final sort-by-timestamp happens only once a
// bucket is handed to a CompleteMftEntry (internal/mftentry).
type Index struct {
	buckets map[mftref.Reference][]Record
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{buckets: make(map[mftref.Reference][]Record)}
}

// Insert appends a record to the bucket for its FileReferenceNumber.
func (idx *Index) Insert(rec Record) {
	key := rec.Data.FileReferenceNumber
	idx.buckets[key] = append(idx.buckets[key], rec)
}

// Len returns the number of distinct file references with at least one
// buffered record.
func (idx *Index) Len() int {
	return len(idx.buckets)
}

// IsEmpty reports whether the index holds no records at all.
func (idx *Index) IsEmpty() bool {
	return len(idx.buckets) == 0
}

// Bucket is one (reference, records) pair yielded by Drain.
type Bucket struct {
	Reference mftref.Reference
	Records   []Record
}

// Drain returns every bucket in the index and clears it. Iteration
// order over the underlying map is unspecified, matching spec.md §9's
// "no global sort" design note — only within a bucket is order
// meaningful, and that's established later by the consumer.
func (idx *Index) Drain() []Bucket {
	out := make([]Bucket, 0, len(idx.buckets))
	for ref, records := range idx.buckets {
		out = append(out, Bucket{Reference: ref, Records: records})
	}
	idx.buckets = make(map[mftref.Reference][]Record)
	return out
}
