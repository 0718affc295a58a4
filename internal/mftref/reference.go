// Package mftref defines the MftReference identifier shared by every
// layer of the reconstruction engine: the MFT decoder, the USN journal
// decoder, the preprocessed map, and bodyfile emission.
package mftref

import "fmt"

// Reference identifies one generation of an MFT record: the record
// number plus the sequence number that is bumped each time the slot is
// reused. The zero value, (0, 0), denotes "no parent" / "base
// self-reference" per the on-disk convention.
type Reference struct {
	Entry    uint64
	Sequence uint16
}

// New builds a Reference from its two fields.
func New(entry uint64, sequence uint16) Reference {
	return Reference{Entry: entry, Sequence: sequence}
}

// IsZero reports whether r is the (0,0) sentinel used by base records
// to mean "I have no parent; I am myself a base record."
func (r Reference) IsZero() bool {
	return r.Entry == 0 && r.Sequence == 0
}

// NextSequence returns the reference with the same entry number and the
// sequence incremented by one. This is the fallback lookup key used by
// PreprocessedMft.GetFullPath when a parent reference can't be resolved
// directly (see spec.md §4.4).
func (r Reference) NextSequence() Reference {
	return Reference{Entry: r.Entry, Sequence: r.Sequence + 1}
}

func (r Reference) String() string {
	return fmt.Sprintf("%d-%d", r.Entry, r.Sequence)
}
