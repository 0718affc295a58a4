// Package preprocessed holds the reconstructed $MFT as a whole: every
// CompleteMftEntry keyed by its base reference, plus the three-tier
// path-resolution fallback spec.md §4.4 describes.
package preprocessed

import (
	"github.com/ntfs-forensics/mft2bodyfile/internal/bodyfile"
	"github.com/ntfs-forensics/mft2bodyfile/internal/mftentry"
	"github.com/ntfs-forensics/mft2bodyfile/internal/mftrecord"
	"github.com/ntfs-forensics/mft2bodyfile/internal/mftref"
	"github.com/ntfs-forensics/mft2bodyfile/internal/usnjrnl"
)

// recordNumberExclusionStart/End bound the $MFT's own self-extension
// segment (record numbers 12 through 23 inclusive), which never
// represent a real file and are dropped before ingest.
const (
	recordNumberExclusionStart = 12
	recordNumberExclusionEnd   = 24
)

// Mft is the reconstructed $MFT: a map from base reference to
// CompleteMftEntry, built by a single producer thread and thereafter
// read concurrently-safe only because nothing mutates it until merge.
type Mft struct {
	entries map[mftref.Reference]*mftentry.Entry
}

// New returns an empty Mft.
func New() *Mft {
	return &Mft{entries: make(map[mftref.Reference]*mftentry.Entry)}
}

// ShouldSkipRecord reports whether rec should be dropped before
// AddEntry ever sees it, per spec.md §4.4's ingest filters, along with a
// human-readable reason for logging.
func ShouldSkipRecord(rec mftrecord.Record) (skip bool, reason string) {
	n := rec.RecordNumber()
	if n >= recordNumberExclusionStart && n < recordNumberExclusionEnd {
		return true, "reserved $MFT self-extension record"
	}
	if rec.UsedEntrySize() == 0 {
		return true, "allocated-but-empty record"
	}
	return false, ""
}

// AddEntry folds one $MFT record into the map, per spec.md §4.4:
// base records create-or-update the entry at their own reference;
// allocated nonbase records fold into the entry at their
// BaseReference, creating it if absent; unallocated nonbase records are
// discarded outright.
func (m *Mft) AddEntry(rec mftrecord.Record) error {
	ref := mftref.New(rec.RecordNumber(), rec.Sequence())

	if rec.BaseReference().IsZero() {
		if existing, ok := m.entries[ref]; ok {
			return existing.SetBaseEntry(ref, rec)
		}
		e, err := mftentry.FromBaseEntry(ref, rec)
		if err != nil {
			return err
		}
		m.entries[ref] = e
		return nil
	}

	if !rec.IsAllocated() {
		return nil
	}

	base := rec.BaseReference()
	if existing, ok := m.entries[base]; ok {
		return existing.AddNonbaseEntry(rec)
	}
	e, err := mftentry.FromNonbaseEntry(rec)
	if err != nil {
		return err
	}
	m.entries[base] = e
	return nil
}

// AddUsnjrnlRecords folds a bucket of journal records — already grouped
// by FileReferenceNumber by internal/usnjrnl.Index — into the entry at
// ref, creating a journal-only entry if the $MFT ingest never produced
// one (an orphan).
func (m *Mft) AddUsnjrnlRecords(ref mftref.Reference, records []usnjrnl.Record) {
	if existing, ok := m.entries[ref]; ok {
		existing.AddUsnjrnlRecords(records)
		return
	}
	m.entries[ref] = mftentry.FromUsnjrnlRecords(ref, records)
}

// GetFullPath resolves ref to a path using the three-tier lookup spec.md
// §4.4 describes: a direct hit, else the sequence-incremented fallback
// (only if that entry is unallocated), else the synthetic orphan
// bucket.
func (m *Mft) GetFullPath(ref mftref.Reference) mftentry.PathResult {
	if e, ok := m.entries[ref]; ok {
		return mftentry.PathResult{
			FullPath:         e.GetFullPath(m),
			IsAllocated:      e.IsAllocated(),
			MatchedReference: ref,
			Matched:          true,
		}
	}

	fallback := ref.NextSequence()
	if e, ok := m.entries[fallback]; ok && !e.IsAllocated() {
		return mftentry.PathResult{
			FullPath:         e.GetFullPath(m),
			IsAllocated:      false,
			MatchedReference: fallback,
			Matched:          true,
		}
	}

	return mftentry.PathResult{FullPath: "/$OrphanFiles", IsAllocated: false, Matched: false}
}

// Len reports how many entries the map holds.
func (m *Mft) Len() int { return len(m.entries) }

// IterBodyfileLines streams every line every entry contributes, in map
// iteration order across entries (spec.md §9: no global sort), and
// within one entry's group: SI, then FN, then journal lines most-recent
// first. The returned channel is closed once exhausted.
func (m *Mft) IterBodyfileLines(usnjrnlLongFlags bool) <-chan bodyfile.Line {
	ch := make(chan bodyfile.Line)
	go func() {
		defer close(ch)
		for _, e := range m.entries {
			for _, line := range e.BodyfileLines(m, usnjrnlLongFlags) {
				ch <- line
			}
		}
	}()
	return ch
}
