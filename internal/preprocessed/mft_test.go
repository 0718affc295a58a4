package preprocessed

import (
	"testing"

	"github.com/ntfs-forensics/mft2bodyfile/internal/mftrecord"
	"github.com/ntfs-forensics/mft2bodyfile/internal/mftref"
	"github.com/ntfs-forensics/mft2bodyfile/internal/usnjrnl"
)

type fakeRecord struct {
	recordNumber  uint64
	sequence      uint16
	baseReference mftref.Reference
	usedEntrySize uint32
	allocated     bool
	isDir         bool
	attrs         []mftrecord.Attribute
}

func (r fakeRecord) RecordNumber() uint64            { return r.recordNumber }
func (r fakeRecord) Sequence() uint16                { return r.sequence }
func (r fakeRecord) BaseReference() mftref.Reference { return r.baseReference }
func (r fakeRecord) UsedEntrySize() uint32           { return r.usedEntrySize }
func (r fakeRecord) IsAllocated() bool               { return r.allocated }
func (r fakeRecord) IsDir() bool                     { return r.isDir }
func (r fakeRecord) Attributes() ([]mftrecord.Attribute, error) {
	return r.attrs, nil
}

func siAttr() mftrecord.Attribute {
	return mftrecord.Attribute{
		Header:               mftrecord.AttributeHeader{TypeCode: mftrecord.AttrStandardInformation, Instance: 1},
		StandardInformation: &mftrecord.StandardInformation{},
	}
}

func fnAttr(name string, ns uint8, parent mftref.Reference) mftrecord.Attribute {
	return mftrecord.Attribute{
		Header: mftrecord.AttributeHeader{TypeCode: mftrecord.AttrFileName, Instance: 1},
		FileName: &mftrecord.FileNameAttribute{
			Name:      name,
			Namespace: ns,
			Parent:    parent,
		},
	}
}

func TestShouldSkipRecord_ReservedRange(t *testing.T) {
	for n := uint64(12); n < 24; n++ {
		skip, _ := ShouldSkipRecord(fakeRecord{recordNumber: n, usedEntrySize: 1024})
		if !skip {
			t.Errorf("record %d: expected skip", n)
		}
	}
	skip, _ := ShouldSkipRecord(fakeRecord{recordNumber: 24, usedEntrySize: 1024})
	if skip {
		t.Errorf("record 24 should not be skipped")
	}
}

func TestShouldSkipRecord_EmptyUsedSize(t *testing.T) {
	skip, reason := ShouldSkipRecord(fakeRecord{recordNumber: 100, usedEntrySize: 0})
	if !skip || reason == "" {
		t.Errorf("expected skip with reason, got skip=%v reason=%q", skip, reason)
	}
}

func TestAddEntry_NonbaseUnallocatedIsDiscarded(t *testing.T) {
	m := New()
	base := mftref.New(10, 1)
	nonbase := fakeRecord{recordNumber: 11, sequence: 1, baseReference: base, allocated: false, attrs: []mftrecord.Attribute{fnAttr("x", 1, mftref.New(5, 1))}}

	if err := m.AddEntry(nonbase); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0 (unallocated nonbase discarded)", m.Len())
	}
}

func TestAddEntry_BaseThenNonbase(t *testing.T) {
	m := New()
	ref := mftref.New(10, 1)
	root := mftref.New(5, 1)

	base := fakeRecord{recordNumber: 10, sequence: 1, allocated: true, attrs: []mftrecord.Attribute{siAttr(), fnAttr("a.txt", 2 /*DOS*/, root)}}
	if err := m.AddEntry(base); err != nil {
		t.Fatalf("AddEntry(base): %v", err)
	}

	nonbase := fakeRecord{recordNumber: 11, sequence: 1, baseReference: ref, allocated: true, attrs: []mftrecord.Attribute{fnAttr("a.txt", 3 /*Win32AndDos*/, root)}}
	if err := m.AddEntry(nonbase); err != nil {
		t.Fatalf("AddEntry(nonbase): %v", err)
	}

	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
}

func TestGetFullPath_DirectHit(t *testing.T) {
	m := New()
	root := mftref.New(5, 1)
	if err := m.AddEntry(fakeRecord{recordNumber: 5, sequence: 1, allocated: true, attrs: []mftrecord.Attribute{siAttr()}}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	result := m.GetFullPath(root)
	if !result.Matched || result.FullPath != "/" {
		t.Errorf("GetFullPath(root) = %+v", result)
	}
}

func TestGetFullPath_SequenceIncrementedFallback(t *testing.T) {
	m := New()
	root := mftref.New(5, 1)
	if err := m.AddEntry(fakeRecord{recordNumber: 5, sequence: 1, allocated: true, attrs: []mftrecord.Attribute{siAttr()}}); err != nil {
		t.Fatalf("AddEntry(root): %v", err)
	}

	// Only (40, 2) exists (unallocated); a lookup for (40, 1) must fall
	// back to it.
	unalloc := fakeRecord{recordNumber: 40, sequence: 2, allocated: false, attrs: []mftrecord.Attribute{siAttr(), fnAttr("RECYCLER", 1, root)}}
	if err := m.AddEntry(unalloc); err != nil {
		t.Fatalf("AddEntry(unalloc): %v", err)
	}

	result := m.GetFullPath(mftref.New(40, 1))
	if !result.Matched {
		t.Fatalf("expected sequence-incremented fallback to match")
	}
	if result.FullPath != "/RECYCLER" {
		t.Errorf("FullPath = %q, want /RECYCLER", result.FullPath)
	}
	if result.MatchedReference != mftref.New(40, 2) {
		t.Errorf("MatchedReference = %v, want (40,2)", result.MatchedReference)
	}
}

func TestGetFullPath_OrphanFallback(t *testing.T) {
	m := New()
	result := m.GetFullPath(mftref.New(9999, 1))
	if result.Matched {
		t.Errorf("expected no match for never-seen reference")
	}
	if result.FullPath != "/$OrphanFiles" {
		t.Errorf("FullPath = %q, want /$OrphanFiles", result.FullPath)
	}
}

func TestAddUsnjrnlRecords_OrphanEntryCreated(t *testing.T) {
	m := New()
	ref := mftref.New(12345, 1)
	records := []usnjrnl.Record{{Data: usnjrnl.RecordV2{FileReferenceNumber: ref}}}
	m.AddUsnjrnlRecords(ref, records)

	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
	result := m.GetFullPath(ref)
	if result.FullPath != "unnamed_12345_1" {
		t.Errorf("FullPath = %q, want unnamed_12345_1", result.FullPath)
	}
}

func TestIterBodyfileLines_DrainsAllEntries(t *testing.T) {
	m := New()
	root := mftref.New(5, 1)
	if err := m.AddEntry(fakeRecord{recordNumber: 5, sequence: 1, allocated: true, attrs: []mftrecord.Attribute{siAttr()}}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if err := m.AddEntry(fakeRecord{recordNumber: 10, sequence: 1, allocated: true, attrs: []mftrecord.Attribute{siAttr(), fnAttr("a.txt", 1, root)}}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	var count int
	for range m.IterBodyfileLines(false) {
		count++
	}
	// root: 1 SI line. second entry: 1 SI + 1 FN.
	if count != 3 {
		t.Errorf("got %d lines, want 3", count)
	}
}
