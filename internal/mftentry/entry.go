// Package mftentry reconstructs one file's complete metadata —
// $STANDARD_INFORMATION, the winning $FILE_NAME, and any $UsnJrnl:$J
// records — from however many base and nonbase $MFT records and journal
// entries describe it, and renders the result as bodyfile lines.
package mftentry

import (
	"fmt"

	"github.com/ntfs-forensics/mft2bodyfile/internal/bodyfile"
	"github.com/ntfs-forensics/mft2bodyfile/internal/filename"
	"github.com/ntfs-forensics/mft2bodyfile/internal/logger"
	"github.com/ntfs-forensics/mft2bodyfile/internal/mftrecord"
	"github.com/ntfs-forensics/mft2bodyfile/internal/mftref"
	"github.com/ntfs-forensics/mft2bodyfile/internal/timestamp"
	"github.com/ntfs-forensics/mft2bodyfile/internal/usnjrnl"
)

// Strict toggles the debug-build invariant behavior spec.md §7
// describes: when true, MultipleStandardInfo and
// MissingFileNameForAllocated abort (panic); when false (the default,
// matching a release build) they are logged at error level and the
// engine continues with best-effort data. cmd sets this from --strict.
var Strict = false

// attrTypeData and attrTypeIndexRoot are the inode "attribute_type"
// tokens spec.md §6 specifies for the bodyfile inode field.
const (
	attrTypeData      = 128 // 0x80, $DATA
	attrTypeIndexRoot = 144 // 0x90, $INDEX_ROOT
)

// DataAttribute records one $DATA stream's name (if any) and instance.
type DataAttribute struct {
	Name     string
	HasName  bool
	Instance uint16
}

// PathResult is what a PathIndex resolves a reference to.
type PathResult struct {
	FullPath         string
	IsAllocated      bool
	MatchedReference mftref.Reference
	Matched          bool
}

// PathIndex is the map-of-entries contract an Entry needs to resolve its
// parent's path recursively. internal/preprocessed.Mft implements it.
type PathIndex interface {
	GetFullPath(ref mftref.Reference) PathResult
}

// Entry is the reconstructed metadata for one file (CompleteMftEntry in
// spec.md §4.3).
type Entry struct {
	baseEntry      mftref.Reference
	fileName       *filename.Info
	standardInfo   *timestamp.Tuple
	fullPath       string
	pathResolved   bool
	isAllocated    bool
	isDirectory    bool
	usnRecords     []usnjrnl.Record
	dataAttributes []DataAttribute
	indexRoots     []uint16
}

// FromBaseEntry builds an Entry from a record known to be a base record
// (base_reference == (0,0)).
func FromBaseEntry(ref mftref.Reference, rec mftrecord.Record) (*Entry, error) {
	e := &Entry{
		baseEntry:   ref,
		isAllocated: rec.IsAllocated(),
		isDirectory: rec.IsDir(),
	}
	if err := e.updateAttributes(rec); err != nil {
		return nil, err
	}
	return e, nil
}

// FromNonbaseEntry builds an Entry from an allocated nonbase record. The
// base reference is taken from the record's own header, not the caller's
// key, matching spec.md §4.3.
func FromNonbaseEntry(rec mftrecord.Record) (*Entry, error) {
	e := &Entry{
		baseEntry:   rec.BaseReference(),
		isAllocated: false,
		isDirectory: false,
	}
	if err := e.updateAttributes(rec); err != nil {
		return nil, err
	}
	return e, nil
}

// FromUsnjrnlRecords builds a journal-only Entry (no MFT attributes at
// all) for a reference the $MFT ingest never produced — an orphan.
func FromUsnjrnlRecords(ref mftref.Reference, records []usnjrnl.Record) *Entry {
	sorted := append([]usnjrnl.Record(nil), records...)
	sortRecordsByTimestamp(sorted)
	return &Entry{
		baseEntry:   ref,
		isAllocated: false,
		usnRecords:  sorted,
	}
}

func sortRecordsByTimestamp(records []usnjrnl.Record) {
	// Insertion sort: journal buckets are small and this keeps the
	// comparison explicit and stable, matching the ascending-by-timestamp
	// order spec.md §4.3 requires.
	for i := 1; i < len(records); i++ {
		j := i
		for j > 0 && records[j-1].TimestampUnix() > records[j].TimestampUnix() {
			records[j-1], records[j] = records[j], records[j-1]
			j--
		}
	}
}

// BaseEntry returns the reference all of this entry's records share.
func (e *Entry) BaseEntry() mftref.Reference { return e.baseEntry }

// IsAllocated reports whether the base record was allocated. It is
// false for an entry built from a nonbase record or from journal
// records until a base record is folded in; nonbase records never
// change it.
func (e *Entry) IsAllocated() bool { return e.isAllocated }

// SetBaseEntry folds a (now-seen) base record into an entry that was
// previously created from a nonbase record or journal-only.
func (e *Entry) SetBaseEntry(ref mftref.Reference, rec mftrecord.Record) error {
	if ref != e.baseEntry {
		return &ErrInconsistentBaseReference{Want: e.baseEntry, Got: ref}
	}
	if err := e.updateAttributes(rec); err != nil {
		return err
	}
	e.isAllocated = rec.IsAllocated()
	e.isDirectory = rec.IsDir()
	return nil
}

// AddNonbaseEntry folds an allocated nonbase record's attributes in.
func (e *Entry) AddNonbaseEntry(rec mftrecord.Record) error {
	return e.updateAttributes(rec)
}

// AddUsnjrnlRecords appends journal records, keeping the running
// ascending-by-timestamp order spec.md §4.3/§4.5 requires.
func (e *Entry) AddUsnjrnlRecords(records []usnjrnl.Record) {
	sorted := append([]usnjrnl.Record(nil), records...)
	sortRecordsByTimestamp(sorted)
	if len(e.usnRecords) == 0 {
		e.usnRecords = sorted
		return
	}
	e.usnRecords = append(e.usnRecords, sorted...)
	sortRecordsByTimestamp(e.usnRecords)
}

// updateAttributes scans a record's StandardInformation/FileName/Data/
// IndexRoot attributes, adopting or folding each into the entry. It
// early-exits once both the standard info and a terminal ($Win32AndDos)
// filename attribute are present.
func (e *Entry) updateAttributes(rec mftrecord.Record) error {
	attrs, err := rec.Attributes()
	if err != nil {
		return err
	}

	for _, a := range attrs {
		switch a.Header.TypeCode {
		case mftrecord.AttrIndexRoot:
			e.indexRoots = append(e.indexRoots, a.Header.Instance)

		case mftrecord.AttrData:
			e.dataAttributes = append(e.dataAttributes, DataAttribute{
				Name:     a.Header.Name,
				HasName:  a.Header.NameOffset != 0,
				Instance: a.Header.Instance,
			})

		case mftrecord.AttrStandardInformation:
			if a.StandardInformation == nil {
				continue
			}
			if e.standardInfo != nil {
				if err := e.reportMultipleStandardInfo(); err != nil {
					return err
				}
				continue
			}
			tuple := timestamp.FromFiletimes(
				a.StandardInformation.Accessed,
				a.StandardInformation.MftModified,
				a.StandardInformation.Modified,
				a.StandardInformation.Created,
			)
			e.standardInfo = &tuple

		case mftrecord.AttrFileName:
			if a.FileName == nil {
				continue
			}
			fnAttr := filename.Attr{
				Name:        a.FileName.Name,
				Namespace:   filename.NamespaceFromRaw(a.FileName.Namespace),
				Parent:      a.FileName.Parent,
				LogicalSize: a.FileName.LogicalSize,
				Accessed:    a.FileName.Accessed,
				MftModified: a.FileName.MftModified,
				Modified:    a.FileName.Modified,
				Created:     a.FileName.Created,
			}
			if e.fileName == nil {
				info := filename.Build(fnAttr, a.Header.Instance)
				e.fileName = &info
			} else {
				e.fileName.Update(fnAttr, a.Header.Instance)
			}
		}

		if e.standardInfo != nil && e.fileName != nil && e.fileName.IsFinal() {
			return nil
		}
	}
	return nil
}

func (e *Entry) reportMultipleStandardInfo() error {
	err := &ErrMultipleStandardInfo{Reference: e.baseEntry}
	if Strict {
		panic(err.Error())
	}
	logger.Errorf("%s", err.Error())
	return nil
}

// Parent returns the parent reference of the winning $FILE_NAME
// attribute, if one is present.
func (e *Entry) Parent() (mftref.Reference, bool) {
	if e.fileName == nil {
		return mftref.Reference{}, false
	}
	return e.fileName.Parent(), true
}

// Filesize returns the winning $FILE_NAME attribute's logical size, or 0
// if there is none.
func (e *Entry) Filesize() uint64 {
	if e.fileName == nil {
		return 0
	}
	return e.fileName.LogicalSize()
}

// FilenameInfo returns the winning $FILE_NAME attribute. For an
// allocated entry with none, this is the MissingFileNameForAllocated
// condition (spec.md §7): fatal under Strict, logged otherwise.
func (e *Entry) FilenameInfo() *filename.Info {
	if e.fileName == nil && e.isAllocated {
		err := &ErrMissingFileNameForAllocated{Reference: e.baseEntry}
		if Strict {
			panic(err.Error())
		}
		logger.Errorf("%s", err.Error())
	}
	return e.fileName
}

// filenameFromUsnjrnl returns the most recent journal record's filename,
// if one can actually be recovered. An empty filename (the journal
// record carries no usable name) is treated the same as "no record" so
// GetFullPath falls through to the synthesized unnamed_<entry>_<sequence>
// name rather than propagating an empty path segment.
func (e *Entry) filenameFromUsnjrnl() (string, bool) {
	if len(e.usnRecords) == 0 {
		return "", false
	}
	last := e.usnRecords[len(e.usnRecords)-1]
	if last.Data.FileName == "" {
		return "", false
	}
	return last.Data.FileName, true
}

// parentFromUsnjrnl returns the most recent journal record's recorded
// parent, if one was actually captured. The zero MftReference is the
// same "none" sentinel used everywhere else in this model (it marks a
// base record with no parent), so a journal record carrying it means no
// parent was recoverable, not literally "points at entry zero".
func (e *Entry) parentFromUsnjrnl() (mftref.Reference, bool) {
	if len(e.usnRecords) == 0 {
		return mftref.Reference{}, false
	}
	last := e.usnRecords[len(e.usnRecords)-1]
	if last.Data.ParentFileReferenceNumber.IsZero() {
		return mftref.Reference{}, false
	}
	return last.Data.ParentFileReferenceNumber, true
}

// GetFullPath resolves (and memoizes) this entry's full path, per the
// rules in spec.md §4.3.
func (e *Entry) GetFullPath(mft PathIndex) string {
	if e.pathResolved {
		return e.fullPath
	}

	if e.baseEntry.Entry == 5 {
		e.fullPath = "/"
		e.pathResolved = true
		return e.fullPath
	}

	if e.fileName != nil {
		parent := e.fileName.Parent()
		if parent == e.baseEntry {
			panic(fmt.Sprintf("mftentry: entry %s names itself as its own parent", e.baseEntry))
		}
		e.setFolderName(mft, parent, e.fileName.Filename())
		e.pathResolved = true
		return e.fullPath
	}

	myName, ok := e.filenameFromUsnjrnl()
	if !ok {
		myName = fmt.Sprintf("unnamed_%d_%d", e.baseEntry.Entry, e.baseEntry.Sequence)
	}
	if parent, ok := e.parentFromUsnjrnl(); ok {
		e.setFolderName(mft, parent, myName)
	} else {
		e.fullPath = myName
	}
	e.pathResolved = true
	return e.fullPath
}

func (e *Entry) setFolderName(mft PathIndex, parent mftref.Reference, myName string) {
	parentInfo := mft.GetFullPath(parent)
	fp := parentInfo.FullPath
	if len(fp) == 0 || fp[len(fp)-1] != '/' {
		fp += "/"
	}
	e.fullPath = fp + myName
}

// deletionSuffix returns the " (deleted)" marker this entry's display
// name carries when it is not allocated.
func (e *Entry) deletionSuffix() string {
	if e.isAllocated {
		return ""
	}
	return " (deleted)"
}

func (e *Entry) attributeTypeForBody() uint32 {
	if e.isDirectory {
		return attrTypeIndexRoot
	}
	return attrTypeData
}

func (e *Entry) format(displayName string, ts timestamp.Tuple, attributeID uint32, instanceID uint16) bodyfile.Line {
	return bodyfile.Line{
		Name:   displayName + e.deletionSuffix(),
		Inode:  fmt.Sprintf("%d-%d-%d", e.baseEntry.Entry, attributeID, instanceID),
		Size:   e.Filesize(),
		Atime:  ts.Accessed,
		Mtime:  ts.Modified,
		Ctime:  ts.MftModified,
		Crtime: ts.Created,
	}
}

func (e *Entry) formatFN(mft PathIndex) (bodyfile.Line, bool) {
	if e.fileName == nil {
		return bodyfile.Line{}, false
	}
	display := e.GetFullPath(mft) + " ($FILE_NAME)"
	return e.format(display, e.fileName.Timestamps(), e.attributeTypeForBody(), e.fileName.InstanceID()), true
}

func (e *Entry) formatSI(mft PathIndex, attributeID uint32, instanceID uint16) (bodyfile.Line, bool) {
	if e.standardInfo == nil {
		return bodyfile.Line{}, false
	}
	return e.format(e.GetFullPath(mft), *e.standardInfo, attributeID, instanceID), true
}

func (e *Entry) mftFilename() (string, bool) {
	if e.fileName == nil {
		return "", false
	}
	return e.fileName.Filename(), true
}

func (e *Entry) formatUsnjrnl(mft PathIndex, rec usnjrnl.Record, longFlags bool) bodyfile.Line {
	data := rec.Data

	filenameAnnotation := ""
	if mftName, ok := e.mftFilename(); !ok || mftName != data.FileName {
		filenameAnnotation = " filename=" + data.FileName
	}

	reasonAnnotation := " reason=" + data.Reason.Format(longFlags)

	parentResult := mft.GetFullPath(data.ParentFileReferenceNumber)
	var parentAnnotation string
	if !parentResult.Matched {
		parentAnnotation = fmt.Sprintf(" parent='%s'", parentResult.FullPath)
	} else {
		matched := parentResult.MatchedReference
		incrementedFallback := mftref.New(data.ParentFileReferenceNumber.Entry, data.ParentFileReferenceNumber.Sequence+1)
		switch {
		case matched == data.ParentFileReferenceNumber:
			parentAnnotation = ""
		case !parentResult.IsAllocated && matched == incrementedFallback:
			parentAnnotation = ""
		default:
			parentAnnotation = fmt.Sprintf(" parent=%d-%d/%d-%d/'%s'",
				matched.Entry, matched.Sequence,
				data.ParentFileReferenceNumber.Entry, data.ParentFileReferenceNumber.Sequence,
				parentResult.FullPath)
		}
	}

	display := fmt.Sprintf("%s ($UsnJrnl%s%s%s)", e.GetFullPath(mft), filenameAnnotation, parentAnnotation, reasonAnnotation)

	return bodyfile.Line{
		Name:  display + e.deletionSuffix(),
		Inode: fmt.Sprintf("%d-%d-%d", e.baseEntry.Entry, e.attributeTypeForBody(), 1),
		Size:  e.Filesize(),
		Atime: rec.TimestampUnix(),
	}
}

// BodyfileLines renders every line this entry contributes: an SI line
// (if present), then an FN line (if present), then one line per journal
// record in reverse-chronological order.
func (e *Entry) BodyfileLines(mft PathIndex, usnjrnlLongFlags bool) []bodyfile.Line {
	var lines []bodyfile.Line

	attributeID := e.attributeTypeForBody()
	const instanceID = 1 // real per-attribute instance isn't tracked for SI/journal lines.

	if si, ok := e.formatSI(mft, attributeID, instanceID); ok {
		lines = append(lines, si)
	}
	if fn, ok := e.formatFN(mft); ok {
		lines = append(lines, fn)
	}
	for i := len(e.usnRecords) - 1; i >= 0; i-- {
		lines = append(lines, e.formatUsnjrnl(mft, e.usnRecords[i], usnjrnlLongFlags))
	}
	return lines
}

// BodyfileLinesCount reports how many lines BodyfileLines would yield,
// without rendering them.
func (e *Entry) BodyfileLinesCount() int {
	n := len(e.usnRecords)
	if e.standardInfo != nil {
		n++
	}
	if e.fileName != nil {
		n++
	}
	return n
}
