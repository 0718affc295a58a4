// Package usnjrnl decodes and groups $UsnJrnl:$J change-journal
// records, per spec.md §4.5/§6. Only V2 records are supported; V3/V4
// are recognized and rejected rather than silently misparsed.
package usnjrnl

import (
	"fmt"

	"github.com/ntfs-forensics/mft2bodyfile/internal/mftref"
	"github.com/ntfs-forensics/mft2bodyfile/internal/timestamp"
)

// CommonHeader is the fixed prefix every USN record version shares.
type CommonHeader struct {
	RecordLength uint32
	MajorVersion uint16
	MinorVersion uint16
}

// RecordV2 is the $UsnJrnl:$J record body this tool understands, per
// spec.md §6.
type RecordV2 struct {
	FileReferenceNumber       mftref.Reference
	ParentFileReferenceNumber mftref.Reference
	Usn                       int64
	TimeStamp                 int64 // raw Windows FILETIME
	Reason                    Reason
	SourceInfo                uint32
	SecurityID                uint32
	FileAttributes            uint32
	FileName                  string
}

// Record is one decoded $UsnJrnl:$J entry.
type Record struct {
	Header CommonHeader
	Data   RecordV2
}

// TimestampUnix returns the record's timestamp as Unix seconds,
// clamped to zero like every other timestamp this tool emits.
func (r Record) TimestampUnix() int64 {
	return timestamp.FromFiletime(uint64(r.Data.TimeStamp))
}

// ErrUnsupportedVersion is returned by the reader when it encounters a
// V3 or V4 record (spec.md: UnsupportedJournalVersion).
type ErrUnsupportedVersion struct {
	Major, Minor uint16
}

func (e *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("usnjrnl: unsupported record version %d.%d (only V2 is supported)", e.Major, e.Minor)
}

// ErrNoMoreData signals the normal end of the journal stream (spec.md:
// NoMoreData) — a second consecutive zero-length record header after a
// sparse-run skip.
var ErrNoMoreData = fmt.Errorf("usnjrnl: no more data")

// ErrFailedToReadWindowsTime signals that the eight bytes backing a
// FILETIME field could not be read in full (spec.md:
// FailedToReadWindowsTime).
type ErrFailedToReadWindowsTime struct {
	Bytes []byte
}

func (e *ErrFailedToReadWindowsTime) Error() string {
	return fmt.Sprintf("usnjrnl: failed to read windows time from %x", e.Bytes)
}
