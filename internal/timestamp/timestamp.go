// Package timestamp normalizes the four NTFS timestamps carried by
// $STANDARD_INFORMATION and $FILE_NAME attributes into Unix seconds,
// per spec.md §4.1.
package timestamp

import "time"

// windowsEpochOffset is the number of seconds between the Windows
// FILETIME epoch (1601-01-01 UTC) and the Unix epoch (1970-01-01 UTC).
const windowsEpochOffset = 11644473600

// filetimeUnitsPerSecond is the number of 100ns FILETIME ticks per second.
const filetimeUnitsPerSecond = 10_000_000

// Tuple holds the four timestamps NTFS attaches to both
// $STANDARD_INFORMATION and $FILE_NAME attributes, normalized to Unix
// seconds. None of the four fields is ever negative: any FILETIME that
// would convert to a negative Unix second is clamped to zero (spec.md
// §3, Invariant).
type Tuple struct {
	Accessed    int64
	MftModified int64
	Modified    int64
	Created     int64
}

// FromFiletimes builds a Tuple from four raw 64-bit Windows FILETIME
// values (100ns ticks since 1601-01-01 UTC), given as accessed,
// mft-modified ("C-time"), modified, created.
func FromFiletimes(accessed, mftModified, modified, created uint64) Tuple {
	return Tuple{
		Accessed:    filetimeToUnix(accessed),
		MftModified: filetimeToUnix(mftModified),
		Modified:    filetimeToUnix(modified),
		Created:     filetimeToUnix(created),
	}
}

// filetimeToUnix converts a FILETIME value to Unix seconds, clamping
// negative results (pre-1970 files, or corrupted records) to zero so
// downstream bodyfile consumers never see a negative timestamp field.
func filetimeToUnix(ft uint64) int64 {
	seconds := int64(ft/filetimeUnitsPerSecond) - windowsEpochOffset
	if seconds < 0 {
		return 0
	}
	return seconds
}

// AccessedTime returns the accessed field as a time.Time, mostly useful in
// tests and diagnostics.
func (t Tuple) AccessedTime() time.Time { return time.Unix(t.Accessed, 0).UTC() }

// FromFiletime converts a single raw FILETIME value to Unix seconds,
// applying the same non-negative clamp as FromFiletimes. Used by
// callers (e.g. USN journal records) that carry only one timestamp
// rather than a full four-field tuple.
func FromFiletime(ft uint64) int64 {
	return filetimeToUnix(ft)
}
