package mftentry

import (
	"fmt"

	"github.com/ntfs-forensics/mft2bodyfile/internal/mftref"
)

// ErrInconsistentBaseReference is returned by the mutators when the
// caller's key does not match the entry's base_entry.
type ErrInconsistentBaseReference struct {
	Want, Got mftref.Reference
}

func (e *ErrInconsistentBaseReference) Error() string {
	return fmt.Sprintf("mftentry: inconsistent base reference: want %s, got %s", e.Want, e.Got)
}

// ErrMultipleStandardInfo signals that an entry carries more than one
// $STANDARD_INFORMATION attribute — structurally illegal in NTFS.
type ErrMultipleStandardInfo struct {
	Reference mftref.Reference
}

func (e *ErrMultipleStandardInfo) Error() string {
	return fmt.Sprintf("mftentry: multiple $STANDARD_INFORMATION attributes found for entry %s", e.Reference)
}

// ErrMissingFileNameForAllocated signals that an allocated entry has no
// $FILE_NAME attribute at all.
type ErrMissingFileNameForAllocated struct {
	Reference mftref.Reference
}

func (e *ErrMissingFileNameForAllocated) Error() string {
	return fmt.Sprintf("mftentry: no $FILE_NAME attribute found for allocated entry %s", e.Reference)
}
