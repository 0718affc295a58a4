package usnjrnl

import "strings"

// Reason is the USN_REASON_* bitmask carried by a $UsnJrnl:$J record,
// ported from the flag values documented in
// original_source/src/usnjrnl/usn_reason.rs.
type Reason uint32

const (
	ReasonDataOverwrite       Reason = 0x00000001
	ReasonDataExtend          Reason = 0x00000002
	ReasonDataTruncation      Reason = 0x00000004
	ReasonNamedDataOverwrite  Reason = 0x00000010
	ReasonNamedDataExtend     Reason = 0x00000020
	ReasonNamedDataTruncation Reason = 0x00000040
	ReasonFileCreate          Reason = 0x00000100
	ReasonFileDelete          Reason = 0x00000200
	ReasonEAChange            Reason = 0x00000400
	ReasonSecurityChange      Reason = 0x00000800
	ReasonRenameOldName       Reason = 0x00001000
	ReasonRenameNewName       Reason = 0x00002000
	ReasonIndexableChange     Reason = 0x00004000
	ReasonBasicInfoChange     Reason = 0x00008000
	ReasonHardLinkChange      Reason = 0x00010000
	ReasonCompressionChange   Reason = 0x00020000
	ReasonEncryptionChange    Reason = 0x00040000
	ReasonObjectIDChange      Reason = 0x00080000
	ReasonReparsePointChange  Reason = 0x00100000
	ReasonStreamChange        Reason = 0x00200000
	ReasonTransactedChange    Reason = 0x00400000
	ReasonIntegrityChange     Reason = 0x00800000
	ReasonClose               Reason = 0x80000000
)

// orderedReasonFlags lists every flag in a stable order, so rendering
// is deterministic regardless of map iteration order.
var orderedReasonFlags = []struct {
	flag Reason
	name string
}{
	{ReasonBasicInfoChange, "USN_REASON_BASIC_INFO_CHANGE"},
	{ReasonClose, "USN_REASON_CLOSE"},
	{ReasonCompressionChange, "USN_REASON_COMPRESSION_CHANGE"},
	{ReasonDataExtend, "USN_REASON_DATA_EXTEND"},
	{ReasonDataOverwrite, "USN_REASON_DATA_OVERWRITE"},
	{ReasonDataTruncation, "USN_REASON_DATA_TRUNCATION"},
	{ReasonEAChange, "USN_REASON_EA_CHANGE"},
	{ReasonEncryptionChange, "USN_REASON_ENCRYPTION_CHANGE"},
	{ReasonFileCreate, "USN_REASON_FILE_CREATE"},
	{ReasonFileDelete, "USN_REASON_FILE_DELETE"},
	{ReasonHardLinkChange, "USN_REASON_HARD_LINK_CHANGE"},
	{ReasonIndexableChange, "USN_REASON_INDEXABLE_CHANGE"},
	{ReasonIntegrityChange, "USN_REASON_INTEGRITY_CHANGE"},
	{ReasonNamedDataExtend, "USN_REASON_NAMED_DATA_EXTEND"},
	{ReasonNamedDataOverwrite, "USN_REASON_NAMED_DATA_OVERWRITE"},
	{ReasonNamedDataTruncation, "USN_REASON_NAMED_DATA_TRUNCATION"},
	{ReasonObjectIDChange, "USN_REASON_OBJECT_ID_CHANGE"},
	{ReasonRenameNewName, "USN_REASON_RENAME_NEW_NAME"},
	{ReasonRenameOldName, "USN_REASON_RENAME_OLD_NAME"},
	{ReasonReparsePointChange, "USN_REASON_REPARSE_POINT_CHANGE"},
	{ReasonSecurityChange, "USN_REASON_SECURITY_CHANGE"},
	{ReasonStreamChange, "USN_REASON_STREAM_CHANGE"},
	{ReasonTransactedChange, "USN_REASON_TRANSACTED_CHANGE"},
}

// HasFlag reports whether r carries the given flag.
func (r Reason) HasFlag(flag Reason) bool {
	return r&flag != 0
}

// Format renders r as a "|"-joined list of flag names, in the order
// spec.md's $UsnJrnl annotation grammar expects. When longFlags is
// false the "USN_REASON_" prefix is stripped from every name.
func (r Reason) Format(longFlags bool) string {
	var names []string
	for _, f := range orderedReasonFlags {
		if !r.HasFlag(f.flag) {
			continue
		}
		name := f.name
		if !longFlags {
			name = strings.TrimPrefix(name, "USN_REASON_")
		}
		names = append(names, name)
	}
	return strings.Join(names, "|")
}

func (r Reason) String() string {
	return r.Format(true)
}
