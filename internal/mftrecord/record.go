// Package mftrecord defines the boundary contract between the raw $MFT
// binary decoder (internal/mftbin) and the reconstruction engine
// (internal/mftentry, internal/preprocessed). The engine depends only on
// this contract, never on the decoder directly.
package mftrecord

import "github.com/ntfs-forensics/mft2bodyfile/internal/mftref"

// AttributeType identifies one of the four attribute kinds the engine
// inspects. Values match the on-disk NTFS attribute type codes.
type AttributeType uint32

const (
	AttrStandardInformation AttributeType = 0x10
	AttrFileName            AttributeType = 0x30
	AttrData                AttributeType = 0x80
	AttrIndexRoot           AttributeType = 0x90
)

// StandardInformation carries the four raw FILETIME fields of an
// $STANDARD_INFORMATION attribute.
type StandardInformation struct {
	Accessed    uint64
	MftModified uint64
	Modified    uint64
	Created     uint64
}

// FileNameAttribute carries the decoded fields of one $FILE_NAME
// attribute instance.
type FileNameAttribute struct {
	Parent      mftref.Reference
	Accessed    uint64
	MftModified uint64
	Modified    uint64
	Created     uint64
	LogicalSize uint64
	Namespace   uint8 // raw NTFS namespace byte: 0=POSIX,1=Win32,2=DOS,3=Win32AndDos
	Name        string
}

// AttributeHeader is the subset of an attribute's header the engine
// needs, regardless of attribute type.
type AttributeHeader struct {
	TypeCode   AttributeType
	Instance   uint16
	NameOffset uint16 // 0 means the attribute itself is unnamed
	Name       string // the attribute's own name (for named $DATA streams)
}

// Attribute is one decoded attribute record. Exactly one of
// StandardInformation or FileName is populated, matching TypeCode; for
// Data and IndexRoot attributes neither is set — only the header matters.
type Attribute struct {
	Header              AttributeHeader
	StandardInformation *StandardInformation
	FileName            *FileNameAttribute
}

// Record is the contract an $MFT entry must satisfy for the engine to
// consume it, mirroring the external parser's iteration surface (spec
// §6, Input: MFT record stream).
type Record interface {
	RecordNumber() uint64
	Sequence() uint16
	BaseReference() mftref.Reference
	UsedEntrySize() uint32
	IsAllocated() bool
	IsDir() bool

	// Attributes returns every StandardInformation, FileName, Data, and
	// IndexRoot attribute carried by the record, in on-disk order.
	Attributes() ([]Attribute, error)
}
