package mftbin

import (
	"encoding/binary"
	"fmt"

	"github.com/ntfs-forensics/mft2bodyfile/internal/mftref"
	"github.com/ntfs-forensics/mft2bodyfile/internal/mftrecord"
)

const (
	ntfsAttrStandardInformation = 0x10
	ntfsAttrFileName            = 0x30
	ntfsAttrData                = 0x80
	ntfsAttrIndexRoot           = 0x90
)

// Attributes decodes this record's $STANDARD_INFORMATION, $FILE_NAME,
// $DATA, and $INDEX_ROOT attributes into the engine's boundary contract
// types, satisfying mftrecord.Record.
func (r *Record) Attributes() ([]mftrecord.Attribute, error) {
	out := make([]mftrecord.Attribute, 0, len(r.attributes))

	for _, raw := range r.attributes {
		header := mftrecord.AttributeHeader{
			Instance:   raw.instance,
			NameOffset: raw.nameOffset,
			Name:       raw.name,
		}

		switch raw.typeCode {
		case ntfsAttrStandardInformation:
			header.TypeCode = mftrecord.AttrStandardInformation
			si, err := decodeStandardInformation(raw.content)
			if err != nil {
				return nil, err
			}
			out = append(out, mftrecord.Attribute{Header: header, StandardInformation: si})

		case ntfsAttrFileName:
			header.TypeCode = mftrecord.AttrFileName
			fn, err := decodeFileName(raw.content)
			if err != nil {
				return nil, err
			}
			out = append(out, mftrecord.Attribute{Header: header, FileName: fn})

		case ntfsAttrData:
			header.TypeCode = mftrecord.AttrData
			out = append(out, mftrecord.Attribute{Header: header})

		case ntfsAttrIndexRoot:
			header.TypeCode = mftrecord.AttrIndexRoot
			out = append(out, mftrecord.Attribute{Header: header})
		}
	}

	return out, nil
}

func decodeStandardInformation(content []byte) (*mftrecord.StandardInformation, error) {
	const minLen = 32
	if len(content) < minLen {
		return nil, fmt.Errorf("mftbin: $STANDARD_INFORMATION content shorter than %d bytes (got %d)", minLen, len(content))
	}
	return &mftrecord.StandardInformation{
		Created:     binary.LittleEndian.Uint64(content[0:8]),
		Modified:    binary.LittleEndian.Uint64(content[8:16]),
		MftModified: binary.LittleEndian.Uint64(content[16:24]),
		Accessed:    binary.LittleEndian.Uint64(content[24:32]),
	}, nil
}

func decodeFileName(content []byte) (*mftrecord.FileNameAttribute, error) {
	const fixedLen = 66
	if len(content) < fixedLen {
		return nil, fmt.Errorf("mftbin: $FILE_NAME content shorter than %d bytes (got %d)", fixedLen, len(content))
	}

	parentRef := binary.LittleEndian.Uint64(content[0:8])
	parentEntry := parentRef & 0x0000FFFFFFFFFFFF
	parentSeq := uint16(parentRef >> 48)

	created := binary.LittleEndian.Uint64(content[8:16])
	modified := binary.LittleEndian.Uint64(content[16:24])
	mftModified := binary.LittleEndian.Uint64(content[24:32])
	accessed := binary.LittleEndian.Uint64(content[32:40])
	logicalSize := binary.LittleEndian.Uint64(content[48:56])
	nameLength := content[64]
	namespace := content[65]

	nameBytes := int(nameLength) * 2
	if fixedLen+nameBytes > len(content) {
		return nil, fmt.Errorf("mftbin: $FILE_NAME name overruns attribute content")
	}
	name := decodeUTF16LE(content[fixedLen : fixedLen+nameBytes])

	return &mftrecord.FileNameAttribute{
		Parent:      mftref.New(parentEntry, parentSeq),
		Accessed:    accessed,
		MftModified: mftModified,
		Modified:    modified,
		Created:     created,
		LogicalSize: logicalSize,
		Namespace:   namespace,
		Name:        name,
	}, nil
}
