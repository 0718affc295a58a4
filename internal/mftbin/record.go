// Package mftbin decodes the on-disk $MFT record format: fixed-size
// records with a multi-sector fixup array, attribute headers, and the
// handful of attribute content layouts this tool needs
// ($STANDARD_INFORMATION, $FILE_NAME, $DATA, $INDEX_ROOT). It is the
// concrete mftrecord.Record implementation the rest of the engine
// consumes through that boundary contract.
package mftbin

import (
	"encoding/binary"
	"fmt"

	"github.com/ntfs-forensics/mft2bodyfile/internal/mftref"
)

const (
	signatureFile = "FILE"
	signatureBaad = "BAAD"

	sectorSize = 512

	headerSize = 48

	flagInUse       = 0x0001
	flagIsDirectory = 0x0002

	attrTypeEndMarker = 0xFFFFFFFF
)

// ErrNotAnMftRecord signals a record slot whose signature is not
// "FILE": a "BAAD" slot, garbage, or a slot past the live $MFT.
type ErrNotAnMftRecord struct {
	Signature [4]byte
}

func (e *ErrNotAnMftRecord) Error() string {
	return fmt.Sprintf("mftbin: record signature %q is not FILE", e.Signature[:])
}

// Record is one decoded $MFT record.
type Record struct {
	recordNumber  uint64
	sequence      uint16
	baseReference mftref.Reference
	usedEntrySize uint32
	allocated     bool
	isDirectory   bool
	attributes    []rawAttribute
}

type rawAttribute struct {
	typeCode   uint32
	instance   uint16
	nameOffset uint16
	name       string
	content    []byte
	resident   bool
}

func (r *Record) RecordNumber() uint64            { return r.recordNumber }
func (r *Record) Sequence() uint16                { return r.sequence }
func (r *Record) BaseReference() mftref.Reference { return r.baseReference }
func (r *Record) UsedEntrySize() uint32           { return r.usedEntrySize }
func (r *Record) IsAllocated() bool               { return r.allocated }
func (r *Record) IsDir() bool                     { return r.isDirectory }

// decode parses one fixed-size record buffer (already fixed up) into a
// Record, or returns ErrNotAnMftRecord / a malformed-record error.
func decode(buf []byte, recordSize int) (*Record, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf("mftbin: record buffer shorter than header (%d bytes)", len(buf))
	}

	var sig [4]byte
	copy(sig[:], buf[0:4])
	if string(sig[:]) != signatureFile {
		return nil, &ErrNotAnMftRecord{Signature: sig}
	}

	sequenceNumber := binary.LittleEndian.Uint16(buf[16:18])
	flags := binary.LittleEndian.Uint16(buf[22:24])
	usedSize := binary.LittleEndian.Uint32(buf[24:28])
	attributesOffset := binary.LittleEndian.Uint16(buf[20:22])
	baseRef := binary.LittleEndian.Uint64(buf[32:40])
	recordNumber := uint64(binary.LittleEndian.Uint32(buf[44:48]))

	baseEntry := baseRef & 0x0000FFFFFFFFFFFF
	baseSeq := uint16(baseRef >> 48)

	rec := &Record{
		recordNumber:  recordNumber,
		sequence:      sequenceNumber,
		baseReference: mftref.New(baseEntry, baseSeq),
		usedEntrySize: usedSize,
		allocated:     flags&flagInUse != 0,
		isDirectory:   flags&flagIsDirectory != 0,
	}

	attrs, err := decodeAttributes(buf, int(attributesOffset), recordSize)
	if err != nil {
		return nil, err
	}
	rec.attributes = attrs
	return rec, nil
}

func decodeAttributes(buf []byte, offset, recordSize int) ([]rawAttribute, error) {
	var out []rawAttribute

	for offset+8 <= recordSize && offset+8 <= len(buf) {
		typeCode := binary.LittleEndian.Uint32(buf[offset : offset+4])
		if typeCode == attrTypeEndMarker {
			break
		}
		if offset+16 > len(buf) {
			return nil, fmt.Errorf("mftbin: attribute header truncated at offset %d", offset)
		}

		length := binary.LittleEndian.Uint32(buf[offset+4 : offset+8])
		if length == 0 || int(length) < 16 {
			return nil, fmt.Errorf("mftbin: attribute at offset %d has implausible length %d", offset, length)
		}
		nonResident := buf[offset+8]
		nameLength := buf[offset+9]
		nameOffset := binary.LittleEndian.Uint16(buf[offset+10 : offset+12])
		instance := binary.LittleEndian.Uint16(buf[offset+14 : offset+16])

		end := offset + int(length)
		if end > len(buf) {
			return nil, fmt.Errorf("mftbin: attribute at offset %d overruns record", offset)
		}

		var name string
		if nameLength > 0 && int(nameOffset)+int(nameLength)*2 <= end {
			name = decodeUTF16LE(buf[offset+int(nameOffset) : offset+int(nameOffset)+int(nameLength)*2])
		}

		attr := rawAttribute{
			typeCode:   typeCode,
			instance:   instance,
			nameOffset: nameOffset,
			name:       name,
			resident:   nonResident == 0,
		}

		if attr.resident {
			if offset+24 > len(buf) {
				return nil, fmt.Errorf("mftbin: resident attribute header truncated at offset %d", offset)
			}
			contentLength := binary.LittleEndian.Uint32(buf[offset+16 : offset+20])
			contentOffset := binary.LittleEndian.Uint16(buf[offset+20 : offset+22])
			start := offset + int(contentOffset)
			stop := start + int(contentLength)
			if stop > len(buf) || start > stop {
				return nil, fmt.Errorf("mftbin: resident content at offset %d overruns record", offset)
			}
			attr.content = buf[start:stop]
		}

		out = append(out, attr)
		offset = end
	}

	return out, nil
}

// decodeUTF16LE converts a little-endian UTF-16 byte slice to a Go
// string, tolerating the BMP-only names $MFT attribute names and
// $FILE_NAME values actually carry.
func decodeUTF16LE(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	runes := make([]rune, 0, len(b)/2)
	for i := 0; i+2 <= len(b); i += 2 {
		runes = append(runes, rune(binary.LittleEndian.Uint16(b[i:i+2])))
	}
	return string(runes)
}
