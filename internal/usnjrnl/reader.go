package usnjrnl

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/ntfs-forensics/mft2bodyfile/internal/mftref"
	"golang.org/x/text/encoding/unicode"
)

// clusterSize is the sparse-run rounding boundary spec.md §6 describes:
// on a zero-length record header, the reader skips forward to the next
// 4096-byte boundary rather than treating it as end-of-data outright.
const clusterSize = 4096

const commonHeaderSize = 4 + 2 + 2 // RecordLength, MajorVersion, MinorVersion

// recordV2FixedSize is the size of UsnRecordV2's fixed-width fields,
// i.e. everything up to (not including) the variable-length FileName.
const recordV2FixedSize = 8 + 8 + 8 + 8 + 4 + 4 + 4 + 4 + 2 + 2

// Reader decodes a $UsnJrnl:$J byte stream into Records, tolerating the
// sparse clusters NTFS leaves in the journal (spec.md §6).
type Reader struct {
	r       io.ReadSeeker
	decoder *unicode.Decoder
}

// NewReader wraps r for sequential record decoding.
func NewReader(r io.ReadSeeker) *Reader {
	return &Reader{
		r:       r,
		decoder: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder(),
	}
}

// Next returns the next decoded record, ErrNoMoreData at genuine
// end-of-stream (two consecutive zero-length headers), or an error from
// a malformed record.
func (rd *Reader) Next() (Record, error) {
	for {
		header, err := rd.readHeader()
		if err != nil {
			return Record{}, err
		}

		if header.RecordLength == 0 {
			// Sparse cluster: round up to the next 4096 boundary and try
			// again. A second zero-length header right after the jump
			// means genuine end-of-data (spec.md §6).
			pos, err := rd.r.Seek(0, io.SeekCurrent)
			if err != nil {
				return Record{}, err
			}
			// We already consumed commonHeaderSize bytes for this header;
			// back up to where the header started before computing the
			// boundary.
			headerStart := pos - commonHeaderSize
			next := ((headerStart / clusterSize) + 1) * clusterSize
			if _, err := rd.r.Seek(next, io.SeekStart); err != nil {
				return Record{}, err
			}

			header2, err := rd.readHeader()
			if errors.Is(err, io.EOF) {
				return Record{}, ErrNoMoreData
			}
			if err != nil {
				return Record{}, err
			}
			if header2.RecordLength == 0 {
				return Record{}, ErrNoMoreData
			}
			// header2 belongs to a real record at `next`; rewind to
			// re-read it uniformly below.
			if _, err := rd.r.Seek(next, io.SeekStart); err != nil {
				return Record{}, err
			}
			continue
		}

		if header.MajorVersion != 2 {
			// Skip the rest of this (unsupported) record so the stream
			// stays aligned, then surface the error to the caller.
			remaining := int64(header.RecordLength) - commonHeaderSize
			if remaining > 0 {
				if _, err := rd.r.Seek(remaining, io.SeekCurrent); err != nil {
					return Record{}, err
				}
			}
			return Record{}, &ErrUnsupportedVersion{Major: header.MajorVersion, Minor: header.MinorVersion}
		}

		return rd.readV2Body(header)
	}
}

func (rd *Reader) readHeader() (CommonHeader, error) {
	buf := make([]byte, commonHeaderSize)
	if _, err := io.ReadFull(rd.r, buf); err != nil {
		return CommonHeader{}, err
	}
	return CommonHeader{
		RecordLength: binary.LittleEndian.Uint32(buf[0:4]),
		MajorVersion: binary.LittleEndian.Uint16(buf[4:6]),
		MinorVersion: binary.LittleEndian.Uint16(buf[6:8]),
	}, nil
}

func (rd *Reader) readV2Body(header CommonHeader) (Record, error) {
	bodyLen := int64(header.RecordLength) - commonHeaderSize
	if bodyLen < recordV2FixedSize {
		return Record{}, errMalformedRecord("usnjrnl: V2 record shorter than fixed fields")
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(rd.r, body); err != nil {
		return Record{}, err
	}

	fileRef := binary.LittleEndian.Uint64(body[0:8])
	fileSeq := uint16(fileRef >> 48)
	fileEntry := fileRef & 0x0000FFFFFFFFFFFF

	parentRef := binary.LittleEndian.Uint64(body[8:16])
	parentSeq := uint16(parentRef >> 48)
	parentEntry := parentRef & 0x0000FFFFFFFFFFFF

	usn := int64(binary.LittleEndian.Uint64(body[16:24]))
	ts, err := readFiletime(body[24:32])
	if err != nil {
		return Record{}, err
	}
	reason := Reason(binary.LittleEndian.Uint32(body[32:36]))
	sourceInfo := binary.LittleEndian.Uint32(body[36:40])
	securityID := binary.LittleEndian.Uint32(body[40:44])
	fileAttrs := binary.LittleEndian.Uint32(body[44:48])
	nameLen := binary.LittleEndian.Uint16(body[48:50])
	nameOffset := binary.LittleEndian.Uint16(body[50:52])

	// The name offset in UsnRecordV2 is relative to the start of the
	// whole record (including the common header); body starts right
	// after the header, so subtract the header size once.
	nameStart := int(nameOffset) - commonHeaderSize
	nameEnd := nameStart + int(nameLen)
	if nameStart < 0 || nameEnd > len(body) {
		return Record{}, errMalformedRecord("usnjrnl: filename offset/length out of bounds")
	}
	name, err := rd.decoder.String(string(body[nameStart:nameEnd]))
	if err != nil {
		return Record{}, errMalformedRecord("usnjrnl: failed to decode UTF-16LE filename")
	}

	return Record{
		Header: header,
		Data: RecordV2{
			FileReferenceNumber:       mftref.New(fileEntry, fileSeq),
			ParentFileReferenceNumber: mftref.New(parentEntry, parentSeq),
			Usn:                       usn,
			TimeStamp:                 ts,
			Reason:                    reason,
			SourceInfo:                sourceInfo,
			SecurityID:                securityID,
			FileAttributes:            fileAttrs,
			FileName:                  name,
		},
	}, nil
}

func readFiletime(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, &ErrFailedToReadWindowsTime{Bytes: b}
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

type malformedRecordError string

func (e malformedRecordError) Error() string { return string(e) }

func errMalformedRecord(msg string) error { return malformedRecordError(msg) }
