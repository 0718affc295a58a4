package mftbin

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DefaultRecordSize is the $MFT record size used by every NTFS version
// this tool has been exercised against. Some volumes use 4096; Reader
// accepts an override via NewReaderWithRecordSize.
const DefaultRecordSize = 1024

// Reader decodes a $MFT image sequentially, one fixed-size record at a
// time, applying the multi-sector fixup before handing each record to
// decode.
type Reader struct {
	r          io.Reader
	recordSize int
	nextRecord uint64
}

// NewReader wraps r, assuming the common 1024-byte record size.
func NewReader(r io.Reader) *Reader {
	return NewReaderWithRecordSize(r, DefaultRecordSize)
}

// NewReaderWithRecordSize wraps r for volumes formatted with a
// non-default $MFT record size (observed values: 1024, 4096).
func NewReaderWithRecordSize(r io.Reader, recordSize int) *Reader {
	return &Reader{r: r, recordSize: recordSize}
}

// Next decodes and returns the next record in the stream. It returns
// io.EOF once the underlying reader is exhausted. Records whose
// signature is "BAAD" or garbage (not yet allocated slots near the end
// of the $MFT) are skipped automatically; a read error, or a "FILE"
// record whose header or attribute framing fails to decode (allocated
// or not), is returned to the caller.
func (rd *Reader) Next() (*Record, error) {
	for {
		buf := make([]byte, rd.recordSize)
		n, err := io.ReadFull(rd.r, buf)
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("mftbin: reading record at index %d: %w", rd.nextRecord, err)
		}

		if err := applyFixup(buf); err != nil {
			// A record that fails fixup verification is almost always a
			// BAAD/unused slot rather than real corruption; skip it.
			rd.nextRecord++
			continue
		}

		rec, err := decode(buf, rd.recordSize)
		if err != nil {
			var notMft *ErrNotAnMftRecord
			if errors.As(err, &notMft) {
				rd.nextRecord++
				continue
			}
			return nil, fmt.Errorf("mftbin: decoding record at index %d: %w", rd.nextRecord, err)
		}
		rd.nextRecord++
		return rec, nil
	}
}

// applyFixup restores the two bytes at the end of each 512-byte sector
// that the "update sequence" mechanism temporarily overwrites, verifying
// each sector's saved copy matches the USN stamped at the start of the
// fixup array (spec.md's input contract relies on the decoder handling
// this transparently; the external parser interface never sees it).
func applyFixup(buf []byte) error {
	if len(buf) < headerSize {
		return fmt.Errorf("mftbin: record too short for fixup (%d bytes)", len(buf))
	}
	usOffset := binary.LittleEndian.Uint16(buf[4:6])
	usCount := binary.LittleEndian.Uint16(buf[6:8])
	if usCount == 0 {
		return nil
	}

	usnPos := int(usOffset)
	if usnPos+2 > len(buf) {
		return fmt.Errorf("mftbin: update sequence offset out of range")
	}
	usn := buf[usnPos : usnPos+2]

	sectors := int(usCount) - 1
	for i := 0; i < sectors; i++ {
		arrayPos := usnPos + 2 + i*2
		if arrayPos+2 > len(buf) {
			return fmt.Errorf("mftbin: fixup array entry %d out of range", i)
		}
		sectorEnd := (i+1)*sectorSize - 2
		if sectorEnd+2 > len(buf) {
			break
		}
		if buf[sectorEnd] != usn[0] || buf[sectorEnd+1] != usn[1] {
			return fmt.Errorf("mftbin: fixup verification failed at sector %d", i)
		}
		copy(buf[sectorEnd:sectorEnd+2], buf[arrayPos:arrayPos+2])
	}
	return nil
}
