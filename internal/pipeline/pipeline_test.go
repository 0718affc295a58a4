package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"strings"
	"testing"
)

// --- $MFT record byte-builder, mirroring internal/mftbin's own test
// fixtures (kept local since those helpers are unexported there too). ---

const (
	mftRecordSize = 1024
	mftSectorSize = 512
	flagInUse     = 0x0001
	flagIsDir     = 0x0002
	attrEndMarker = 0xFFFFFFFF
)

func buildMftRecord(t *testing.T, recordNumber uint32, sequence uint16, flags uint16, attrBlobs ...[]byte) []byte {
	t.Helper()
	const usOffset = 48
	const usCount = 3
	buf := make([]byte, mftRecordSize)

	copy(buf[0:4], "FILE")
	binary.LittleEndian.PutUint16(buf[4:6], usOffset)
	binary.LittleEndian.PutUint16(buf[6:8], usCount)
	binary.LittleEndian.PutUint16(buf[16:18], sequence)
	binary.LittleEndian.PutUint16(buf[22:24], flags)
	binary.LittleEndian.PutUint16(buf[20:22], usOffset+2*usCount)
	binary.LittleEndian.PutUint64(buf[32:40], 0)
	binary.LittleEndian.PutUint32(buf[44:48], recordNumber)

	offset := int(usOffset + 2*usCount)
	for _, blob := range attrBlobs {
		copy(buf[offset:], blob)
		offset += len(blob)
	}
	binary.LittleEndian.PutUint32(buf[offset:offset+4], attrEndMarker)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(offset+8))

	usn := [2]byte{0xAB, 0xCD}
	copy(buf[usOffset:usOffset+2], usn[:])
	for i := 0; i < usCount-1; i++ {
		sectorEnd := (i+1)*mftSectorSize - 2
		copy(buf[sectorEnd:sectorEnd+2], usn[:])
		arrayPos := usOffset + 2 + i*2
		binary.LittleEndian.PutUint16(buf[arrayPos:arrayPos+2], uint16(0x1111+i))
	}
	return buf
}

func buildResidentAttr(typeCode uint32, instance uint16, content []byte) []byte {
	const headerLen = 24
	total := headerLen + len(content)
	blob := make([]byte, total)
	binary.LittleEndian.PutUint32(blob[0:4], typeCode)
	binary.LittleEndian.PutUint32(blob[4:8], uint32(total))
	binary.LittleEndian.PutUint16(blob[10:12], headerLen)
	binary.LittleEndian.PutUint16(blob[14:16], instance)
	binary.LittleEndian.PutUint32(blob[16:20], uint32(len(content)))
	binary.LittleEndian.PutUint16(blob[20:22], headerLen)
	copy(blob[headerLen:], content)
	return blob
}

func buildStandardInformation(created, modified, mftModified, accessed uint64) []byte {
	content := make([]byte, 32)
	binary.LittleEndian.PutUint64(content[0:8], created)
	binary.LittleEndian.PutUint64(content[8:16], modified)
	binary.LittleEndian.PutUint64(content[16:24], mftModified)
	binary.LittleEndian.PutUint64(content[24:32], accessed)
	return buildResidentAttr(0x10, 0, content)
}

func encodeUTF16LE(s string) []byte {
	out := make([]byte, 0, len(s)*2)
	for _, r := range s {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(r))
		out = append(out, b[:]...)
	}
	return out
}

func buildFileName(instance uint16, name string, namespace uint8, parentEntry uint64, parentSeq uint16) []byte {
	nameUTF16 := encodeUTF16LE(name)
	content := make([]byte, 66+len(nameUTF16))
	parentRef := (uint64(parentSeq) << 48) | parentEntry
	binary.LittleEndian.PutUint64(content[0:8], parentRef)
	binary.LittleEndian.PutUint64(content[48:56], 4096)
	content[64] = byte(len(name))
	content[65] = namespace
	copy(content[66:], nameUTF16)
	return buildResidentAttr(0x30, instance, content)
}

// --- $UsnJrnl:$J byte-builder, mirroring internal/usnjrnl's fixtures. ---

const usnCommonHeaderSize = 8
const usnRecordV2FixedSize = 52

func buildUsnRecord(t *testing.T, fileEntry uint64, fileSeq uint16, parentEntry uint64, parentSeq uint16, reason uint32, name string) []byte {
	t.Helper()
	nameUTF16 := encodeUTF16LE(name)
	nameOffset := usnCommonHeaderSize + usnRecordV2FixedSize
	recordLength := nameOffset + len(nameUTF16)

	buf := make([]byte, recordLength)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(recordLength))
	binary.LittleEndian.PutUint16(buf[4:6], 2)
	binary.LittleEndian.PutUint16(buf[6:8], 0)

	body := buf[usnCommonHeaderSize:]
	binary.LittleEndian.PutUint64(body[0:8], fileEntry|(uint64(fileSeq)<<48))
	binary.LittleEndian.PutUint64(body[8:16], parentEntry|(uint64(parentSeq)<<48))
	binary.LittleEndian.PutUint64(body[16:24], 1) // Usn
	binary.LittleEndian.PutUint64(body[24:32], 0) // Timestamp
	binary.LittleEndian.PutUint32(body[32:36], reason)
	binary.LittleEndian.PutUint16(body[48:50], uint16(len(nameUTF16)))
	binary.LittleEndian.PutUint16(body[50:52], uint16(nameOffset))
	copy(body[usnRecordV2FixedSize:], nameUTF16)
	return buf
}

func TestRun_RootAndChildFile(t *testing.T) {
	root := buildMftRecord(t, 5, 1, flagInUse|flagIsDir,
		buildStandardInformation(0, 0, 0, 0))
	child := buildMftRecord(t, 10, 1, flagInUse,
		buildStandardInformation(100, 100, 100, 100),
		buildFileName(1, "hello.txt", 1 /*Win32*/, 5, 1))

	var mftImage bytes.Buffer
	mftImage.Write(root)
	mftImage.Write(child)

	var out bytes.Buffer
	err := Run(context.Background(), Options{MftReader: &mftImage}, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	var found bool
	for _, line := range lines {
		if strings.Contains(line, "/hello.txt") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a line naming /hello.txt, got: %v", lines)
	}
}

func TestRun_WithJournalMergesOrphanRecord(t *testing.T) {
	root := buildMftRecord(t, 5, 1, flagInUse|flagIsDir,
		buildStandardInformation(0, 0, 0, 0))

	var mftImage bytes.Buffer
	mftImage.Write(root)

	usnRecord := buildUsnRecord(t, 9999, 1, 0, 0, 0x00000100, "ghost.txt")
	usnReader := bytes.NewReader(usnRecord)

	var out bytes.Buffer
	err := Run(context.Background(), Options{
		MftReader:     &mftImage,
		UsnjrnlReader: usnReader,
	}, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(out.String(), "ghost.txt") {
		t.Errorf("expected journal-derived entry in output, got: %q", out.String())
	}
	if !strings.Contains(out.String(), "$UsnJrnl") {
		t.Errorf("expected a $UsnJrnl annotation line, got: %q", out.String())
	}
}
