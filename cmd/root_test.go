package cmd

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ntfs-forensics/mft2bodyfile/cfg"
)

// --- minimal $MFT byte-builder, mirroring internal/pipeline's own test
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

func TestRun_WritesBodyfileToOutputFile(t *testing.T) {
	dir := t.TempDir()

	root := buildMftRecord(t, 5, 1, flagInUse|flagIsDir,
		buildStandardInformation(0, 0, 0, 0))
	child := buildMftRecord(t, 10, 1, flagInUse,
		buildStandardInformation(100, 100, 100, 100),
		buildFileName(1, "hello.txt", 1, 5, 1))

	mftPath := filepath.Join(dir, "MFT")
	require.NoError(t, os.WriteFile(mftPath, append(root, child...), 0o644))

	outPath := filepath.Join(dir, "out.body")
	conf := cfg.Config{}
	conf.Output.Target = outPath
	conf.Logging = cfg.GetDefaultLoggingConfig()

	require.NoError(t, run(context.Background(), mftPath, conf))

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(got), "/hello.txt"), "output: %s", got)
}

func TestRun_MissingMftFileReturnsError(t *testing.T) {
	conf := cfg.Config{}
	conf.Output.Target = "-"
	conf.Logging = cfg.GetDefaultLoggingConfig()

	err := run(context.Background(), "/nonexistent/mft/path", conf)
	require.Error(t, err)
}
