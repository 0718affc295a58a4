// Package bodyfile builds and parses bodyfile v3 lines, the pipe
// delimited timeline-exchange format described in spec.md §6:
//
//	md5|name|inode|mode|uid|gid|size|atime|mtime|ctime|crtime
//
// md5, mode, uid, and gid are always the literal "0" for this tool; we
// never compute a hash or resolve POSIX permissions from NTFS metadata.
package bodyfile

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldCount is the number of pipe-separated fields a valid bodyfile v3
// line carries.
const FieldCount = 11

// Line is a single bodyfile v3 record, built incrementally and rendered
// with String.
type Line struct {
	Name  string
	Inode string
	Size  uint64
	Atime int64
	Mtime int64
	Ctime int64
	Crtime int64
}

// String renders the line in bodyfile v3 order. It never emits a
// trailing newline; callers append one when writing to a stream.
func (l Line) String() string {
	var b strings.Builder
	b.WriteString("0|")
	b.WriteString(l.Name)
	b.WriteByte('|')
	b.WriteString(l.Inode)
	b.WriteString("|0|0|0|")
	b.WriteString(strconv.FormatUint(l.Size, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(l.Atime, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(l.Mtime, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(l.Ctime, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(l.Crtime, 10))
	return b.String()
}

// Parsed is a bodyfile line split back into its fields, used by tests
// that want to assert on individual fields rather than substring-match
// the rendered line.
type Parsed struct {
	fields [FieldCount]string
}

// Parse splits a rendered bodyfile line into its 11 fields. It returns
// an error if the line does not have exactly FieldCount-1 separators.
func Parse(line string) (Parsed, error) {
	fields := strings.Split(line, "|")
	if len(fields) != FieldCount {
		return Parsed{}, fmt.Errorf("bodyfile: expected %d fields, got %d in %q", FieldCount, len(fields), line)
	}
	var p Parsed
	copy(p.fields[:], fields)
	return p, nil
}

func (p Parsed) Name() string  { return p.fields[1] }
func (p Parsed) Inode() string { return p.fields[2] }
func (p Parsed) Size() string  { return p.fields[6] }
func (p Parsed) Atime() string { return p.fields[7] }
func (p Parsed) Mtime() string { return p.fields[8] }
func (p Parsed) Ctime() string { return p.fields[9] }
func (p Parsed) Crtime() string { return p.fields[10] }
