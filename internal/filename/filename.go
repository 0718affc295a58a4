// Package filename holds the winning $FILE_NAME attribute for a
// reconstructed MFT entry, applying the namespace priority ladder
// described in spec.md §3/§4.2.
package filename

import (
	"github.com/ntfs-forensics/mft2bodyfile/internal/mftref"
	"github.com/ntfs-forensics/mft2bodyfile/internal/timestamp"
)

// Attr is the minimal view of a raw $FILE_NAME attribute that Info
// needs; internal/mftbin produces these from decoded records.
type Attr struct {
	Name        string
	Namespace   Namespace
	Parent      mftref.Reference
	LogicalSize uint64
	Accessed    uint64
	MftModified uint64
	Modified    uint64
	Created     uint64
}

// Info is the chosen $FILE_NAME attribute for one reconstructed file.
// Once IsFinal reports true (namespace == Win32AndDos), it is never
// updated again (spec.md §3, Invariant).
type Info struct {
	filename    string
	namespace   Namespace
	timestamps  timestamp.Tuple
	parent      mftref.Reference
	logicalSize uint64
	instanceID  uint16
}

// Build constructs the first Info seen for an entry from a raw
// attribute and its instance id (the attribute header's Instance
// field, used later to build the bodyfile inode token).
func Build(attr Attr, instanceID uint16) Info {
	return Info{
		filename:    attr.Name,
		namespace:   attr.Namespace,
		timestamps:  timestamp.FromFiletimes(attr.Accessed, attr.MftModified, attr.Modified, attr.Created),
		parent:      attr.Parent,
		logicalSize: attr.LogicalSize,
		instanceID:  instanceID,
	}
}

// IsFinal reports whether this Info can no longer change: true once the
// stored namespace is Win32AndDos.
func (i Info) IsFinal() bool {
	return i.namespace == Win32AndDos
}

// Update applies the namespace ladder to decide whether attr should
// replace the current contents:
//
//	incoming Win32AndDos always wins
//	incoming Win32       wins unless current is Win32AndDos
//	incoming POSIX       wins only if current is DOS
//	incoming DOS         never wins
//
// The ladder makes Update idempotent under replay: re-applying the same
// or a lower-priority namespace is a no-op. Once IsFinal reports true,
// Update does nothing at all.
func (i *Info) Update(attr Attr, instanceID uint16) {
	if i.IsFinal() {
		return
	}
	switch attr.Namespace {
	case Win32AndDos:
		i.replace(attr, instanceID)
	case Win32:
		if i.namespace != Win32AndDos {
			i.replace(attr, instanceID)
		}
	case POSIX:
		if i.namespace == DOS {
			i.replace(attr, instanceID)
		}
	case DOS:
		// DOS never wins over anything already stored.
	}
}

func (i *Info) replace(attr Attr, instanceID uint16) {
	i.filename = attr.Name
	i.namespace = attr.Namespace
	i.timestamps = timestamp.FromFiletimes(attr.Accessed, attr.MftModified, attr.Modified, attr.Created)
	i.parent = attr.Parent
	i.logicalSize = attr.LogicalSize
	i.instanceID = instanceID
}

func (i Info) Filename() string            { return i.filename }
func (i Info) Namespace() Namespace        { return i.namespace }
func (i Info) Timestamps() timestamp.Tuple { return i.timestamps }
func (i Info) Parent() mftref.Reference    { return i.parent }
func (i Info) LogicalSize() uint64         { return i.logicalSize }
func (i Info) InstanceID() uint16          { return i.instanceID }
