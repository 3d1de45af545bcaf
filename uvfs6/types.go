// Package uvfs6 implements the filesystem engine: mkfs, mount, the path
// resolver, and every public file/directory operation layered on top of the
// on-disk structures in package ondisk and the simulated device in package
// blockdev.
//
// The package is intentionally single-threaded: every operation runs to
// completion before the next may begin, matching blockdev.Device's
// re-entrancy guard.
package uvfs6

import (
	"github.com/blockfs-go/uvfs6/errors"
	"github.com/blockfs-go/uvfs6/ondisk"
)

// FileDescriptor is the opaque "current directory" cursor handed back by
// Mount/Cd and accepted by every other operation. Callers must treat it as
// an opaque value; its only useful property is that it can be passed back
// into another operation.
type FileDescriptor struct {
	Name string
	IID  uint32
}

// dirHandle is the decoded, in-memory view of one directory's sole data
// block, plus the inode id it belongs to.
type dirHandle struct {
	iid      uint32
	table    ondisk.DirectoryBlock
	capacity int
}

// findFile returns the slot index holding name, or errors.FileNotFound
// (returned bare, so callers may compare it with ==) if no entry matches.
func (d *dirHandle) findFile(name string) (int, errors.DriverError) {
	for i := 0; i < ondisk.FdescPerBlk; i++ {
		entry := d.table.Entries[i]
		if entry.IID != 0 && entry.NameString() == name {
			return i, nil
		}
	}
	return 0, errors.FileNotFound
}

func (d *dirHandle) findFree() (int, errors.DriverError) {
	for i := 0; i < ondisk.FdescPerBlk; i++ {
		if d.table.Entries[i].IID == 0 {
			return i, nil
		}
	}
	return 0, errors.DirFull
}
