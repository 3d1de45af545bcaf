package uvfs6

import (
	"github.com/blockfs-go/uvfs6/errors"
	"github.com/blockfs-go/uvfs6/ondisk"
)

// allocate is the shared template behind Mkdir and Touch: validate the
// name, claim one inode bit and one data-block bit, write the new inode
// (plus "." and ".." for a new directory), and link it into parent.
func (fs *Filesystem) allocate(parent *dirHandle, name string, ftype ondisk.FileType) (uint32, errors.DriverError) {
	if !fs.imap.IsSet(int(parent.iid)) {
		return 0, errors.InvalidCur
	}
	if parent.capacity >= ondisk.FdescPerBlk {
		return 0, errors.DirFull
	}
	if _, err := parent.findFile(name); err == nil {
		return 0, errors.FileExist
	}
	if err := ondisk.ValidateName(name); err != nil {
		return 0, err
	}

	iid := fs.imap.FindFree()
	if iid >= int(fs.sup.IblkNb)*ondisk.InodePerBlk {
		return 0, errors.ImapFull
	}
	did := fs.dmap.FindFree()
	if did >= int(fs.sup.DblkNb) {
		return 0, errors.DmapFull
	}

	fs.imap.Mark(iid)
	fs.dmap.Mark(did)
	if err := fs.writeBitmaps(); err != nil {
		return 0, err
	}

	var dataPtr [ondisk.PointersLen]uint32
	dataPtr[0] = fs.bitToDataBlock(did)
	newInode := ondisk.Inode{ID: uint32(iid), Size: 1, Type: ftype, DataPtr: dataPtr}
	if err := fs.writeInode(newInode); err != nil {
		return 0, err
	}

	if ftype == ondisk.TypeDirectory {
		var db ondisk.DirectoryBlock
		db.Entries[0] = ondisk.DirentFromName(".", newInode.ID)
		db.Entries[1] = ondisk.DirentFromName("..", parent.iid)
		if err := fs.writeBlock(db.Encode(), dataPtr[0]); err != nil {
			return 0, err
		}
	}

	freeIdx, err := parent.findFree()
	if err != nil {
		return 0, err
	}
	parent.table.Entries[freeIdx] = ondisk.DirentFromName(name, newInode.ID)
	parent.capacity++
	if err := fs.writeDir(parent); err != nil {
		return 0, err
	}

	return newInode.ID, nil
}

// Mkdir creates an empty directory named by the last component of path,
// resolved starting from cur.
func (fs *Filesystem) Mkdir(cur FileDescriptor, path string) errors.DriverError {
	return fs.mkdirRec(cur, path)
}

func (fs *Filesystem) mkdirRec(cur FileDescriptor, path string) errors.DriverError {
	c, next, abs := splitPath(path)
	if abs {
		return fs.mkdirRec(fs.rootDesc(), next)
	}
	dir, err := fs.readDir(cur.IID)
	if err != nil {
		return err
	}
	if next == "" {
		_, err := fs.allocate(dir, c, ondisk.TypeDirectory)
		return err
	}
	idx, err := dir.findFile(c)
	if err != nil {
		return err
	}
	return fs.mkdirRec(FileDescriptor{Name: c, IID: dir.table.Entries[idx].IID}, next)
}

// Touch creates an empty regular file named by the last component of path,
// resolved starting from cur.
func (fs *Filesystem) Touch(cur FileDescriptor, path string) errors.DriverError {
	return fs.touchRec(cur, path)
}

func (fs *Filesystem) touchRec(cur FileDescriptor, path string) errors.DriverError {
	c, next, abs := splitPath(path)
	if abs {
		return fs.touchRec(fs.rootDesc(), next)
	}
	dir, err := fs.readDir(cur.IID)
	if err != nil {
		return err
	}
	if next == "" {
		_, err := fs.allocate(dir, c, ondisk.TypeRegular)
		return err
	}
	idx, err := dir.findFile(c)
	if err != nil {
		return err
	}
	return fs.touchRec(FileDescriptor{Name: c, IID: dir.table.Entries[idx].IID}, next)
}
