package uvfs6

import (
	"github.com/blockfs-go/uvfs6/errors"
	"github.com/blockfs-go/uvfs6/ondisk"
)

// freeFileBlocks releases every data block (and the indirect block itself,
// if one was allocated) belonging to a regular file's inode, plus the
// inode bit. It does not touch any directory entry pointing at it.
func (fs *Filesystem) freeFileBlocks(inode ondisk.Inode) errors.DriverError {
	fs.imap.Clear(int(inode.ID))
	for k := uint32(0); k < inode.Size; k++ {
		block, err := fs.blockNumberForIndex(inode, k)
		if err != nil {
			return err
		}
		fs.dmap.Clear(fs.dataBlockToBit(block))
	}
	if inode.Size > ondisk.DirectBlk && inode.DataPtr[ondisk.DirectBlk] != 0 {
		fs.dmap.Clear(fs.dataBlockToBit(inode.DataPtr[ondisk.DirectBlk]))
	}
	return fs.writeBitmaps()
}

// cleanDir recursively empties a directory so it can be safely freed:
// every subdirectory is cleaned and freed, every regular file's blocks are
// released. Entries "." (0) and ".." (1) are left untouched since the
// caller frees the directory's own inode and data block itself.
func (fs *Filesystem) cleanDir(d *dirHandle) errors.DriverError {
	for i := 2; i < ondisk.FdescPerBlk; i++ {
		entry := d.table.Entries[i]
		if entry.IID == 0 {
			continue
		}
		d.table.Entries[i] = ondisk.Dirent{}

		childInode, err := fs.readInode(entry.IID)
		if err != nil {
			return err
		}
		if childInode.Type == ondisk.TypeDirectory {
			childDir, err := fs.readDir(entry.IID)
			if err != nil {
				return err
			}
			if err := fs.cleanDir(childDir); err != nil {
				return err
			}
			fs.imap.Clear(int(childInode.ID))
			fs.dmap.Clear(fs.dataBlockToBit(childInode.DataPtr[0]))
			if err := fs.writeBitmaps(); err != nil {
				return err
			}
		} else if err := fs.freeFileBlocks(childInode); err != nil {
			return err
		}
	}
	d.capacity = 2
	return fs.writeDir(d)
}

// Rmdir recursively removes the directory named by the last component of
// path, along with everything it contains. "." and ".." are refused at
// every level of the path, not only the terminal component.
func (fs *Filesystem) Rmdir(cur FileDescriptor, path string) errors.DriverError {
	return fs.rmdirRec(cur, path)
}

func (fs *Filesystem) rmdirRec(cur FileDescriptor, path string) errors.DriverError {
	c, next, abs := splitPath(path)
	if abs {
		return fs.rmdirRec(fs.rootDesc(), next)
	}
	if c == "." || c == ".." {
		return errors.Occuped
	}
	dir, err := fs.readDir(cur.IID)
	if err != nil {
		return err
	}
	if next == "" {
		return fs.rmdirTerminal(dir, c)
	}
	idx, err := dir.findFile(c)
	if err != nil {
		return err
	}
	return fs.rmdirRec(FileDescriptor{Name: c, IID: dir.table.Entries[idx].IID}, next)
}

func (fs *Filesystem) rmdirTerminal(parent *dirHandle, name string) errors.DriverError {
	idx, err := parent.findFile(name)
	if err != nil {
		return err
	}
	targetIID := parent.table.Entries[idx].IID
	targetInode, err := fs.readInode(targetIID)
	if err != nil {
		return err
	}
	if targetInode.Type != ondisk.TypeDirectory {
		return errors.NoDirectory
	}

	parent.table.Entries[idx] = ondisk.Dirent{}
	parent.capacity--
	if err := fs.writeDir(parent); err != nil {
		return err
	}

	targetDir, err := fs.readDir(targetIID)
	if err != nil {
		return err
	}
	if err := fs.cleanDir(targetDir); err != nil {
		return err
	}

	fs.imap.Clear(int(targetInode.ID))
	fs.dmap.Clear(fs.dataBlockToBit(targetInode.DataPtr[0]))
	return fs.writeBitmaps()
}

// Rm removes the regular file named by the last component of path. It
// refuses to remove a directory; Rmdir is required for that.
func (fs *Filesystem) Rm(cur FileDescriptor, path string) errors.DriverError {
	return fs.rmRec(cur, path)
}

func (fs *Filesystem) rmRec(cur FileDescriptor, path string) errors.DriverError {
	c, next, abs := splitPath(path)
	if abs {
		return fs.rmRec(fs.rootDesc(), next)
	}
	dir, err := fs.readDir(cur.IID)
	if err != nil {
		return err
	}
	if next == "" {
		return fs.rmTerminal(dir, c)
	}
	idx, err := dir.findFile(c)
	if err != nil {
		return err
	}
	return fs.rmRec(FileDescriptor{Name: c, IID: dir.table.Entries[idx].IID}, next)
}

func (fs *Filesystem) rmTerminal(parent *dirHandle, name string) errors.DriverError {
	idx, err := parent.findFile(name)
	if err != nil {
		return err
	}
	targetIID := parent.table.Entries[idx].IID
	inode, err := fs.readInode(targetIID)
	if err != nil {
		return err
	}
	if inode.Type == ondisk.TypeDirectory {
		return errors.RemoveDir
	}

	if err := fs.freeFileBlocks(inode); err != nil {
		return err
	}

	parent.table.Entries[idx] = ondisk.Dirent{}
	parent.capacity--
	return fs.writeDir(parent)
}
