package uvfs6

import (
	"github.com/blockfs-go/uvfs6/errors"
	"github.com/blockfs-go/uvfs6/ondisk"
)

func ceilDiv(a, b int) int {
	if a%b == 0 {
		return a / b
	}
	return a/b + 1
}

// Write replaces the contents of the regular file named by the last
// component of path with data, growing or shrinking its block allocation
// as needed. The indirect block is allocated explicitly the first time a
// file grows past ondisk.DirectBlk blocks, and blocks freed by a shrink
// are actually returned to the data bitmap, so repeated grow/shrink
// cycles cannot leak space or silently write through a dangling indirect
// pointer.
func (fs *Filesystem) Write(cur FileDescriptor, path string, data []byte) errors.DriverError {
	return fs.writeRec(cur, path, data)
}

func (fs *Filesystem) writeRec(cur FileDescriptor, path string, data []byte) errors.DriverError {
	c, next, abs := splitPath(path)
	if abs {
		return fs.writeRec(fs.rootDesc(), next, data)
	}
	dir, err := fs.readDir(cur.IID)
	if err != nil {
		return err
	}
	if next == "" {
		return fs.writeFileTerminal(dir, c, data)
	}
	idx, err := dir.findFile(c)
	if err != nil {
		return err
	}
	return fs.writeRec(FileDescriptor{Name: c, IID: dir.table.Entries[idx].IID}, next, data)
}

func (fs *Filesystem) writeFileTerminal(parent *dirHandle, name string, data []byte) errors.DriverError {
	idx, err := parent.findFile(name)
	if err != nil {
		return err
	}
	iid := parent.table.Entries[idx].IID
	inode, err := fs.readInode(iid)
	if err != nil {
		return err
	}
	if inode.Type == ondisk.TypeDirectory {
		return errors.WriteDir
	}

	oldSize := inode.Size
	newSize := uint32(ceilDiv(len(data), ondisk.BlkSize))

	if newSize < oldSize {
		if err := fs.shrinkFile(&inode, newSize, oldSize); err != nil {
			return err
		}
	} else if newSize > oldSize {
		if err := fs.growFile(&inode, oldSize, newSize); err != nil {
			return err
		}
	}

	inode.Size = newSize
	if err := fs.writeInode(inode); err != nil {
		return err
	}

	for k := uint32(0); k < newSize; k++ {
		start := int(k) * ondisk.BlkSize
		end := start + ondisk.BlkSize
		if end > len(data) {
			end = len(data)
		}
		blk := make([]byte, ondisk.BlkSize)
		copy(blk, data[start:end])
		if err := fs.writeFblk(inode.ID, int(k), blk); err != nil {
			return err
		}
	}
	return nil
}

// growFile allocates one data block per new logical index in
// [oldSize, newSize), allocating the indirect block itself the first time
// a pointer past ondisk.DirectBlk is needed.
func (fs *Filesystem) growFile(inode *ondisk.Inode, oldSize, newSize uint32) errors.DriverError {
	for k := oldSize; k < newSize; k++ {
		did := fs.dmap.FindFree()
		if did >= int(fs.sup.DblkNb) {
			return errors.DmapFull
		}
		fs.dmap.Mark(did)
		block := fs.bitToDataBlock(did)

		if k < ondisk.DirectBlk {
			inode.DataPtr[k] = block
			if err := fs.writeBitmaps(); err != nil {
				return err
			}
			continue
		}

		if inode.DataPtr[ondisk.DirectBlk] == 0 {
			indDid := fs.dmap.FindFree()
			if indDid >= int(fs.sup.DblkNb) {
				return errors.DmapFull
			}
			fs.dmap.Mark(indDid)
			inode.DataPtr[ondisk.DirectBlk] = fs.bitToDataBlock(indDid)
			if err := fs.writeBlock(make([]byte, ondisk.BlkSize), inode.DataPtr[ondisk.DirectBlk]); err != nil {
				return err
			}
		}
		if err := fs.writeBitmaps(); err != nil {
			return err
		}

		indirect, err := fs.readBlock(inode.DataPtr[ondisk.DirectBlk])
		if err != nil {
			return err
		}
		ondisk.WriteIndirectPointer(indirect, int(k-ondisk.DirectBlk), block)
		if err := fs.writeBlock(indirect, inode.DataPtr[ondisk.DirectBlk]); err != nil {
			return err
		}
	}
	return nil
}

// shrinkFile releases every data block in [newSize, oldSize), plus the
// indirect block itself if the file no longer needs it.
func (fs *Filesystem) shrinkFile(inode *ondisk.Inode, newSize, oldSize uint32) errors.DriverError {
	for k := newSize; k < oldSize; k++ {
		block, err := fs.blockNumberForIndex(*inode, k)
		if err != nil {
			return err
		}
		fs.dmap.Clear(fs.dataBlockToBit(block))
	}
	if newSize <= ondisk.DirectBlk && oldSize > ondisk.DirectBlk && inode.DataPtr[ondisk.DirectBlk] != 0 {
		fs.dmap.Clear(fs.dataBlockToBit(inode.DataPtr[ondisk.DirectBlk]))
		inode.DataPtr[ondisk.DirectBlk] = 0
	}
	return fs.writeBitmaps()
}
