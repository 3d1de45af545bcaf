package uvfs6

import (
	"github.com/blockfs-go/uvfs6/bitmap"
	"github.com/blockfs-go/uvfs6/blockdev"
	"github.com/blockfs-go/uvfs6/errors"
	"github.com/blockfs-go/uvfs6/ondisk"
)

// Filesystem is a mounted uvfs6 volume: the device it sits on, the decoded
// superblock, and the two free bitmaps kept resident for the life of the
// mount.
type Filesystem struct {
	dev  *blockdev.Device
	sup  ondisk.Superblock
	imap *bitmap.FreeMap
	dmap *bitmap.FreeMap
}

// rootDesc returns the cursor for the filesystem root.
func (fs *Filesystem) rootDesc() FileDescriptor {
	return FileDescriptor{Name: "/", IID: fs.sup.Root.ID}
}

// Home returns the cursor every shell-like caller should start from: the
// root directory.
func (fs *Filesystem) Home() FileDescriptor {
	return fs.rootDesc()
}

// readBlock reads the ondisk.BlkSize-byte block at absolute block index ofs,
// one sector at a time.
func (fs *Filesystem) readBlock(ofs uint32) ([]byte, errors.DriverError) {
	blk := make([]byte, ondisk.BlkSize)
	for i := 0; i < ondisk.SectPerBlk; i++ {
		sect, err := fs.dev.ReadSector(ofs*ondisk.SectPerBlk + uint32(i))
		if err != nil {
			return nil, err
		}
		copy(blk[i*blockdev.SectorSize:], sect)
	}
	return blk, nil
}

// writeBlock writes a full ondisk.BlkSize-byte block to absolute block index
// ofs, one sector at a time.
func (fs *Filesystem) writeBlock(blk []byte, ofs uint32) errors.DriverError {
	for i := 0; i < ondisk.SectPerBlk; i++ {
		sect := blk[i*blockdev.SectorSize : (i+1)*blockdev.SectorSize]
		if err := fs.dev.WriteSector(ofs*ondisk.SectPerBlk+uint32(i), sect); err != nil {
			return err
		}
	}
	return nil
}

func (fs *Filesystem) writeSuperblock() errors.DriverError {
	return fs.writeBlock(fs.sup.Encode(), 0)
}

func (fs *Filesystem) writeBitmaps() errors.DriverError {
	if err := fs.writeBlock(fs.imap.Bytes(), fs.sup.Imap); err != nil {
		return err
	}
	return fs.writeBlock(fs.dmap.Bytes(), fs.sup.Dmap)
}

func (fs *Filesystem) readInode(iid uint32) (ondisk.Inode, errors.DriverError) {
	ofs := fs.sup.Inodes + iid/ondisk.InodePerBlk
	blk, err := fs.readBlock(ofs)
	if err != nil {
		return ondisk.Inode{}, err
	}
	slot := int(iid % ondisk.InodePerBlk)
	return ondisk.DecodeInode(blk[slot*ondisk.InodeSize : (slot+1)*ondisk.InodeSize])
}

func (fs *Filesystem) writeInode(in ondisk.Inode) errors.DriverError {
	ofs := fs.sup.Inodes + in.ID/ondisk.InodePerBlk
	blk, err := fs.readBlock(ofs)
	if err != nil {
		return err
	}
	slot := int(in.ID % ondisk.InodePerBlk)
	copy(blk[slot*ondisk.InodeSize:(slot+1)*ondisk.InodeSize], in.Encode())
	return fs.writeBlock(blk, ofs)
}

// blockNumberForIndex returns the absolute block number holding logical
// block k of inode, without allocating anything. k must be < inode.Size.
func (fs *Filesystem) blockNumberForIndex(inode ondisk.Inode, k uint32) (uint32, errors.DriverError) {
	if k < ondisk.DirectBlk {
		return inode.DataPtr[k], nil
	}
	indirect, err := fs.readBlock(inode.DataPtr[ondisk.DirectBlk])
	if err != nil {
		return 0, err
	}
	return ondisk.ReadIndirectPointer(indirect, int(k-ondisk.DirectBlk)), nil
}

// readFblk reads the n-th logical block of the file/directory identified by
// iid, following the indirect pointer when n >= ondisk.DirectBlk.
func (fs *Filesystem) readFblk(iid uint32, n int) ([]byte, errors.DriverError) {
	inode, err := fs.readInode(iid)
	if err != nil {
		return nil, err
	}
	if uint32(n) >= inode.Size {
		return nil, errors.UndefBlk
	}
	block, err := fs.blockNumberForIndex(inode, uint32(n))
	if err != nil {
		return nil, err
	}
	return fs.readBlock(block)
}

// writeFblk writes the n-th logical block of the file/directory identified
// by iid. The block must already be allocated (see writeFileTerminal, which
// grows an inode before calling this).
func (fs *Filesystem) writeFblk(iid uint32, n int, buf []byte) errors.DriverError {
	inode, err := fs.readInode(iid)
	if err != nil {
		return err
	}
	if uint32(n) >= inode.Size {
		return errors.UndefBlk
	}
	block, err := fs.blockNumberForIndex(inode, uint32(n))
	if err != nil {
		return err
	}
	return fs.writeBlock(buf, block)
}

// dataBlockToBit converts an absolute block number stored in an inode's
// DataPtr into the relative bit index used by the data bitmap.
func (fs *Filesystem) dataBlockToBit(block uint32) int {
	return int(block - fs.sup.Datas)
}

// bitToDataBlock converts a relative data-bitmap bit index into the
// absolute block number to store in an inode's DataPtr.
func (fs *Filesystem) bitToDataBlock(bit int) uint32 {
	return uint32(bit) + fs.sup.Datas
}

func (fs *Filesystem) readDir(iid uint32) (*dirHandle, errors.DriverError) {
	inode, err := fs.readInode(iid)
	if err != nil {
		return nil, err
	}
	if inode.Type != ondisk.TypeDirectory {
		return nil, errors.NoDirectory
	}
	blk, err := fs.readFblk(iid, 0)
	if err != nil {
		return nil, err
	}
	table, err := ondisk.DecodeDirectoryBlock(blk)
	if err != nil {
		return nil, err
	}
	return &dirHandle{iid: iid, table: table, capacity: table.Capacity()}, nil
}

func (fs *Filesystem) writeDir(d *dirHandle) errors.DriverError {
	return fs.writeFblk(d.iid, 0, d.table.Encode())
}

// Mkfs formats dev with a fresh uvfs6 filesystem: a single root directory
// containing "." and "..", with the fixed layout of 64 blocks total, 56 of
// them data blocks, a 5-block inode table, one inode bitmap block and one
// data bitmap block.
func Mkfs(dev *blockdev.Device) errors.DriverError {
	var rootPtr [ondisk.PointersLen]uint32
	rootPtr[0] = 8

	fs := &Filesystem{
		dev: dev,
		sup: ondisk.Superblock{
			Root: ondisk.Inode{
				ID:      1,
				Size:    1,
				Type:    ondisk.TypeDirectory,
				DataPtr: rootPtr,
			},
			BlkNb:  64,
			DblkNb: 56,
			IblkNb: 5,
			ImapSz: 1,
			DmapSz: 1,
			Inodes: 3,
			Datas:  8,
			Imap:   1,
			Dmap:   2,
		},
		imap: bitmap.New(),
		dmap: bitmap.New(),
	}
	fs.imap.Mark(1)
	fs.dmap.Mark(0)

	if err := fs.writeBitmaps(); err != nil {
		return err
	}
	if err := fs.writeSuperblock(); err != nil {
		return err
	}
	if err := fs.writeInode(fs.sup.Root); err != nil {
		return err
	}

	var root ondisk.DirectoryBlock
	root.Entries[0] = ondisk.DirentFromName(".", fs.sup.Root.ID)
	root.Entries[1] = ondisk.DirentFromName("..", fs.sup.Root.ID)
	return fs.writeBlock(root.Encode(), rootPtr[0])
}

// Mount reads an existing uvfs6 filesystem's superblock and bitmaps off
// dev and returns a ready-to-use Filesystem.
func Mount(dev *blockdev.Device) (*Filesystem, errors.DriverError) {
	fs := &Filesystem{dev: dev}

	blk, err := fs.readBlock(0)
	if err != nil {
		return nil, err
	}
	sup, err := ondisk.DecodeSuperblock(blk)
	if err != nil {
		return nil, err
	}
	fs.sup = sup

	imapBlk, err := fs.readBlock(sup.Imap)
	if err != nil {
		return nil, err
	}
	fs.imap = bitmap.FromBytes(imapBlk)

	dmapBlk, err := fs.readBlock(sup.Dmap)
	if err != nil {
		return nil, err
	}
	fs.dmap = bitmap.FromBytes(dmapBlk)

	return fs, nil
}
