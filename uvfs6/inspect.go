package uvfs6

import (
	"io"

	"github.com/blockfs-go/uvfs6/errors"
	"github.com/blockfs-go/uvfs6/ondisk"
)

// Export writes a compressed snapshot of the filesystem's entire backing
// device to w. See blockdev.Device.Export.
func (fs *Filesystem) Export(w io.Writer) (int64, errors.DriverError) {
	return fs.dev.Export(w)
}

// Superblock returns a copy of the mounted filesystem's superblock, for
// read-only introspection by packages such as fsck and report.
func (fs *Filesystem) Superblock() ondisk.Superblock {
	return fs.sup
}

// InodeCount returns the total number of inode slots the inode table can
// hold, allocated or not.
func (fs *Filesystem) InodeCount() int {
	return int(fs.sup.IblkNb) * ondisk.InodePerBlk
}

// DataBlockCount returns the number of bits the data bitmap tracks.
func (fs *Filesystem) DataBlockCount() int {
	return int(fs.sup.DblkNb)
}

// InodeAllocated reports whether inode iid is marked used in the inode
// bitmap.
func (fs *Filesystem) InodeAllocated(iid int) bool {
	return fs.imap.IsSet(iid)
}

// DataAllocated reports whether data-bitmap bit i is marked used.
func (fs *Filesystem) DataAllocated(i int) bool {
	return fs.dmap.IsSet(i)
}

// ReadInode exposes the engine's inode reader for read-only tooling.
func (fs *Filesystem) ReadInode(iid uint32) (ondisk.Inode, errors.DriverError) {
	return fs.readInode(iid)
}

// BlockAt returns the absolute block number backing logical block k of
// inode, without allocating anything.
func (fs *Filesystem) BlockAt(inode ondisk.Inode, k uint32) (uint32, errors.DriverError) {
	return fs.blockNumberForIndex(inode, k)
}

// DataBlockToBit converts an absolute block number into its data-bitmap
// bit index.
func (fs *Filesystem) DataBlockToBit(block uint32) int {
	return fs.dataBlockToBit(block)
}
