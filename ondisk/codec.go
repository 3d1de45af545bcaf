// Package ondisk implements the bit-exact binary encoding of every on-disk
// structure uvfs6 persists: the superblock (with its embedded root inode),
// individual inodes, directory blocks, and indirect block pointer arrays.
//
// All multi-byte integers are big-endian, matching the on-disk format's
// word_from_bytes/bytes_from_word helpers. Structures are serialized with
// sequential writes via github.com/noxer/bytewriter into a fixed-size
// buffer rather than hand-computed byte offsets.
package ondisk

import (
	"encoding/binary"
	"fmt"

	"github.com/noxer/bytewriter"

	"github.com/blockfs-go/uvfs6/errors"
)

// Geometry constants, bit-exact per the filesystem's on-disk format.
const (
	BlkSize      = 4096
	SectSize     = 512
	SectPerBlk   = BlkSize / SectSize // 8
	InodeSize    = 256
	InodePerBlk  = BlkSize / InodeSize // 16
	FdescSize    = 64
	FdescPerBlk  = BlkSize / FdescSize // 64
	DirectBlk    = 14
	MaxNameLen   = 32
	PointersLen  = DirectBlk + 1
	inodeTailLen = 4 * PointersLen // 60
	inodePadLen  = InodeSize - 9 - inodeTailLen
)

var byteOrder = binary.BigEndian

// FileType tags an inode as a regular file, a directory, or undefined.
type FileType byte

const (
	// TypeRegular marks a plain file.
	TypeRegular FileType = 0x08
	// TypeDirectory marks a directory.
	TypeDirectory FileType = 0x0F
	// TypeUndefined is what a never-written inode decodes as.
	TypeUndefined FileType = 0x00
)

// Inode is the decoded, 256-byte on-disk inode record.
type Inode struct {
	ID      uint32
	Size    uint32 // size of the file, in blocks
	Type    FileType
	DataPtr [PointersLen]uint32 // 14 direct pointers + 1 indirect pointer
}

// Encode serializes the inode to its 256-byte on-disk form.
func (in Inode) Encode() []byte {
	buf := make([]byte, InodeSize)
	w := bytewriter.New(buf)

	binary.Write(w, byteOrder, in.ID)
	binary.Write(w, byteOrder, in.Size)
	w.Write([]byte{byte(in.Type)})
	w.Write(make([]byte, inodePadLen))
	for _, ptr := range in.DataPtr {
		binary.Write(w, byteOrder, ptr)
	}
	return buf
}

// DecodeInode parses a 256-byte buffer into an Inode.
func DecodeInode(buf []byte) (Inode, errors.DriverError) {
	if len(buf) != InodeSize {
		return Inode{}, errors.IOFailure.WithMessage(
			fmt.Sprintf("inode buffer must be %d bytes, got %d", InodeSize, len(buf)),
		)
	}
	in := Inode{
		ID:   byteOrder.Uint32(buf[0:4]),
		Size: byteOrder.Uint32(buf[4:8]),
		Type: FileType(buf[8]),
	}
	tailStart := InodeSize - inodeTailLen
	for i := 0; i < PointersLen; i++ {
		ofs := tailStart + 4*i
		in.DataPtr[i] = byteOrder.Uint32(buf[ofs : ofs+4])
	}
	return in, nil
}

// Superblock is the decoded contents of block 0: the embedded root inode
// followed by nine geometry words.
type Superblock struct {
	Root    Inode
	BlkNb   uint32 // total blocks
	DblkNb  uint32 // data blocks
	IblkNb  uint32 // inode-table blocks
	ImapSz  uint32 // inode bitmap size, in blocks
	DmapSz  uint32 // data bitmap size, in blocks
	Inodes  uint32 // first inode-table block
	Datas   uint32 // first data block
	Imap    uint32 // inode bitmap block
	Dmap    uint32 // data bitmap block
}

// Encode serializes the superblock to its 4096-byte on-disk form.
func (sb Superblock) Encode() []byte {
	buf := make([]byte, BlkSize)
	copy(buf, sb.Root.Encode())

	w := bytewriter.New(buf[InodeSize:])
	for _, word := range []uint32{
		sb.BlkNb, sb.DblkNb, sb.IblkNb, sb.ImapSz, sb.DmapSz,
		sb.Inodes, sb.Datas, sb.Imap, sb.Dmap,
	} {
		binary.Write(w, byteOrder, word)
	}
	return buf
}

// DecodeSuperblock parses a 4096-byte block 0 into a Superblock.
func DecodeSuperblock(buf []byte) (Superblock, errors.DriverError) {
	if len(buf) != BlkSize {
		return Superblock{}, errors.IOFailure.WithMessage(
			fmt.Sprintf("superblock buffer must be %d bytes, got %d", BlkSize, len(buf)),
		)
	}
	root, err := DecodeInode(buf[:InodeSize])
	if err != nil {
		return Superblock{}, err
	}

	words := make([]uint32, 9)
	for i := range words {
		ofs := InodeSize + 4*i
		words[i] = byteOrder.Uint32(buf[ofs : ofs+4])
	}
	return Superblock{
		Root:   root,
		BlkNb:  words[0],
		DblkNb: words[1],
		IblkNb: words[2],
		ImapSz: words[3],
		DmapSz: words[4],
		Inodes: words[5],
		Datas:  words[6],
		Imap:   words[7],
		Dmap:   words[8],
	}, nil
}

// Dirent is the on-disk 64-byte directory entry: a name bound to an inode
// id. IID == 0 marks an empty slot; later slots may still be in use, since
// removing an entry leaves a hole in the table.
type Dirent struct {
	IID     uint32
	Name    [MaxNameLen]byte
	NameLen byte
}

// Encode serializes the entry to its 64-byte on-disk form.
func (fd Dirent) Encode() []byte {
	buf := make([]byte, FdescSize)
	w := bytewriter.New(buf)
	binary.Write(w, byteOrder, fd.IID)
	w.Write(fd.Name[:])
	w.Write([]byte{fd.NameLen})
	return buf
}

// DecodeDirent parses a 64-byte buffer into a Dirent.
func DecodeDirent(buf []byte) (Dirent, errors.DriverError) {
	if len(buf) != FdescSize {
		return Dirent{}, errors.IOFailure.WithMessage(
			fmt.Sprintf("dirent buffer must be %d bytes, got %d", FdescSize, len(buf)),
		)
	}
	var fd Dirent
	fd.IID = byteOrder.Uint32(buf[0:4])
	copy(fd.Name[:], buf[4:4+MaxNameLen])
	fd.NameLen = buf[4+MaxNameLen]
	return fd, nil
}

// NameString returns the entry's name as a Go string, trimmed to NameLen.
func (fd Dirent) NameString() string {
	n := int(fd.NameLen)
	if n > MaxNameLen {
		n = MaxNameLen
	}
	return string(fd.Name[:n])
}

// DirentFromName builds a Dirent for name pointing at inode iid. The caller
// must have already validated name (see the name package).
func DirentFromName(name string, iid uint32) Dirent {
	var fd Dirent
	fd.IID = iid
	fd.NameLen = byte(len(name))
	copy(fd.Name[:], name)
	return fd
}

// DirectoryBlock is the fixed table of FdescPerBlk directory entries that
// makes up a directory's sole data block.
type DirectoryBlock struct {
	Entries [FdescPerBlk]Dirent
}

// Encode serializes the directory block to its 4096-byte on-disk form.
func (db DirectoryBlock) Encode() []byte {
	buf := make([]byte, BlkSize)
	w := bytewriter.New(buf)
	for _, e := range db.Entries {
		w.Write(e.Encode())
	}
	return buf
}

// DecodeDirectoryBlock parses a 4096-byte block into a DirectoryBlock.
func DecodeDirectoryBlock(buf []byte) (DirectoryBlock, errors.DriverError) {
	if len(buf) != BlkSize {
		return DirectoryBlock{}, errors.IOFailure.WithMessage(
			fmt.Sprintf("directory block buffer must be %d bytes, got %d", BlkSize, len(buf)),
		)
	}
	var db DirectoryBlock
	for i := range db.Entries {
		ofs := i * FdescSize
		fd, err := DecodeDirent(buf[ofs : ofs+FdescSize])
		if err != nil {
			return DirectoryBlock{}, err
		}
		db.Entries[i] = fd
	}
	return db, nil
}

// Capacity returns the number of non-empty (non-zero-IID) entries. Empty
// slots left behind by a removal are skipped, not treated as the end.
func (db DirectoryBlock) Capacity() int {
	n := 0
	for _, e := range db.Entries {
		if e.IID != 0 {
			n++
		}
	}
	return n
}

// ReadIndirectPointer reads the k-th (0-based, counted from DirectBlk)
// pointer out of a decoded indirect block.
func ReadIndirectPointer(block []byte, k int) uint32 {
	ofs := 4 * k
	return byteOrder.Uint32(block[ofs : ofs+4])
}

// WriteIndirectPointer writes the k-th pointer into a decoded indirect
// block in place.
func WriteIndirectPointer(block []byte, k int, value uint32) {
	ofs := 4 * k
	byteOrder.PutUint32(block[ofs:ofs+4], value)
}
