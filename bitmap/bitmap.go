// Package bitmap implements the fixed-size free/used bit maps that back the
// inode table and the data block area of a uvfs6 filesystem.
//
// Each map occupies exactly one 4096-byte block (32768 bits). Bit 0 is
// reserved as a sentinel ("never allocate inode/block 0") and is always
// skipped by FindFree.
package bitmap

import (
	"github.com/boljen/go-bitmap"
)

// BlockSize is the size, in bytes, of one bitmap block.
const BlockSize = 4096

// bitsPerBlock is the number of bits a single bitmap block can track.
const bitsPerBlock = BlockSize * 8

// OutOfRange is the sentinel FindFree returns when no bit is free. It is
// larger than any inode or data-block count a caller bound-checks against
// (all <= BlockSize), so those bound checks always fail closed.
const OutOfRange = BlockSize + 1

// FreeMap is a free/used bit table occupying exactly one block.
//
// The underlying storage comes from github.com/boljen/go-bitmap, which gives
// us allocation and a raw byte view; the bit convention required by the
// on-disk format (bit i lives at byte i/8, mask 0x80>>(i%8), i.e. bit 0 is
// the MSB of byte 0) is implemented directly against that storage rather
// than through the library's own Get/Set, which use the opposite
// convention. This keeps the persisted byte layout bit-exact with the
// on-disk format while still sourcing the backing allocation from the
// library.
type FreeMap struct {
	bits bitmap.Bitmap
}

// New creates a FreeMap with every bit clear.
func New() *FreeMap {
	return &FreeMap{bits: bitmap.New(bitsPerBlock)}
}

// FromBytes wraps an existing block's worth of bytes (e.g. one just read
// from the device) as a FreeMap. buf must be exactly BlockSize bytes; a
// shorter or longer buffer is a programmer error in the caller.
func FromBytes(buf []byte) *FreeMap {
	fm := New()
	copy(fm.bits, buf)
	return fm
}

// Bytes returns the raw block backing this map, suitable for writing to the
// device verbatim.
func (fm *FreeMap) Bytes() []byte {
	return []byte(fm.bits)
}

func selectBit(b byte, bit uint) bool {
	return (b>>(7-bit))&1 == 1
}

func changeBit(b byte, bit uint, value bool) byte {
	mask := byte(0x80 >> bit)
	if value {
		return b | mask
	}
	return b &^ mask
}

// IsSet reports whether bit i is marked used. An out-of-range index
// (including OutOfRange itself) is always reported as false.
func (fm *FreeMap) IsSet(i int) bool {
	if i < 0 || i >= bitsPerBlock || i == OutOfRange {
		return false
	}
	return selectBit(fm.bits[i/8], uint(i%8))
}

// Mark marks bit i as used.
func (fm *FreeMap) Mark(i int) {
	fm.bits[i/8] = changeBit(fm.bits[i/8], uint(i%8), true)
}

// Clear marks bit i as free.
func (fm *FreeMap) Clear(i int) {
	fm.bits[i/8] = changeBit(fm.bits[i/8], uint(i%8), false)
}

// FindFree returns the lowest free bit index greater than 0, or OutOfRange
// if the map is exhausted. Index 0 is always treated as used, even if it
// happens to be clear, per the "inode/block 0 is a sentinel" invariant.
func (fm *FreeMap) FindFree() int {
	for byteIdx, b := range fm.bits {
		if b == 0xFF {
			continue
		}
		for bit := uint(0); bit < 8; bit++ {
			if !selectBit(b, bit) {
				idx := byteIdx*8 + int(bit)
				if idx == 0 {
					continue
				}
				return idx
			}
		}
	}
	return OutOfRange
}
