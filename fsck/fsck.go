// Package fsck validates the testable invariants a mounted uvfs6
// filesystem must hold: every allocated inode has a sane type, every
// block pointer it carries resolves to a data bit that is actually
// marked used, and every used data bit is referenced by exactly one
// inode. Every violation found is collected rather than reported one at
// a time.
package fsck

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/blockfs-go/uvfs6/ondisk"
	"github.com/blockfs-go/uvfs6/uvfs6"
)

// Check walks every inode slot and every data bit of fs and returns a
// single error aggregating every invariant violation found, or nil if
// the filesystem is internally consistent.
func Check(fs *uvfs6.Filesystem) error {
	var result *multierror.Error

	used := make(map[int]bool)

	for iid := 0; iid < fs.InodeCount(); iid++ {
		if !fs.InodeAllocated(iid) {
			continue
		}
		inode, err := fs.ReadInode(uint32(iid))
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("inode %d: %w", iid, err))
			continue
		}
		if inode.ID != uint32(iid) {
			result = multierror.Append(result, fmt.Errorf(
				"inode %d: encoded id %d does not match its slot", iid, inode.ID))
		}
		if inode.Type != ondisk.TypeRegular && inode.Type != ondisk.TypeDirectory {
			result = multierror.Append(result, fmt.Errorf(
				"inode %d: allocated but has no valid type (0x%02x)", iid, byte(inode.Type)))
			continue
		}

		for k := uint32(0); k < inode.Size; k++ {
			block, err := fs.BlockAt(inode, k)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d: block %d: %w", iid, k, err))
				continue
			}
			bit := fs.DataBlockToBit(block)
			if bit < 0 || bit >= fs.DataBlockCount() {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d: block %d resolves to out-of-range data bit %d", iid, k, bit))
				continue
			}
			if !fs.DataAllocated(bit) {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d: block %d (data bit %d) is not marked used", iid, k, bit))
			}
			if used[bit] {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d: block %d (data bit %d) is referenced more than once", iid, k, bit))
			}
			used[bit] = true
		}

		if inode.Size > ondisk.DirectBlk && inode.DataPtr[ondisk.DirectBlk] != 0 {
			bit := fs.DataBlockToBit(inode.DataPtr[ondisk.DirectBlk])
			if bit > 0 && bit < fs.DataBlockCount() && !fs.DataAllocated(bit) {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d: indirect block (data bit %d) is not marked used", iid, bit))
			}
			if used[bit] {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d: indirect block (data bit %d) is referenced more than once", iid, bit))
			}
			used[bit] = true
		}
	}

	for bit := 1; bit < fs.DataBlockCount(); bit++ {
		if fs.DataAllocated(bit) && !used[bit] {
			result = multierror.Append(result, fmt.Errorf(
				"data bit %d is marked used but is not referenced by any inode", bit))
		}
	}

	return result.ErrorOrNil()
}
