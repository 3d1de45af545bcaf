package uvfs6

import (
	"github.com/blockfs-go/uvfs6/errors"
	"github.com/blockfs-go/uvfs6/ondisk"
)

// chaseOld resolves the source of an Mv: the directory holding the entry
// to move, plus the entry's own name.
func (fs *Filesystem) chaseOld(cur FileDescriptor, path string) (*dirHandle, string, errors.DriverError) {
	c, next, abs := splitPath(path)
	if abs {
		return fs.chaseOld(fs.rootDesc(), next)
	}
	dir, err := fs.readDir(cur.IID)
	if err != nil {
		return nil, "", err
	}
	if next == "" {
		return dir, c, nil
	}
	idx, err := dir.findFile(c)
	if err != nil {
		return nil, "", err
	}
	return fs.chaseOld(FileDescriptor{Name: c, IID: dir.table.Entries[idx].IID}, next)
}

// chaseNew resolves the destination of an Mv. If the terminal component
// already names a directory, the move lands inside it under the source's
// original name (hasName is false). If it names nothing, the move lands in
// the terminal component's parent directory under the given new name
// (hasName is true). If it names a regular file, errors.NoDirectory is
// returned.
func (fs *Filesystem) chaseNew(cur FileDescriptor, path string) (dir *dirHandle, newName string, hasName bool, err errors.DriverError) {
	c, next, abs := splitPath(path)
	if abs {
		return fs.chaseNew(fs.rootDesc(), next)
	}
	curDir, err := fs.readDir(cur.IID)
	if err != nil {
		return nil, "", false, err
	}
	if next == "" {
		idx, ferr := curDir.findFile(c)
		if ferr == nil {
			targetDir, derr := fs.readDir(curDir.table.Entries[idx].IID)
			if derr != nil {
				return nil, "", false, derr
			}
			return targetDir, "", false, nil
		}
		if ferr == errors.FileNotFound {
			return curDir, c, true, nil
		}
		return nil, "", false, ferr
	}
	idx, ferr := curDir.findFile(c)
	if ferr != nil {
		return nil, "", false, ferr
	}
	return fs.chaseNew(FileDescriptor{Name: c, IID: curDir.table.Entries[idx].IID}, next)
}

// Mv moves the entry named by oldPath (resolved from cur) to newPath
// (also resolved from cur). "." and ".." may not be moved.
func (fs *Filesystem) Mv(cur FileDescriptor, oldPath, newPath string) errors.DriverError {
	oldDir, oldName, err := fs.chaseOld(cur, oldPath)
	if err != nil {
		return err
	}
	if oldName == "." || oldName == ".." {
		return errors.MvCurOrPrev
	}

	newDir, maybeName, hasName, err := fs.chaseNew(cur, newPath)
	if err != nil {
		return err
	}
	newName := oldName
	if hasName {
		newName = maybeName
	}
	if err := ondisk.ValidateName(newName); err != nil {
		return err
	}

	idxOld, ferr := oldDir.findFile(oldName)
	if ferr != nil {
		return ferr
	}
	movedIID := oldDir.table.Entries[idxOld].IID
	newEntry := ondisk.DirentFromName(newName, movedIID)

	if oldDir.iid == newDir.iid {
		oldDir.table.Entries[idxOld] = newEntry
		return fs.writeDir(oldDir)
	}

	freeIdx, err := newDir.findFree()
	if err != nil {
		return err
	}
	newDir.table.Entries[freeIdx] = newEntry
	newDir.capacity++
	if err := fs.writeDir(newDir); err != nil {
		return err
	}

	oldDir.table.Entries[idxOld] = ondisk.Dirent{}
	oldDir.capacity--
	return fs.writeDir(oldDir)
}
