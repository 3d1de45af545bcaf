package uvfs6

import (
	"strings"

	"github.com/blockfs-go/uvfs6/errors"
	"github.com/blockfs-go/uvfs6/ondisk"
)

// Ls lists the names in the directory resolved from cur/path, one per
// line, in directory-table order (not sorted).
func (fs *Filesystem) Ls(cur FileDescriptor, path string) (string, errors.DriverError) {
	return fs.lsRec(cur, path)
}

func (fs *Filesystem) lsRec(cur FileDescriptor, path string) (string, errors.DriverError) {
	c, next, abs := splitPath(path)
	if abs {
		return fs.lsRec(fs.rootDesc(), next)
	}
	dir, err := fs.readDir(cur.IID)
	if err != nil {
		return "", err
	}
	if c == "" {
		return fs.lsDir(dir), nil
	}
	idx, err := dir.findFile(c)
	if err != nil {
		return "", err
	}
	return fs.lsRec(FileDescriptor{Name: c, IID: dir.table.Entries[idx].IID}, next)
}

func (fs *Filesystem) lsDir(dir *dirHandle) string {
	var sb strings.Builder
	for _, e := range dir.table.Entries {
		if e.IID == 0 {
			continue
		}
		sb.WriteString(e.NameString())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Cat returns the contents of the regular file resolved from cur/path, as
// text: each data block is scanned byte by byte until a NUL terminator or
// the end of the file's blocks, whichever comes first, and one trailing
// newline is appended.
func (fs *Filesystem) Cat(cur FileDescriptor, path string) (string, errors.DriverError) {
	return fs.catRec(cur, path)
}

func (fs *Filesystem) catRec(cur FileDescriptor, path string) (string, errors.DriverError) {
	c, next, abs := splitPath(path)
	if abs {
		return fs.catRec(fs.rootDesc(), next)
	}
	dir, err := fs.readDir(cur.IID)
	if err != nil {
		return "", err
	}
	if next == "" {
		return fs.catFile(dir, c)
	}
	idx, err := dir.findFile(c)
	if err != nil {
		return "", err
	}
	return fs.catRec(FileDescriptor{Name: c, IID: dir.table.Entries[idx].IID}, next)
}

func (fs *Filesystem) catFile(dir *dirHandle, name string) (string, errors.DriverError) {
	idx, err := dir.findFile(name)
	if err != nil {
		return "", err
	}
	iid := dir.table.Entries[idx].IID
	inode, err := fs.readInode(iid)
	if err != nil {
		return "", err
	}
	if inode.Type == ondisk.TypeDirectory {
		return "", errors.ReadDir
	}

	var sb strings.Builder
	for k := uint32(0); k < inode.Size; k++ {
		blk, err := fs.readFblk(iid, int(k))
		if err != nil {
			return "", err
		}
		for _, b := range blk {
			if b == 0 {
				sb.WriteByte('\n')
				return sb.String(), nil
			}
			sb.WriteByte(b)
		}
	}
	sb.WriteByte('\n')
	return sb.String(), nil
}

// Grep returns every whitespace-delimited "word" of the file resolved from
// cur/path that contains pattern as a substring, one per line. A pattern
// longer than the remaining, unscanned content ends the scan early rather
// than reporting a non-match.
func (fs *Filesystem) Grep(cur FileDescriptor, path, pattern string) (string, errors.DriverError) {
	content, err := fs.Cat(cur, path)
	if err != nil {
		return "", err
	}
	if len(pattern) == 0 {
		return "", nil
	}
	content += " "

	var out strings.Builder
	start, end := 0, 0
scan:
	for end < len(content) {
		switch content[end] {
		case ' ', '\n':
			start = end + 1
		case pattern[0]:
			if end+len(pattern) > len(content) {
				break scan
			}
			matched := true
			for k := 1; k < len(pattern); k++ {
				if content[end+k] != pattern[k] {
					matched = false
					break
				}
			}
			if matched {
				end += len(pattern)
				for end < len(content) && content[end] != ' ' && content[end] != '\n' {
					end++
				}
				out.WriteString(content[start:end])
				out.WriteByte('\n')
				start = end + 1
			}
		}
		end++
	}
	return out.String(), nil
}

// Cd resolves path from cur and returns a cursor for the directory it
// names. It fails with errors.NoDirectory if the resolved entry is a
// regular file.
func (fs *Filesystem) Cd(cur FileDescriptor, path string) (FileDescriptor, errors.DriverError) {
	return fs.cdRec(cur, path)
}

func (fs *Filesystem) cdRec(cur FileDescriptor, path string) (FileDescriptor, errors.DriverError) {
	c, next, abs := splitPath(path)
	if abs {
		return fs.cdRec(fs.rootDesc(), next)
	}
	dir, err := fs.readDir(cur.IID)
	if err != nil {
		return FileDescriptor{}, err
	}
	idx, err := dir.findFile(c)
	if err != nil {
		return FileDescriptor{}, err
	}
	entry := dir.table.Entries[idx]
	if next == "" {
		inode, err := fs.readInode(entry.IID)
		if err != nil {
			return FileDescriptor{}, err
		}
		if inode.Type != ondisk.TypeDirectory {
			return FileDescriptor{}, errors.NoDirectory
		}
		return FileDescriptor{Name: c, IID: entry.IID}, nil
	}
	return fs.cdRec(FileDescriptor{Name: c, IID: entry.IID}, next)
}
