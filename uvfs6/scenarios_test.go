package uvfs6

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These mirror the end-to-end scenarios and a few of the cross-cutting
// invariants from the filesystem's own design notes, exactly as spelled
// out: fixed inputs, fixed expected outputs.

func TestScenario1_FreshMountListsDotAndDotDot(t *testing.T) {
	fs := freshFS(t)
	out, err := fs.Ls(fs.Home(), "/")
	require.Nil(t, err)
	assert.Equal(t, ".\n..\n", out)
}

func TestScenario2_MkdirThenLsRoot(t *testing.T) {
	fs := freshFS(t)
	require.Nil(t, fs.Mkdir(fs.Home(), "/d"))
	out, err := fs.Ls(fs.Home(), "/")
	require.Nil(t, err)
	assert.Equal(t, ".\n..\nd\n", out)
}

func TestScenario3_TouchWriteCat(t *testing.T) {
	fs := freshFS(t)
	require.Nil(t, fs.Touch(fs.Home(), "/f"))
	require.Nil(t, fs.Write(fs.Home(), "/f", []byte("hi")))
	out, err := fs.Cat(fs.Home(), "/f")
	require.Nil(t, err)
	assert.Equal(t, "hi\n", out)
}

func TestScenario4_RmdirFreesThenMkdirReusesInode(t *testing.T) {
	fs := freshFS(t)
	require.Nil(t, fs.Mkdir(fs.Home(), "/a"))
	require.Nil(t, fs.Mkdir(fs.Home(), "/a/b"))
	require.Nil(t, fs.Touch(fs.Home(), "/a/b/c"))
	require.Nil(t, fs.Rmdir(fs.Home(), "/a"))

	out, err := fs.Ls(fs.Home(), "/")
	require.Nil(t, err)
	assert.Equal(t, ".\n..\n", out)

	require.Nil(t, fs.Mkdir(fs.Home(), "/a"))
	dir, derr := fs.readDir(fs.Home().IID)
	require.Nil(t, derr)
	idx, ferr := dir.findFile("a")
	require.Nil(t, ferr)
	assert.Equal(t, uint32(2), dir.table.Entries[idx].IID)
}

func TestScenario5_MvRenamesEntry(t *testing.T) {
	fs := freshFS(t)
	require.Nil(t, fs.Touch(fs.Home(), "/x"))
	require.Nil(t, fs.Mv(fs.Home(), "/x", "/y"))

	out, err := fs.Ls(fs.Home(), "/")
	require.Nil(t, err)
	assert.Contains(t, out, "y\n")
	assert.NotContains(t, out, "x\n")
}

func TestScenario6_GrepFindsWordContainingPattern(t *testing.T) {
	fs := freshFS(t)
	require.Nil(t, fs.Touch(fs.Home(), "/f"))
	require.Nil(t, fs.Write(fs.Home(), "/f", []byte("hello pattern ok")))

	out, err := fs.Grep(fs.Home(), "/f", "pat")
	require.Nil(t, err)
	assert.Equal(t, "pattern\n", out)
}

func TestInvariant_LsIsIdempotentWithoutMutation(t *testing.T) {
	fs := freshFS(t)
	require.Nil(t, fs.Mkdir(fs.Home(), "/a"))
	first, err := fs.Ls(fs.Home(), "/")
	require.Nil(t, err)
	second, err := fs.Ls(fs.Home(), "/")
	require.Nil(t, err)
	assert.Equal(t, first, second)
}

// TestInvariant_NoTwoEntriesShareAnInodeID checks the single-parent rule
// for real (non "."/"..") entries: those two bookkeeping slots are
// expected to alias their directory's own id and its parent's, in every
// directory, and are excluded here.
func TestInvariant_NoTwoEntriesShareAnInodeID(t *testing.T) {
	fs := freshFS(t)
	require.Nil(t, fs.Mkdir(fs.Home(), "/a"))
	require.Nil(t, fs.Touch(fs.Home(), "/b"))
	require.Nil(t, fs.Touch(fs.Home(), "/a/c"))

	root, err := fs.readDir(fs.Home().IID)
	require.Nil(t, err)
	a, err := fs.readDir(root.table.Entries[2].IID)
	require.Nil(t, err)

	seen := map[uint32]bool{}
	for i, e := range root.table.Entries {
		if e.IID == 0 || i < 2 {
			continue
		}
		assert.False(t, seen[e.IID], "inode %d referenced twice", e.IID)
		seen[e.IID] = true
	}
	for i, e := range a.table.Entries {
		if e.IID == 0 || i < 2 {
			continue
		}
		assert.False(t, seen[e.IID], "inode %d referenced twice", e.IID)
		seen[e.IID] = true
	}
}
