// Package testutil provides small fixtures shared by this module's test
// suites: a freshly formatted filesystem, and a buffer of deterministic
// pseudo-random bytes for exercising multi-block writes.
package testutil

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockfs-go/uvfs6/blockdev"
	"github.com/blockfs-go/uvfs6/uvfs6"
)

// MountedFS formats a fresh in-memory device and mounts it, failing the
// test immediately on any error.
func MountedFS(t *testing.T) *uvfs6.Filesystem {
	t.Helper()
	dev := blockdev.New()
	require.Nil(t, uvfs6.Mkfs(dev))
	fs, err := uvfs6.Mount(dev)
	require.Nil(t, err)
	return fs
}

// RandomBytes returns n deterministic pseudo-random bytes, seeded by
// seed. Deterministic rather than time-seeded so a failing test is
// reproducible.
func RandomBytes(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	buf := make([]byte, n)
	r.Read(buf)
	return buf
}
