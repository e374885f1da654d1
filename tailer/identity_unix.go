//go:build unix

package tailer

import (
	"io/fs"
	"syscall"
)

// fileIdentity returns the inode of the file, or 0 when the platform does not
// expose one. Identity 0 disables rotation detection; truncation detection
// still works.
func fileIdentity(info fs.FileInfo) uint64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return st.Ino
	}
	return 0
}
