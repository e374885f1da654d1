//go:build !unix

package tailer

import "io/fs"

// fileIdentity has no portable implementation here. Identity 0 disables
// rotation detection; truncation detection still works.
func fileIdentity(info fs.FileInfo) uint64 {
	return 0
}
