//go:build windows

package scan

import "io/fs"

// fileIdentity has no cheap inode equivalent on Windows; hardlink dedup
// is skipped there.
func fileIdentity(_ fs.FileInfo) (fileID, uint64, bool) {
	return fileID{}, 0, false
}
