//go:build !windows

package scan

import (
	"io/fs"
	"syscall"
)

// fileIdentity extracts the (device, inode) pair and link count from a
// stat result. ok is false when the platform data is unavailable, in
// which case hardlink dedup is skipped for the entry.
func fileIdentity(info fs.FileInfo) (id fileID, nlink uint64, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileID{}, 0, false
	}
	//nolint:unconvert // Stat_t field widths vary across unix platforms.
	return fileID{dev: uint64(stat.Dev), ino: uint64(stat.Ino)}, uint64(stat.Nlink), true
}
