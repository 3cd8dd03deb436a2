//go:build unix

package fs

import (
	"fmt"
	"io/fs"
	"syscall"
)

// statIdentity returns "<device>:<inode>" for info, which names the same
// directory however it was reached (bind mounts, hard-linked paths).
func statIdentity(info fs.FileInfo) (string, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%d:%d", uint64(stat.Dev), uint64(stat.Ino)), true
}
