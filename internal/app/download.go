package app

import (
	"path"
	"time"

	"itransfer/internal/transfer"
)

// DownloadName is the file name a downloaded payload is saved under: an
// archive name for multi-file transfers, the file's own name otherwise.
func DownloadName(info *transfer.TransferInfo, now time.Time) string {
	if info == nil || len(info.Files) != 1 {
		return transfer.ArchiveName(now)
	}
	name := path.Base(path.Clean("/" + info.Files[0].Name))
	if name == "/" {
		return transfer.ArchiveName(now)
	}
	return name
}
