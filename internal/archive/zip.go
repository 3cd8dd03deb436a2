package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"

	"itransfer/internal/transfer"
)

// CompressionLevel is the deflate level used for every entry.
const CompressionLevel = 6

// ZipArchiver bundles staged items into an in-memory zip.
type ZipArchiver struct {
	clock  transfer.Clock
	logger transfer.Logger
}

// NewZipArchiver creates a ZipArchiver. The clock names the archive.
func NewZipArchiver(clock transfer.Clock, logger transfer.Logger) *ZipArchiver {
	if logger == nil {
		logger = transfer.NewNopLogger()
	}
	return &ZipArchiver{clock: clock, logger: logger}
}

var _ transfer.Archiver = (*ZipArchiver)(nil)

// Build writes every item into a zip under its path without the leading
// slash. Progress follows the bytes consumed and reaches 100 only once the
// central directory has been written.
func (a *ZipArchiver) Build(items []transfer.UploadItem, progress transfer.ProgressFunc) (*transfer.Archive, error) {
	now := a.clock.Now()
	tracker := transfer.NewProgressTracker(progress)
	total := transfer.TotalSize(items)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, CompressionLevel)
	})

	var done int64
	for _, item := range items {
		hdr := &zip.FileHeader{
			Name:     item.RelativePath(),
			Method:   zip.Deflate,
			Modified: now,
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("adding %s: %w", item.Path, err)
		}

		rc, err := item.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", item.Path, err)
		}
		n, err := io.Copy(w, &countingReader{r: transfer.ExactReader(item.Path, rc, item.Size), onRead: func(n int) {
			done += int64(n)
			// Hold back 100 until the archive is finalized.
			if done < total {
				tracker.ReportBytes(done, total)
			} else {
				tracker.Report(99)
			}
		}})
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("compressing %s: %w", item.Path, err)
		}
		a.logger.Debug("archived item", "path", item.Path, "bytes", n)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	tracker.Report(100)

	return &transfer.Archive{
		Name: transfer.ArchiveName(now),
		Data: buf.Bytes(),
	}, nil
}

type countingReader struct {
	r      io.Reader
	onRead func(n int)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.onRead(n)
	}
	return n, err
}
