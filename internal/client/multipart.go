package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"itransfer/internal/transfer"
)

// segment is either a chunk of multipart framing or a file's content.
type segment struct {
	data    []byte
	content transfer.Opener
	size    int64
	name    string
}

// multipartBody streams an upload without buffering file content. Its
// length is known up front so the request carries an exact Content-Length
// and progress can be computed from bytes sent. A file whose content no
// longer matches its staged size aborts the body with a
// *transfer.SizeChangedError.
type multipartBody struct {
	contentType string
	size        int64
	segments    []segment

	cur    int
	reader io.Reader
	closer io.Closer
}

func newMultipartBody(req *transfer.UploadRequest) (*multipartBody, error) {
	manifest, err := json.Marshal(req.Manifest)
	if err != nil {
		return nil, fmt.Errorf("encoding files_list: %w", err)
	}

	var framing bytes.Buffer
	mw := multipart.NewWriter(&framing)
	b := &multipartBody{contentType: mw.FormDataContentType()}

	fields := [][2]string{
		{"email", req.Recipient},
		{"sender_email", req.Sender},
		{"expiration_days", strconv.Itoa(req.ExpirationDays)},
		{"files_list", string(manifest)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, err
		}
	}

	for _, part := range req.Parts {
		if _, err := mw.CreateFormFile("files[]", part.Filename); err != nil {
			return nil, err
		}
		b.flush(&framing)
		b.segments = append(b.segments, segment{content: part.Content, size: part.Size, name: part.Path})
		b.size += part.Size

		if err := mw.WriteField("paths[]", part.Path); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	b.flush(&framing)
	return b, nil
}

func (b *multipartBody) flush(framing *bytes.Buffer) {
	if framing.Len() == 0 {
		return
	}
	data := bytes.Clone(framing.Bytes())
	framing.Reset()
	b.segments = append(b.segments, segment{data: data, size: int64(len(data))})
	b.size += int64(len(data))
}

func (b *multipartBody) Read(p []byte) (int, error) {
	for {
		if b.reader == nil {
			if b.cur >= len(b.segments) {
				return 0, io.EOF
			}
			if err := b.open(b.segments[b.cur]); err != nil {
				return 0, err
			}
		}

		n, err := b.reader.Read(p)
		if err == io.EOF {
			b.closeCurrent()
			b.cur++
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (b *multipartBody) open(seg segment) error {
	if seg.content == nil {
		b.reader = bytes.NewReader(seg.data)
		return nil
	}
	rc, err := seg.content.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", seg.name, err)
	}
	b.reader = transfer.ExactReader(seg.name, rc, seg.size)
	b.closer = rc
	return nil
}

func (b *multipartBody) closeCurrent() {
	if b.closer != nil {
		b.closer.Close()
	}
	b.reader = nil
	b.closer = nil
}

// Close releases any file still open.
func (b *multipartBody) Close() error {
	b.closeCurrent()
	return nil
}

// progressReader reports bytes consumed as the transport reads the body.
type progressReader struct {
	r       io.Reader
	total   int64
	read    int64
	tracker *transfer.ProgressTracker
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		p.tracker.ReportBytes(p.read, p.total)
	}
	return n, err
}
