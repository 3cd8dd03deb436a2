package testutil

import (
	"context"
	"io"
	"strings"
	"sync"

	"itransfer/internal/transfer"
)

// StubBackend is a transfer.Backend whose upload behaviour is set per test.
// Uploaded parts are read in full, held to their declared size the way the
// HTTP client holds them, so tests can assert on their content.
type StubBackend struct {
	mu       sync.Mutex
	requests []*transfer.UploadRequest
	contents [][]string

	// UploadFunc decides the outcome. When nil, uploads succeed with transfer ID "t-1".
	UploadFunc func(ctx context.Context, req *transfer.UploadRequest, progress transfer.ProgressFunc) (*transfer.UploadResult, error)
}

func NewStubBackend() *StubBackend {
	return &StubBackend{}
}

func (b *StubBackend) Login(ctx context.Context, username, password string) (string, error) {
	return "token-" + username, nil
}

func (b *StubBackend) Upload(ctx context.Context, req *transfer.UploadRequest, progress transfer.ProgressFunc) (*transfer.UploadResult, error) {
	var contents []string
	for _, p := range req.Parts {
		rc, err := p.Content.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(transfer.ExactReader(p.Path, rc, p.Size))
		rc.Close()
		if err != nil {
			return nil, err
		}
		contents = append(contents, string(data))
	}

	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.contents = append(b.contents, contents)
	fn := b.UploadFunc
	b.mu.Unlock()

	if fn != nil {
		return fn(ctx, req, progress)
	}
	progress(50)
	progress(100)
	return &transfer.UploadResult{TransferID: "t-1", Message: "ok"}, nil
}

func (b *StubBackend) Transfer(ctx context.Context, id string) (*transfer.TransferInfo, error) {
	return nil, transfer.ErrTransferNotFound
}

func (b *StubBackend) Download(ctx context.Context, id string) (io.ReadCloser, int64, error) {
	return io.NopCloser(strings.NewReader("")), 0, nil
}

func (b *StubBackend) SaveSMTPSettings(ctx context.Context, settings transfer.SMTPSettings) error {
	return nil
}

func (b *StubBackend) TestSMTP(ctx context.Context) (string, error) {
	return "sent", nil
}

// Requests returns every upload request received.
func (b *StubBackend) Requests() []*transfer.UploadRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*transfer.UploadRequest(nil), b.requests...)
}

// PartContents returns the content of each part of the i-th upload.
func (b *StubBackend) PartContents(i int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.contents[i]
}

var _ transfer.Backend = (*StubBackend)(nil)
