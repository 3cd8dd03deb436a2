package transfer

import (
	"context"
	"io"
	"time"
)

// UploadPart is one file sent under files[] with its paths[] companion.
type UploadPart struct {
	// Filename is the name given to the files[] part.
	Filename string
	// Path is sent as the matching paths[] value.
	Path    string
	Size    int64
	Content Opener
}

// UploadRequest is the multipart submission built at send time.
type UploadRequest struct {
	Recipient      string
	Sender         string
	ExpirationDays int
	Manifest       []FileInfo
	Parts          []UploadPart
}

// UploadResult is the decoded body of a successful upload.
type UploadResult struct {
	TransferID string
	Message    string
	// Warning is set when the upload succeeded but a notification email
	// could not be delivered.
	Warning        bool
	WarningMessage string
}

// TransferInfo describes the files behind a transfer link.
type TransferInfo struct {
	Files     []FileInfo
	ExpiresAt time.Time
}

// SMTPSettings is the outbound-mail configuration stored by the backend.
type SMTPSettings struct {
	Server      string `json:"smtpServer"`
	Port        string `json:"smtpPort"`
	User        string `json:"smtpUser"`
	Password    string `json:"smtpPassword"`
	SenderEmail string `json:"smtpSenderEmail"`
}

// Backend is the file-transfer service the client talks to.
type Backend interface {
	// Login exchanges credentials for a session token.
	Login(ctx context.Context, username, password string) (string, error)

	// Upload streams req and reports upload progress from bytes sent.
	Upload(ctx context.Context, req *UploadRequest, progress ProgressFunc) (*UploadResult, error)

	// Transfer returns the file list behind a transfer link.
	Transfer(ctx context.Context, id string) (*TransferInfo, error)

	// Download opens the payload behind a transfer link. size is -1 when
	// the backend does not announce a length.
	Download(ctx context.Context, id string) (body io.ReadCloser, size int64, err error)

	SaveSMTPSettings(ctx context.Context, settings SMTPSettings) error

	// TestSMTP asks the backend to send a test email and returns its message.
	TestSMTP(ctx context.Context) (string, error)
}
