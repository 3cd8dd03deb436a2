package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"itransfer/internal/transfer"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// ErrInvalidCredentials is returned by Login for any non-success response.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Client talks to the transfer backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	idgen   transfer.IDGenerator
	logger  transfer.Logger
	token   string
}

// NewClient creates a Client for the backend at baseURL. httpClient may be
// nil to use a client without a timeout, which uploads of large archives need.
func NewClient(baseURL string, httpClient *http.Client, idgen transfer.IDGenerator, logger transfer.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if idgen == nil {
		idgen = transfer.UUIDGenerator{}
	}
	if logger == nil {
		logger = transfer.NewNopLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		idgen:   idgen,
		logger:  logger,
	}
}

// SetToken sets the session token sent as a bearer credential.
func (c *Client) SetToken(token string) {
	c.token = token
}

var _ transfer.Backend = (*Client)(nil)

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	resp, err := c.postJSON(ctx, "login", "/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %w", ErrInvalidCredentials, errorFromResponse(resp))
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}
	if body.Token == "" {
		return "", fmt.Errorf("%w: no token in response", ErrInvalidCredentials)
	}
	return body.Token, nil
}

// Upload streams req as multipart/form-data to /upload.
func (c *Client) Upload(ctx context.Context, req *transfer.UploadRequest, progress transfer.ProgressFunc) (*transfer.UploadResult, error) {
	body, err := newMultipartBody(req)
	if err != nil {
		return nil, fmt.Errorf("building upload body: %w", err)
	}
	defer body.Close()

	tracker := transfer.NewProgressTracker(progress)
	reader := &progressReader{r: body, total: body.size, tracker: tracker}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", reader)
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}
	httpReq.ContentLength = body.size
	httpReq.Header.Set("Content-Type", body.contentType)

	c.logger.Info("uploading", "parts", len(req.Parts), "bytes", body.size)
	resp, err := c.do(ctx, "upload", httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errorFromResponse(resp)
	}
	tracker.Report(100)

	var raw struct {
		Success bool            `json:"success"`
		FileID  string          `json:"file_id"`
		Message string          `json:"message"`
		Warning json.RawMessage `json:"warning"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}

	result := &transfer.UploadResult{TransferID: raw.FileID, Message: raw.Message}
	result.Warning, result.WarningMessage = decodeWarning(raw.Warning)
	return result, nil
}

// decodeWarning accepts both `"warning": true` and a non-empty warning string.
func decodeWarning(raw json.RawMessage) (bool, string) {
	if len(raw) == 0 {
		return false, ""
	}
	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		return flag, ""
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg != "", msg
	}
	return false, ""
}

// Transfer returns the files behind a transfer link.
func (c *Client) Transfer(ctx context.Context, id string) (*transfer.TransferInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transfer/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, "transfer", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := transferStatus(resp); err != nil {
		return nil, err
	}

	var body struct {
		Files     []transfer.FileInfo `json:"files"`
		ExpiresAt string              `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding transfer response: %w", err)
	}

	info := &transfer.TransferInfo{Files: body.Files}
	if body.ExpiresAt != "" {
		t, err := parseTimestamp(body.ExpiresAt)
		if err != nil {
			c.logger.Debug("unparseable expires_at", "value", body.ExpiresAt, "error", err)
		} else {
			info.ExpiresAt = t
		}
	}
	return info, nil
}

// Download opens the payload behind a transfer link. The caller closes body.
func (c *Client) Download(ctx context.Context, id string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/download/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.do(ctx, "download", req)
	if err != nil {
		return nil, 0, err
	}
	if err := transferStatus(resp); err != nil {
		resp.Body.Close()
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

// SaveSMTPSettings stores the outbound-mail configuration on the backend.
func (c *Client) SaveSMTPSettings(ctx context.Context, settings transfer.SMTPSettings) error {
	resp, err := c.postJSON(ctx, "save smtp settings", "/api/save-smtp-settings", settings)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}
	return nil
}

// TestSMTP asks the backend to send a test email.
func (c *Client) TestSMTP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/test-smtp", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.do(ctx, "test smtp", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errorFromResponse(resp)
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding test response: %w", err)
	}
	return body.Message, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload any) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, op, req)
}

// do sends req with the session and request-ID headers. Transport failures
// become *transfer.NetworkError; a cancelled context is returned as is.
func (c *Client) do(ctx context.Context, op string, req *http.Request) (*http.Response, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	reqID := c.idgen.New()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// The transport hands back body read errors unchanged.
		var sizeErr *transfer.SizeChangedError
		if errors.As(err, &sizeErr) {
			return nil, sizeErr
		}
		return nil, &transfer.NetworkError{Op: op, Err: err}
	}
	c.logger.Debug("backend request", "op", op, "request_id", reqID, "status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}

func transferStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return transfer.ErrTransferNotFound
	case resp.StatusCode == http.StatusGone:
		return transfer.ErrTransferExpired
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errorFromResponse(resp)
	}
	return nil
}

// errorFromResponse turns a non-success response into *transfer.HTTPError,
// keeping the backend's {"error": ...} message when there is one.
func errorFromResponse(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(data, &body); err == nil {
		msg = body.Error
		if msg == "" {
			msg = body.Message
		}
	}
	return &transfer.HTTPError{StatusCode: resp.StatusCode, Message: msg}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
