package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"itransfer/internal/transfer"
)

// RecordedFile is one files[] part received by FakeBackend.
type RecordedFile struct {
	Filename string
	Content  []byte
}

// RecordedUpload is everything FakeBackend saw for one POST /upload.
type RecordedUpload struct {
	Authorization  string
	ContentLength  int64
	Email          string
	SenderEmail    string
	ExpirationDays int
	FilesList      []transfer.FileInfo
	Files          []RecordedFile
	Paths          []string
}

// FakeTransfer is a transfer served by GET /transfer/:id and /download/:id.
type FakeTransfer struct {
	Files     []transfer.FileInfo
	Payload   []byte
	ExpiresAt time.Time
	Expired   bool
}

// FakeBackend is an in-process HTTP server that speaks the backend's API.
type FakeBackend struct {
	Server *httptest.Server

	mu           sync.Mutex
	username     string
	password     string
	token        string
	uploads      []RecordedUpload
	uploadStatus int
	uploadBody   gin.H
	uploadGate   chan struct{}
	transfers    map[string]FakeTransfer
	smtp         *transfer.SMTPSettings
	smtpTestErr  string
}

// NewFakeBackend starts a FakeBackend that accepts admin/secret and issues
// "admin-token". The server is closed when the test completes.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeBackend{
		username:     "admin",
		password:     "secret",
		token:        "admin-token",
		uploadStatus: http.StatusOK,
		transfers:    make(map[string]FakeTransfer),
	}

	r := gin.New()
	r.POST("/login", f.login)
	r.POST("/upload", f.upload)
	r.GET("/transfer/:id", f.transfer)
	r.GET("/download/:id", f.download)
	r.POST("/api/save-smtp-settings", f.saveSMTP)
	r.POST("/api/test-smtp", f.testSMTP)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the server.
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// RespondUpload sets the status and JSON body returned by POST /upload.
func (f *FakeBackend) RespondUpload(status int, body gin.H) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadStatus = status
	f.uploadBody = body
}

// HoldUploads makes POST /upload wait, after reading the body, until the
// returned channel is closed or the client goes away.
func (f *FakeBackend) HoldUploads() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadGate = make(chan struct{})
	return f.uploadGate
}

// AddTransfer registers a transfer under id.
func (f *FakeBackend) AddTransfer(id string, tr FakeTransfer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transfers[id] = tr
}

// FailSMTPTest makes POST /api/test-smtp fail with msg.
func (f *FakeBackend) FailSMTPTest(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.smtpTestErr = msg
}

// Uploads returns the uploads received so far.
func (f *FakeBackend) Uploads() []RecordedUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedUpload(nil), f.uploads...)
}

// SMTPSettings returns the last saved settings, or nil.
func (f *FakeBackend) SMTPSettings() *transfer.SMTPSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.smtp
}

func (f *FakeBackend) login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if body.Username != f.username || body.Password != f.password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": f.token})
}

func (f *FakeBackend) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec := RecordedUpload{
		Authorization: c.GetHeader("Authorization"),
		ContentLength: c.Request.ContentLength,
		Email:         c.PostForm("email"),
		SenderEmail:   c.PostForm("sender_email"),
		Paths:         c.PostFormArray("paths[]"),
	}
	rec.ExpirationDays, _ = strconv.Atoi(c.PostForm("expiration_days"))
	if err := json.Unmarshal([]byte(c.PostForm("files_list")), &rec.FilesList); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid files_list"})
		return
	}
	for _, fh := range form.File["files[]"] {
		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		data, _ := io.ReadAll(src)
		src.Close()
		rec.Files = append(rec.Files, RecordedFile{Filename: fh.Filename, Content: data})
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, rec)
	gate := f.uploadGate
	status := f.uploadStatus
	body := f.uploadBody
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-c.Request.Context().Done():
			return
		}
	}

	if body == nil {
		body = gin.H{"success": true, "file_id": "transfer-1", "message": "Files uploaded"}
	}
	c.JSON(status, body)
}

func (f *FakeBackend) lookup(c *gin.Context) (FakeTransfer, bool) {
	f.mu.Lock()
	tr, ok := f.transfers[c.Param("id")]
	f.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return FakeTransfer{}, false
	}
	if tr.Expired {
		c.JSON(http.StatusGone, gin.H{"error": "The download link has expired"})
		return FakeTransfer{}, false
	}
	return tr, true
}

func (f *FakeBackend) transfer(c *gin.Context) {
	tr, ok := f.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"files":      tr.Files,
		"expires_at": tr.ExpiresAt.Format("2006-01-02T15:04:05"),
	})
}

func (f *FakeBackend) download(c *gin.Context) {
	tr, ok := f.lookup(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", tr.Payload)
}

func (f *FakeBackend) saveSMTP(c *gin.Context) {
	var s transfer.SMTPSettings
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if s.Server == "" || s.Port == "" || s.User == "" || s.Password == "" || s.SenderEmail == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All SMTP fields are required"})
		return
	}
	f.mu.Lock()
	f.smtp = &s
	f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"message": "SMTP configuration saved"})
}

func (f *FakeBackend) testSMTP(c *gin.Context) {
	f.mu.Lock()
	msg := f.smtpTestErr
	configured := f.smtp != nil
	f.mu.Unlock()

	switch {
	case msg != "":
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	case !configured:
		c.JSON(http.StatusNotFound, gin.H{"error": "SMTP configuration not found"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Test email sent"})
	}
}
