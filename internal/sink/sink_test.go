package sink

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"itransfer/internal/config"
)

func TestFileSystemSink_Put(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     string
		size     int64
		wantErr  bool
	}{
		{name: "store payload", fileName: "report.pdf", data: "hello world", size: 11},
		{name: "unknown size", fileName: "report.pdf", data: "hello", size: -1},
		{name: "size mismatch", fileName: "report.pdf", data: "hello", size: 100, wantErr: true},
		{name: "empty payload", fileName: "empty.txt", data: "", size: 0},
		{name: "path components stripped", fileName: "../../etc/passwd", data: "x", size: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			s, err := NewFileSystemSink("local", root)
			if err != nil {
				t.Fatalf("NewFileSystemSink() error = %v", err)
			}

			loc, err := s.Put(context.Background(), tt.fileName, strings.NewReader(tt.data), tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Put() error = %v, wantErr %v", err, tt.wantErr)
			}

			entries, _ := os.ReadDir(root)
			if tt.wantErr {
				if len(entries) != 0 {
					t.Errorf("failed Put left %d files behind", len(entries))
				}
				return
			}

			if filepath.Dir(loc) != root {
				t.Errorf("location %q is outside root %q", loc, root)
			}
			data, err := os.ReadFile(loc)
			if err != nil {
				t.Fatalf("failed to read stored file: %v", err)
			}
			if string(data) != tt.data {
				t.Errorf("content = %q, want %q", data, tt.data)
			}
			if len(entries) != 1 {
				t.Errorf("root has %d entries, want 1", len(entries))
			}
		})
	}
}

func TestFileSystemSink_PutCancelled(t *testing.T) {
	s, err := NewFileSystemSink("local", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Put(ctx, "a.txt", strings.NewReader("data"), 4)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Put() error = %v, want context.Canceled", err)
	}
}

func TestFileSystemSink_ValidateSetup(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileSystemSink("local", root)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
	os.RemoveAll(root)
	if err := s.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() should fail after root is removed")
	}
}

func TestMemorySink(t *testing.T) {
	s := NewMemorySink("mem")

	loc, err := s.Put(context.Background(), "a.zip", strings.NewReader("zip"), 3)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if loc != "memory://mem/a.zip" {
		t.Errorf("location = %q", loc)
	}
	got, ok := s.Get("a.zip")
	if !ok || string(got) != "zip" {
		t.Errorf("Get() = %q, %v", got, ok)
	}

	if _, err := s.Put(context.Background(), "b", strings.NewReader("zip"), 5); err == nil {
		t.Error("Put() with wrong size should fail")
	}
	if _, ok := s.Get("b"); ok {
		t.Error("failed Put should not store payload")
	}
}

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = input
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.body = data
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{}, nil
}

func TestS3Sink_Put(t *testing.T) {
	up := &fakeUploader{}
	s := newS3Sink("bucket", "downloads", "transfers", up)

	loc, err := s.Put(context.Background(), "iTransfer_2401151030.zip", strings.NewReader("payload"), 7)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if got := aws.ToString(up.input.Bucket); got != "downloads" {
		t.Errorf("bucket = %q", got)
	}
	if got := aws.ToString(up.input.Key); got != "transfers/iTransfer_2401151030.zip" {
		t.Errorf("key = %q", got)
	}
	if string(up.body) != "payload" {
		t.Errorf("body = %q", up.body)
	}
	if loc != "s3://downloads/transfers/iTransfer_2401151030.zip" {
		t.Errorf("location = %q", loc)
	}
}

func TestS3Sink_PutErrors(t *testing.T) {
	t.Run("size mismatch", func(t *testing.T) {
		s := newS3Sink("bucket", "b", "", &fakeUploader{})
		if _, err := s.Put(context.Background(), "a", strings.NewReader("abc"), 10); err == nil {
			t.Error("Put() should fail on size mismatch")
		}
	})

	t.Run("upload failure", func(t *testing.T) {
		s := newS3Sink("bucket", "b", "", &fakeUploader{err: errors.New("access denied")})
		_, err := s.Put(context.Background(), "a", strings.NewReader("abc"), 3)
		if err == nil || !strings.Contains(err.Error(), "access denied") {
			t.Errorf("Put() error = %v", err)
		}
	})
}

func TestNewSinkFromConfig(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "none"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "none"))

	tests := []struct {
		name    string
		cfg     config.SinkConfig
		wantErr bool
	}{
		{name: "memory sink", cfg: config.SinkConfig{Type: "memory", Name: "mem"}},
		{name: "filesystem sink", cfg: config.SinkConfig{Type: "filesystem", Name: "local", FSRoot: t.TempDir()}},
		{name: "filesystem sink without root", cfg: config.SinkConfig{Type: "filesystem", Name: "local"}, wantErr: true},
		{
			name: "s3 sink",
			cfg: config.SinkConfig{
				Type: "s3", Name: "minio", S3Bucket: "transfers", S3Region: "us-east-1",
				S3Endpoint: "http://127.0.0.1:9000", S3AccessKeyID: "key", S3SecretAccessKey: "secret",
			},
		},
		{name: "s3 sink without bucket", cfg: config.SinkConfig{Type: "s3", Name: "s3"}, wantErr: true},
		{name: "unknown sink type", cfg: config.SinkConfig{Type: "ftp", Name: "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSinkFromConfig(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSinkFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Name() != tt.cfg.Name {
				t.Errorf("Name() = %q, want %q", got.Name(), tt.cfg.Name)
			}
			if err := got.ValidateSetup(); err != nil {
				t.Errorf("ValidateSetup() error = %v", err)
			}
		})
	}
}
