package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BackendURL:            "https://transfer.example.com",
		BaseDir:               "/home/user/.local/share/itransfer",
		LogDir:                "/home/user/.local/share/itransfer/log",
		DefaultExpirationDays: 5,
		Encryption: EncryptionConfig{
			Type:         "age",
			IdentityPath: "/home/user/.local/share/itransfer/keys/itransfer.key",
		},
		Session:  SessionConfig{Path: "/home/user/.local/share/itransfer/session.age"},
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/itransfer/db"},
		Staging:  StagingConfig{Type: "memory", MaxSize: 2048},
		Filesystem: FilesystemConfig{
			Ignore: []string{"*.log", ".git"},
		},
		Sinks: []SinkConfig{
			{Type: "filesystem", Name: "local", FSRoot: "/home/user/Downloads"},
			{Type: "s3", Name: "archive", S3Bucket: "transfers", S3Region: "eu-west-1"},
		},
		SMTP: SMTPConfig{Server: "smtp.example.com", Port: "587", User: "mailer"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BackendURL != original.BackendURL {
		t.Errorf("BackendURL = %q, want %q", got.BackendURL, original.BackendURL)
	}
	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.DefaultExpirationDays != 5 {
		t.Errorf("DefaultExpirationDays = %d, want 5", got.DefaultExpirationDays)
	}
	if got.Encryption.IdentityPath != original.Encryption.IdentityPath {
		t.Errorf("Encryption.IdentityPath = %q, want %q", got.Encryption.IdentityPath, original.Encryption.IdentityPath)
	}
	if got.Session.Path != original.Session.Path {
		t.Errorf("Session.Path = %q, want %q", got.Session.Path, original.Session.Path)
	}
	if len(got.Sinks) != 2 {
		t.Fatalf("len(Sinks) = %d, want 2", len(got.Sinks))
	}
	if got.Sinks[1].S3Bucket != "transfers" {
		t.Errorf("Sinks[1].S3Bucket = %q, want %q", got.Sinks[1].S3Bucket, "transfers")
	}
	if got.Staging.MaxSize != 2048 {
		t.Errorf("Staging.MaxSize = %d, want %d", got.Staging.MaxSize, 2048)
	}
	if len(got.Filesystem.Ignore) != 2 {
		t.Fatalf("len(Filesystem.Ignore) = %d, want 2", len(got.Filesystem.Ignore))
	}
	if got.SMTP.Server != "smtp.example.com" {
		t.Errorf("SMTP.Server = %q, want %q", got.SMTP.Server, "smtp.example.com")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("http://localhost:3000", "/data/itransfer")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"BackendURL", cfg.BackendURL, "http://localhost:3000"},
		{"LogDir", cfg.LogDir, "/data/itransfer/log"},
		{"IdentityPath", cfg.Encryption.IdentityPath, "/data/itransfer/keys/itransfer.key"},
		{"Session.Path", cfg.Session.Path, "/data/itransfer/session.age"},
		{"Database.DataDir", cfg.Database.DataDir, "/data/itransfer/db"},
		{"Staging.StagingDir", cfg.Staging.StagingDir, "/data/itransfer/staging"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
	if cfg.Staging.MaxSize != DefaultStagingMaxSize {
		t.Errorf("Staging.MaxSize = %d, want %d", cfg.Staging.MaxSize, DefaultStagingMaxSize)
	}
	if cfg.DefaultExpirationDays != 7 {
		t.Errorf("DefaultExpirationDays = %d, want 7", cfg.DefaultExpirationDays)
	}
}

func TestConfig_Sink(t *testing.T) {
	cfg := &Config{Sinks: []SinkConfig{
		{Type: "filesystem", Name: "local"},
		{Type: "memory", Name: "scratch"},
	}}

	t.Run("empty name returns first", func(t *testing.T) {
		got, err := cfg.Sink("")
		if err != nil {
			t.Fatalf("Sink() error = %v", err)
		}
		if got.Name != "local" {
			t.Errorf("Name = %q, want %q", got.Name, "local")
		}
	})

	t.Run("finds by name", func(t *testing.T) {
		got, err := cfg.Sink("scratch")
		if err != nil {
			t.Fatalf("Sink() error = %v", err)
		}
		if got.Type != "memory" {
			t.Errorf("Type = %q, want %q", got.Type, "memory")
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		if _, err := cfg.Sink("nope"); err == nil {
			t.Fatal("Sink() expected error")
		}
	})

	t.Run("no sinks", func(t *testing.T) {
		empty := &Config{}
		if _, err := empty.Sink(""); err == nil {
			t.Fatal("Sink() expected error")
		}
	})
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "itransfer.toml")
		cfg := NewConfig("http://localhost:3000", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("config file not created: %v", err)
		}
		if !strings.Contains(string(data), `backend_url = "http://localhost:3000"`) {
			t.Errorf("config file missing backend_url:\n%s", data)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "itransfer.toml")
		cfg := NewConfig("http://localhost:3000", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "itransfer.toml")
		cfg := NewConfig("http://read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.BackendURL != "http://read-test" {
			t.Errorf("BackendURL = %q, want %q", got.BackendURL, "http://read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/itransfer.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})

	t.Run("returns error for malformed toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte("backend_url = [unterminated"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadFromFile(path); err == nil {
			t.Fatal("ReadFromFile() expected error for malformed file")
		}
	})
}
