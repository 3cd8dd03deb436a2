package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultStagingMaxSize is the largest total the backend accepts in one transfer (50 GiB).
const DefaultStagingMaxSize int64 = 50 * 1024 * 1024 * 1024

// Config represents the main configuration for itransfer.
type Config struct {
	BackendURL            string           `toml:"backend_url"`
	BaseDir               string           `toml:"base_dir"`
	LogDir                string           `toml:"log_dir"`
	DefaultExpirationDays int              `toml:"default_expiration_days"`
	Encryption            EncryptionConfig `toml:"encryption"`
	Session               SessionConfig    `toml:"session"`
	Database              DatabaseConfig   `toml:"database"`
	Staging               StagingConfig    `toml:"staging"`
	Filesystem            FilesystemConfig `toml:"filesystem"`
	Sinks                 []SinkConfig     `toml:"sinks"`
	SMTP                  SMTPConfig       `toml:"smtp"`
}

// EncryptionConfig controls how the session token is protected at rest.
type EncryptionConfig struct {
	Type         string `toml:"type"` // "age" (default) or "none"
	IdentityPath string `toml:"identity_path,omitempty"`
}

// SessionConfig locates the stored login session.
type SessionConfig struct {
	Path string `toml:"path"`
}

// FilesystemConfig holds filesystem-related settings.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore"`
}

// SinkConfig represents a destination for downloaded transfers.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type SinkConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"`
	// Static keys for S3-compatible stores; the default AWS chain is used when empty.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// DatabaseConfig represents configuration for the transfer history database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// StagingConfig represents configuration for the staging area.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StagingConfig struct {
	Type       string `toml:"type"`                  // "memory" or "filesystem"
	StagingDir string `toml:"staging_dir,omitempty"` // only used for type=filesystem
	MaxSize    int64  `toml:"max_size"`              // max total size in bytes; defaults to 50 GiB
}

// SMTPConfig prefills the SMTP settings form. The password is never stored here.
type SMTPConfig struct {
	Server      string `toml:"server,omitempty"`
	Port        string `toml:"port,omitempty"`
	User        string `toml:"user,omitempty"`
	SenderEmail string `toml:"sender_email,omitempty"`
}

// NewConfig creates a new Config rooted at baseDir with default paths.
func NewConfig(backendURL, baseDir string) *Config {
	return &Config{
		BackendURL:            backendURL,
		BaseDir:               baseDir,
		LogDir:                filepath.Join(baseDir, "log"),
		DefaultExpirationDays: 7,
		Encryption: EncryptionConfig{
			Type:         "age",
			IdentityPath: filepath.Join(baseDir, "keys", "itransfer.key"),
		},
		Session: SessionConfig{
			Path: filepath.Join(baseDir, "session.age"),
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Staging: StagingConfig{
			Type:       "filesystem",
			StagingDir: filepath.Join(baseDir, "staging"),
			MaxSize:    DefaultStagingMaxSize,
		},
		Sinks: []SinkConfig{
			{Type: "filesystem", Name: "local", FSRoot: filepath.Join(baseDir, "downloads")},
		},
	}
}

// Sink returns the sink named name, or the first sink when name is empty.
func (c *Config) Sink(name string) (SinkConfig, error) {
	if len(c.Sinks) == 0 {
		return SinkConfig{}, fmt.Errorf("no sinks configured")
	}
	if name == "" {
		return c.Sinks[0], nil
	}
	for _, s := range c.Sinks {
		if s.Name == name {
			return s, nil
		}
	}
	return SinkConfig{}, fmt.Errorf("sink %q not found", name)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
