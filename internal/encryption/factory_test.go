package encryption

import (
	"bytes"
	"strings"
	"testing"

	"itransfer/internal/config"
)

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		want    string
		wantErr bool
	}{
		{name: "default is age", cfg: config.EncryptionConfig{IdentityPath: "/tmp/k"}, want: "age"},
		{name: "age", cfg: config.EncryptionConfig{Type: "age", IdentityPath: "/tmp/k"}, want: "age"},
		{name: "none", cfg: config.EncryptionConfig{Type: "none"}, want: "none"},
		{name: "unknown", cfg: config.EncryptionConfig{Type: "rot13"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEncryptorFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			switch got.(type) {
			case *AgeEncryptor:
				if tt.want != "age" {
					t.Errorf("got AgeEncryptor, want %s", tt.want)
				}
			case PlainEncryptor:
				if tt.want != "none" {
					t.Errorf("got PlainEncryptor, want %s", tt.want)
				}
			}
		})
	}
}

func TestPlainEncryptor_RoundTrip(t *testing.T) {
	var enc PlainEncryptor
	var buf, out bytes.Buffer
	if err := enc.Encrypt(strings.NewReader("token"), &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "token" {
		t.Errorf("Encrypt() = %q, want passthrough", buf.String())
	}
	if err := enc.Decrypt(&buf, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "token" {
		t.Errorf("Decrypt() = %q, want %q", out.String(), "token")
	}
}
