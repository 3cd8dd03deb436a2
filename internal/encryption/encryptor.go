package encryption

import "io"

// Encryptor protects small secrets, such as the session token, at rest.
type Encryptor interface {
	// Setup creates the key material. It fails if keys already exist.
	Setup() error
	Encrypt(r io.Reader, w io.Writer) error
	Decrypt(r io.Reader, w io.Writer) error
	// IsConfigured reports whether Setup has been run.
	IsConfigured() bool
}
