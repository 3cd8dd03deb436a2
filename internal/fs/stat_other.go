//go:build !unix

package fs

import "io/fs"

func statIdentity(fs.FileInfo) (string, bool) { return "", false }
