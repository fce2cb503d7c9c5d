// Package storage abstracts where uploaded document files live. The
// filesystem provider is the production default; the memory provider backs
// tests.
package storage

import (
	"context"
	"io"
)

// Provider stores and retrieves document payloads by an opaque path the
// provider itself issued from Save.
type Provider interface {
	// Save writes the payload and returns the storage path for later reads.
	// The caseID segments files so one case's documents stay together.
	Save(ctx context.Context, caseID string, fileName string, r io.Reader) (path string, size int64, err error)
	// Open returns a reader for a previously saved path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes a stored payload. Deleting a missing path is not an
	// error: the row referencing it is already gone or going.
	Delete(ctx context.Context, path string) error
}
