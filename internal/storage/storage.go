// Package storage persists uploaded files (payment proofs, PromptPay QR
// images) and hands back the reference under which they can be fetched.
package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes an object and returns its public reference.
type Store interface {
	// Put stores body under a freshly generated key derived from name.
	// The returned string is the reference persisted alongside the record.
	Put(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}

// objectKey returns a collision-free key that keeps the extension of name.
func objectKey(folder, name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	key := uuid.NewString() + ext
	if folder == "" {
		return key
	}
	return strings.Trim(folder, "/") + "/" + key
}

// joinURL appends key to base, tolerating a trailing slash on base.
func joinURL(base, key string) string {
	if base == "" {
		return key
	}
	return strings.TrimRight(base, "/") + "/" + key
}
