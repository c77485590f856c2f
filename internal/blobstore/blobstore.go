// Package blobstore keeps entry photos outside the record store.
package blobstore

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("object not found")

// PhotoStore stores opaque photo payloads under caller-chosen keys.
type PhotoStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
	// PresignGet returns a URL that fetches key without credentials.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
