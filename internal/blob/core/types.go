// Package core defines the storage abstraction for archived raw import
// payloads. Backends implement a minimal S3-like contract so the S3 adapter
// stays thin while filesystem and memory adapters emulate it.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete payload storage backend.
type Driver string

const (
	// DriverFilesystem stores payloads under a local directory root.
	DriverFilesystem Driver = "fs"
	// DriverS3 stores payloads in an S3 or MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps payloads in process memory, for tests.
	DriverMemory Driver = "memory"
)

// PutOptions carries optional write parameters.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// SignedURLOptions configures URL pre-signing.
type SignedURLOptions struct {
	Method string        // GET is the only method drivers currently sign
	Expiry time.Duration // default 15m
}

// Info describes a stored payload.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is the contract every payload backend satisfies. Archived payloads
// are immutable: Put must fail when the key already exists.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	// Delete reports false without error for a key that never existed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns payloads under prefix ordered by key ascending.
	List(ctx context.Context, prefix string) ([]Info, error)
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	Driver() Driver
}

var (
	// ErrExists reports a Put against an existing key.
	ErrExists = errors.New("blobstore: key already exists")
	// ErrNotFound reports a read of a missing key.
	ErrNotFound = errors.New("blobstore: not found")
	// ErrUnsupported reports an optional capability a driver lacks.
	ErrUnsupported = errors.New("blobstore: unsupported operation")
)
