// Package blob is the facade over payload storage backends. Call sites
// depend on blob.Store; only this package imports the infra drivers.
package blob

import (
	"rostercore/internal/blob/core"
)

type (
	// Driver identifies a payload storage backend.
	Driver = core.Driver
	// PutOptions configures a payload write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored payload metadata.
	Info = core.Info
	// Store is the interface payload backends implement.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrExists indicates a write to an already archived key.
	ErrExists = core.ErrExists
	// ErrNotFound indicates a read of a missing key.
	ErrNotFound = core.ErrNotFound
	// ErrUnsupported indicates an operation a driver does not provide.
	ErrUnsupported = core.ErrUnsupported
)
