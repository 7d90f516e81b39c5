// Package blob is the entry point for blob storage. It re-exports the core
// contract and constructs the backend named in configuration.
package blob

import (
	"exhibitcore/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrNotFound is returned by Get for a missing key.
	ErrNotFound = core.ErrNotFound
	// ErrExists is returned by Put for a taken key.
	ErrExists = core.ErrExists
)
