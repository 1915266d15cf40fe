// Package blob re-exports the blob storage abstraction and selects a driver
// implementation. Coverage artifact exports are its main consumer.
package blob

import (
	"context"
	"fmt"

	"simcore/internal/blob/core"
	fsdriver "simcore/internal/infra/blob/fs"
	memdriver "simcore/internal/infra/blob/memory"
	s3driver "simcore/internal/infra/blob/s3"
)

// Aliases so callers depend on this package only.
type (
	Driver           = core.Driver
	PutOptions       = core.PutOptions
	SignedURLOptions = core.SignedURLOptions
	Info             = core.Info
	Store            = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

// ErrUnsupported mirrors core.ErrUnsupported.
var ErrUnsupported = core.ErrUnsupported

// Options selects and parameterizes the driver opened by Open.
type Options struct {
	Driver Driver
	// Root is the directory root for the fs driver.
	Root string
	// S3 settings. Bucket is required for the s3 driver; Endpoint and
	// PathStyle support MinIO-style deployments.
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// Open constructs a Store for the configured driver, defaulting to fs.
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fsdriver.New(opts.Root)
	case DriverS3:
		return s3driver.New(ctx, s3driver.Config{
			Bucket:    opts.Bucket,
			Region:    opts.Region,
			Endpoint:  opts.Endpoint,
			PathStyle: opts.PathStyle,
		})
	case DriverMemory:
		return memdriver.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}
