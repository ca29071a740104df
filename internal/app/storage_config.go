package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charlesng35/autodetail/internal/storage"
)

// S3Settings converts the object storage section into the storage package representation.
func (c StorageConfig) S3Settings() storage.S3Config {
	return storage.S3Config{
		Bucket:         strings.TrimSpace(c.S3.Bucket),
		Region:         strings.TrimSpace(c.S3.Region),
		Endpoint:       strings.TrimSpace(c.S3.Endpoint),
		AccessKey:      c.S3.AccessKey,
		SecretKey:      c.S3.SecretKey,
		ForcePathStyle: c.S3.ForcePathStyle,
		PublicBaseURL:  strings.TrimSpace(c.S3.PublicBaseURL),
		KeyPrefix:      strings.TrimSpace(c.S3.KeyPrefix),
	}
}

// OpenBlobStore builds the configured blob store. The local driver is used when none is set.
func (c StorageConfig) OpenBlobStore(ctx context.Context) (storage.BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case "", "local":
		return storage.NewLocalStore(c.Dir, c.PublicPrefix)
	case "s3":
		return storage.NewS3Store(ctx, c.S3Settings())
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", c.Driver)
	}
}
