package storage

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/autodetail/pkg/logger"
	"github.com/charlesng35/autodetail/pkg/metrics"
)

// Images transcodes uploads and stores them in a BlobStore.
type Images struct {
	store BlobStore
}

// NewImages wraps store.
func NewImages(store BlobStore) (*Images, error) {
	if store == nil {
		return nil, errors.New("storage: blob store is required")
	}
	return &Images{store: store}, nil
}

// Save transcodes data for variant and stores the result.
func (i *Images) Save(ctx context.Context, data []byte, variant Variant) (string, error) {
	url, err := i.store.Put(ctx, Transcode(data, variant))
	if err != nil {
		metrics.BlobOperations.WithLabelValues(i.store.Driver(), "put", "error").Inc()
		return "", err
	}
	metrics.BlobOperations.WithLabelValues(i.store.Driver(), "put", "success").Inc()
	return url, nil
}

// SaveAll stores every upload in order. On failure the blobs already written
// are removed and the error is returned.
func (i *Images) SaveAll(ctx context.Context, uploads [][]byte, variant Variant) ([]string, error) {
	urls := make([]string, 0, len(uploads))
	for _, data := range uploads {
		url, err := i.Save(ctx, data, variant)
		if err != nil {
			i.DeleteBestEffort(ctx, urls...)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// DeleteBestEffort removes blobs, logging failures instead of returning them.
func (i *Images) DeleteBestEffort(ctx context.Context, urls ...string) {
	log := logger.WithModule("storage")
	for _, url := range urls {
		if strings.TrimSpace(url) == "" {
			continue
		}
		if err := i.store.Delete(ctx, url); err != nil {
			metrics.BlobOperations.WithLabelValues(i.store.Driver(), "delete", "error").Inc()
			log.Warn("blob delete failed", zap.String("url", url), zap.Error(err))
			continue
		}
		metrics.BlobOperations.WithLabelValues(i.store.Driver(), "delete", "success").Inc()
	}
}
