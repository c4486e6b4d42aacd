// Package assets keeps generated images and videos somewhere a browser can
// load them from.
package assets

import (
	"context"
	"encoding/base64"
	"strings"

	"devdecks-backend/internal/config"
	"devdecks-backend/pkg/logger"
)

// Store saves data under key and returns a URL for it.
type Store interface {
	Put(ctx context.Context, key, mimeType string, data []byte) (string, error)
}

// DataURLStore keeps nothing and inlines the bytes as a data: URL.
type DataURLStore struct{}

func (DataURLStore) Put(ctx context.Context, key, mimeType string, data []byte) (string, error) {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// New returns an S3Store when the bucket settings are complete and a
// DataURLStore otherwise.
func New(cfg config.AssetsConfig) Store {
	if !cfg.CanUseS3() {
		logger.Info("Asset bucket not configured, generated media will be inlined as data URLs")
		return DataURLStore{}
	}
	s3, err := NewS3Store(cfg)
	if err != nil {
		logger.Errorf("Failed to init asset bucket, falling back to data URLs: %v", err)
		return DataURLStore{}
	}
	logger.WithFields(logger.Fields{"endpoint": cfg.Endpoint, "bucket": cfg.Bucket}).Info("Asset bucket configured")
	return s3
}
