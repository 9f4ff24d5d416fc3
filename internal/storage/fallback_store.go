package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	appconfig "promptmart/internal/config"

	"github.com/rs/zerolog"
)

// fallbackStore tries S3 first and falls back to the local file system.
type fallbackStore struct {
	s3Store   Store
	fileStore Store
	s3Enabled bool
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that tries S3 first, then the local file system.
// If s3Store is nil, only the file store is used.
func NewFallbackStore(s3Store, fileStore Store, s3Enabled bool, logger zerolog.Logger) Store {
	return &fallbackStore{
		s3Store:   s3Store,
		fileStore: fileStore,
		s3Enabled: s3Enabled,
		logger:    logger.With().Str("component", "fallback-store").Logger(),
	}
}

func (s *fallbackStore) Put(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	if !s.s3Enabled || s.s3Store == nil {
		s.logger.Debug().
			Bool("s3_enabled", s.s3Enabled).
			Bool("has_s3_store", s.s3Store != nil).
			Msg("S3 disabled or not configured, using local file system")
		return s.fileStore.Put(ctx, name, contentType, body)
	}

	// The body is buffered so that it can be replayed against the local store.
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	ref, err := s.s3Store.Put(ctx, name, contentType, bytes.NewReader(data))
	if err == nil {
		return ref, nil
	}

	s.logger.Warn().
		Err(err).
		Str("name", name).
		Msg("failed to store in S3, falling back to local file system")

	return s.fileStore.Put(ctx, name, contentType, bytes.NewReader(data))
}

// New builds the store described by cfg.
func New(ctx context.Context, cfg appconfig.StorageConfig, logger zerolog.Logger) (Store, error) {
	files, err := NewFileStore(cfg.LocalDir, cfg.PublicURL, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.S3.Enabled {
		return files, nil
	}

	remote, err := NewS3Store(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("S3 store unavailable, uploads will use the local file system")
	}

	return NewFallbackStore(remote, files, cfg.S3.Enabled, logger), nil
}
