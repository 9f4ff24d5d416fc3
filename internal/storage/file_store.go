package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// fileStore implements Store on the local file system.
type fileStore struct {
	dir       string
	publicURL string
	logger    zerolog.Logger
}

// NewFileStore creates a store that writes under dir. References are
// publicURL joined with the object key, or the bare key when publicURL is empty.
func NewFileStore(dir, publicURL string, logger zerolog.Logger) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}

	return &fileStore{
		dir:       dir,
		publicURL: publicURL,
		logger:    logger.With().Str("component", "file-store").Logger(),
	}, nil
}

func (s *fileStore) Put(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := objectKey("", name)
	path := filepath.Join(s.dir, key)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("failed to create upload file")
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	written, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		s.logger.Error().Err(err).Str("path", path).Msg("failed to write upload file")
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	s.logger.Info().
		Str("key", key).
		Str("content_type", contentType).
		Int64("bytes", written).
		Msg("upload stored on local file system")

	return joinURL(s.publicURL, key), nil
}
