package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"pawbook/internal/config"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// GCSStore uploads app assets (logos, licenses, pet and product images) to a
// Cloud Storage bucket and hands back the public URL that goes into the
// stored record.
type GCSStore struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
	logger    *zerolog.Logger
}

func NewGCSStore(ctx context.Context, cfg config.StorageConfig, logger *zerolog.Logger) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	var client *storage.Client
	var err error
	if cfg.CredentialsFile != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(storage.ScopeReadWrite))
	} else {
		client, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{
		client:    client,
		bucket:    cfg.Bucket,
		cdnDomain: strings.TrimRight(cfg.CDNDomain, "/"),
		logger:    logger,
	}, nil
}

// Upload writes the blob under path and returns its public URL.
func (s *GCSStore) Upload(ctx context.Context, data []byte, path string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty blob")
	}
	path = strings.TrimLeft(path, "/")

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	obj := s.client.Bucket(s.bucket).Object(path)
	w := obj.NewWriter(ctx)
	w.ContentType = contentTypeFor(path)

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", path, err)
	}

	s.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("blob uploaded")
	return s.PublicURL(path), nil
}

// Download fetches the blob back, mostly for tests and admin tooling.
func (s *GCSStore) Download(ctx context.Context, path string) ([]byte, error) {
	path = strings.TrimLeft(path, "/")
	r, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", path, err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// PublicURL builds the URL the app stores in records. With a CDN domain
// configured, it points there instead of at the bucket directly.
func (s *GCSStore) PublicURL(path string) string {
	path = strings.TrimLeft(path, "/")
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, path)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, path)
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func contentTypeFor(path string) string {
	switch {
	case strings.HasSuffix(path, ".png"):
		return "image/png"
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(path, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
