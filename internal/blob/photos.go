// Package blob stores profile photos in S3-compatible object storage
// and hands back public URLs.
package blob

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/walk-app/walk-profile/internal/config"
)

type PhotoStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewPhotoStore creates a client for the configured bucket.
func NewPhotoStore(cfg *config.Config) (*PhotoStore, error) {
	client, err := minio.New(cfg.S3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		Secure: cfg.S3.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	publicURL := cfg.S3.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.S3.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.S3.Endpoint, cfg.S3.Bucket)
	}

	return &PhotoStore{
		client:    client,
		bucket:    cfg.S3.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// EnsureBucket creates the photo bucket if it does not exist yet.
func (s *PhotoStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Store uploads a photo under profiles/<user_id>.<ext> and returns its
// public URL. A re-upload overwrites the previous photo.
func (s *PhotoStore) Store(ctx context.Context, userID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	ext := "jpg"
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		ext = strings.ToLower(filename[i+1:])
	}
	object := fmt.Sprintf("profiles/%s.%s", userID, ext)

	_, err := s.client.PutObject(ctx, s.bucket, object, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("store photo %s: %w", object, err)
	}

	return s.publicURL + "/" + object, nil
}
