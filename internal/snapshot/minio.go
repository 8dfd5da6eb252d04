// Package snapshot publishes copies of the persisted schema document to
// S3-compatible object storage.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"mysql-mcp-gateway/internal/config"
)

const (
	putTimeout  = 60 * time.Second
	contentType = "application/json"
)

// MinIOPublisher uploads each regenerated schema document to one object key
type MinIOPublisher struct {
	client *minio.Client
	bucket string
	object string
}

// NewMinIOPublisher creates a publisher from the snapshot configuration
func NewMinIOPublisher(cfg config.SnapshotConfig) (*MinIOPublisher, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	object := cfg.Object
	if object == "" {
		object = "database_schema.json"
	}

	// Initialize minio client options
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	}

	client, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOPublisher{
		client: client,
		bucket: cfg.Bucket,
		object: object,
	}, nil
}

// Publish uploads data, replacing the previous snapshot
func (p *MinIOPublisher) Publish(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, putTimeout)
	defer cancel()

	opts := minio.PutObjectOptions{
		ContentType: contentType,
	}

	_, err := p.client.PutObject(ctx, p.bucket, p.object, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

// Target returns bucket/object for logging
func (p *MinIOPublisher) Target() string {
	return p.bucket + "/" + p.object
}
