// Package objectstore wraps the MinIO client for storing raw uploaded files.
package objectstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

type Client struct {
	mc     *minio.Client
	bucket string
}

// NewClient connects to the object store and ensures the configured bucket
// exists.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	exists, err := mc.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Client{mc: mc, bucket: cfg.Bucket}, nil
}

// Put stores data under objectPath and returns the stored path.
func (c *Client) Put(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	_, err := c.mc.PutObject(ctx, c.bucket, objectPath, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store object %s: %w", objectPath, err)
	}
	return objectPath, nil
}

// Get retrieves a previously stored object.
func (c *Client) Get(ctx context.Context, objectPath string) ([]byte, error) {
	obj, err := c.mc.GetObject(ctx, c.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object %s: %w", objectPath, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", objectPath, err)
	}
	return buf.Bytes(), nil
}

// HealthCheck verifies connectivity and credentials.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.mc.ListBuckets(ctx); err != nil {
		return fmt.Errorf("object store health check failed: %w", err)
	}
	return nil
}
