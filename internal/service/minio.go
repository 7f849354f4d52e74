package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"tush00nka/bbbab_files/internal/model"

	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

type MinioOptions struct {
	Endpoint        string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// MinioStore talks to self hosted S3 compatible servers.
type MinioStore struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

func NewMinioStore(opts MinioOptions, log *zap.Logger) (*MinioStore, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint must be provided")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("minio bucket must be provided")
	}

	host, secure := opts.Endpoint, opts.UseSSL
	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid minio endpoint %q: %w", opts.Endpoint, err)
		}
		host, secure = u.Host, u.Scheme == "https"
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  miniocreds.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	log.Info("minio object store initialized", zap.String("endpoint", host), zap.String("bucket", opts.Bucket))

	return &MinioStore{client: client, bucket: opts.Bucket, log: log}, nil
}

func (m *MinioStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	info, err := m.client.PutObject(ctx, m.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	m.log.Debug("object uploaded", zap.String("key", key), zap.Int64("size", info.Size), zap.String("etag", info.ETag))
	return nil
}

func (m *MinioStore) Stat(ctx context.Context, key string) (*model.ObjectInfo, error) {
	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}

	return &model.ObjectInfo{
		Key:          key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

func (m *MinioStore) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expires, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}

func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (m *MinioStore) HealthCheck(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("storage health check failed: bucket %s does not exist", m.bucket)
	}
	return nil
}

var _ ObjectStore = (*MinioStore)(nil)
