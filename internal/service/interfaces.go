package service

import (
	"context"
	"io"
	"time"
	"tush00nka/bbbab_files/internal/model"
)

// ObjectStore is a key addressed blob store able to mint time limited GET
// links.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Stat returns ErrObjectNotFound when key is absent.
	Stat(ctx context.Context, key string) (*model.ObjectInfo, error)
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) error
}

type UploadInput struct {
	// Filename is the name as sent by the browser, before sanitizing.
	Filename    string
	Content     io.Reader
	ContentType string
}

type FileService interface {
	Upload(ctx context.Context, in UploadInput) (*model.FileRecord, error)
	List(ctx context.Context) ([]model.FileRecord, error)
	DownloadURL(ctx context.Context, fileName string) (string, error)
	LinkExpiry() time.Duration
}
