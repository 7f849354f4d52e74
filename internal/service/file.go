package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"time"
	"tush00nka/bbbab_files/internal/model"
	"tush00nka/bbbab_files/internal/pkg/filename"
	"tush00nka/bbbab_files/internal/pkg/metrics"
	"tush00nka/bbbab_files/internal/pkg/storage"
	"tush00nka/bbbab_files/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const compensationTimeout = 10 * time.Second

type FileServiceOptions struct {
	AllowedExtensions []string
	LinkExpiry        time.Duration
	MaxConcurrent     int64

	// Cache is optional. When set, List reads through it and every
	// successful upload invalidates it.
	Cache    repository.FileCacheRepository
	CacheTTL time.Duration

	Metrics *metrics.Metrics
	Now     func() time.Time
}

type fileService struct {
	store   ObjectStore
	files   repository.FileRepository
	staging *storage.Staging
	opts    FileServiceOptions
	slots   *semaphore.Weighted
	log     *zap.Logger
}

func NewFileService(
	store ObjectStore,
	files repository.FileRepository,
	staging *storage.Staging,
	opts FileServiceOptions,
	log *zap.Logger,
) FileService {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &fileService{
		store:   store,
		files:   files,
		staging: staging,
		opts:    opts,
		slots:   semaphore.NewWeighted(opts.MaxConcurrent),
		log:     log.Named("files"),
	}
}

func (s *fileService) LinkExpiry() time.Duration {
	return s.opts.LinkExpiry
}

// Upload validates the incoming file, stages it, puts it into the object
// store under its sanitized name, presigns a GET link and records the row.
// The staged copy is removed on every return path. If presigning or the
// insert fails, the object written by this call is deleted again.
func (s *fileService) Upload(ctx context.Context, in UploadInput) (record *model.FileRecord, err error) {
	start := time.Now()
	defer func() {
		s.opts.Metrics.ObserveUpload(uploadOutcome(err), time.Since(start))
	}()

	if in.Content == nil {
		return nil, ErrNoFilePart
	}
	if in.Filename == "" {
		return nil, ErrNoSelectedFile
	}
	if !filename.Allowed(in.Filename, s.opts.AllowedExtensions) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, in.Filename)
	}

	key := filename.Secure(in.Filename)
	if !filename.Allowed(key, s.opts.AllowedExtensions) {
		return nil, fmt.Errorf("%w: %q sanitizes to %q", ErrUnsupportedFileType, in.Filename, key)
	}

	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for upload slot: %w", err)
	}
	defer s.slots.Release(1)

	staged, err := s.staging.Stage(key, in.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStagingWrite, err)
	}
	defer func() {
		if rmErr := s.staging.Remove(staged.Path); rmErr != nil {
			s.log.Warn("failed to remove staged file", zap.String("path", staged.Path), zap.Error(rmErr))
		}
	}()

	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(path.Ext(key)); byExt != "" {
			contentType = byExt
		}
	}

	// Only an object this call created may be removed again. Overwriting
	// keeps the key of an earlier committed row alive.
	_, statErr := s.store.Stat(ctx, key)
	created := errors.Is(statErr, ErrObjectNotFound)

	if err := s.putStaged(ctx, key, staged, contentType); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrObjectStoreUpload, err)
	}

	url, err := s.store.PresignGet(ctx, key, s.opts.LinkExpiry)
	if err != nil {
		s.compensate(ctx, key, created)
		return nil, fmt.Errorf("%w: %w", ErrDownloadLinkGeneration, err)
	}

	record = &model.FileRecord{
		FileName:   key,
		FileSize:   staged.Size,
		UploadDate: s.opts.Now(),
		S3URL:      url,
	}
	if err := s.files.Create(ctx, record); err != nil {
		s.compensate(ctx, key, created)
		return nil, fmt.Errorf("%w: %w", ErrMetadataWrite, err)
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.Invalidate(ctx); err != nil {
			s.log.Warn("failed to invalidate file list cache", zap.Error(err))
		}
	}

	s.log.Info("file uploaded",
		zap.String("file_name", key),
		zap.String("original_name", in.Filename),
		zap.Int64("file_size", staged.Size),
		zap.Duration("took", time.Since(start)),
	)

	return record, nil
}

func (s *fileService) putStaged(ctx context.Context, key string, staged *storage.StagedFile, contentType string) error {
	f, err := s.staging.Open(staged.Path)
	if err != nil {
		return fmt.Errorf("failed to reopen staged file: %w", err)
	}
	defer f.Close()

	return s.store.Put(ctx, key, f, staged.Size, contentType)
}

// compensate removes an object whose metadata row will not be written. It
// runs detached from the request context so a client hang-up does not leave
// the object behind. A key that existed before the upload is left in place.
func (s *fileService) compensate(ctx context.Context, key string, created bool) {
	if !created {
		s.log.Warn("keeping overwritten object after failed upload", zap.String("key", key))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Error("failed to delete orphaned object", zap.String("key", key), zap.Error(err))
		return
	}
	s.log.Warn("deleted object after failed upload", zap.String("key", key))
}

func (s *fileService) List(ctx context.Context) ([]model.FileRecord, error) {
	if s.opts.Cache != nil {
		records, ok, err := s.opts.Cache.GetList(ctx)
		if err != nil {
			s.log.Warn("file list cache read failed", zap.Error(err))
		} else if ok {
			return records, nil
		}
	}

	records, err := s.files.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadataRead, err)
	}

	if s.opts.Cache != nil {
		if err := s.opts.Cache.SetList(ctx, records, s.opts.CacheTTL); err != nil {
			s.log.Warn("file list cache write failed", zap.Error(err))
		}
	}

	return records, nil
}

// DownloadURL mints a fresh link for fileName exactly as given. A missing
// object and a failing store both come back as ErrNotFound.
func (s *fileService) DownloadURL(ctx context.Context, fileName string) (string, error) {
	if fileName == "" {
		s.opts.Metrics.ObserveDownload("not_found")
		return "", ErrNotFound
	}

	if _, err := s.store.Stat(ctx, fileName); err != nil {
		s.opts.Metrics.ObserveDownload("not_found")
		return "", fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	url, err := s.store.PresignGet(ctx, fileName, s.opts.LinkExpiry)
	if err != nil {
		s.opts.Metrics.ObserveDownload("not_found")
		return "", fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	s.opts.Metrics.ObserveDownload("success")
	return url, nil
}

func uploadOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case IsBadRequest(err):
		return "bad_request"
	case errors.Is(err, ErrUnsupportedFileType):
		return "unsupported_type"
	case errors.Is(err, ErrStagingWrite):
		return "staging_error"
	case errors.Is(err, ErrObjectStoreUpload):
		return "store_error"
	case errors.Is(err, ErrDownloadLinkGeneration):
		return "link_error"
	case errors.Is(err, ErrMetadataWrite):
		return "metadata_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
