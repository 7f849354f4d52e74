package app

import (
	"context"
	"fmt"
	"tush00nka/bbbab_files/internal/config"
	"tush00nka/bbbab_files/internal/handler"
	"tush00nka/bbbab_files/internal/pkg/metrics"
	"tush00nka/bbbab_files/internal/pkg/storage"
	"tush00nka/bbbab_files/internal/repository"
	"tush00nka/bbbab_files/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := repository.NewDB(cfg.DBDriver, cfg.DSN(), repository.PoolOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	}, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	defer sqlDB.Close()

	if cfg.DBAutoMigrate {
		if err := repository.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate files table: %w", err)
		}
	}

	store, err := newObjectStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	staging, err := storage.NewStaging(afero.NewOsFs(), cfg.StagingDir)
	if err != nil {
		return fmt.Errorf("failed to prepare staging directory: %w", err)
	}

	var cache repository.FileCacheRepository
	if cfg.RedisAddr != "" {
		rdb, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		cache = repository.NewFileCacheRepository(rdb)
		log.Info("file list cache enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	fileRepo := repository.NewFileRepository(db)
	fileService := service.NewFileService(store, fileRepo, staging, service.FileServiceOptions{
		AllowedExtensions: cfg.AllowedExtensions,
		LinkExpiry:        cfg.PresignExpiration(),
		MaxConcurrent:     cfg.MaxConcurrentUploads,
		Cache:             cache,
		CacheTTL:          cfg.CacheListTTL(),
		Metrics:           m,
	}, log)
	fileHandler := handler.NewFileHandler(fileService, handler.FileHandlerOptions{
		MaxUploadBytes:    cfg.MaxUploadBytes(),
		AllowedExtensions: cfg.AllowedExtensions,
	}, log)
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"database":     sqlDB.PingContext,
		"object_store": store.HealthCheck,
	}, log)

	server := NewServer(ServerOptions{
		Port:            cfg.ServerPort,
		ReadTimeout:     cfg.ReadTimeout(),
		WriteTimeout:    cfg.WriteTimeout(),
		ShutdownTimeout: cfg.ShutdownTimeout(),
		AllowedOrigins:  cfg.CORSAllowedOrigins,
	}, fileHandler, healthHandler, m.Handler(), log)

	return server.Run(ctx)
}

func newObjectStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.ObjectStore, error) {
	switch cfg.StorageDriver {
	case "minio":
		store, err := service.NewMinioStore(service.MinioOptions{
			Endpoint:        cfg.S3Endpoint,
			Bucket:          cfg.S3BucketName,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UseSSL:          cfg.S3UseSSL,
		}, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		store, err := service.NewS3Store(ctx, service.S3Options{
			Bucket:          cfg.S3BucketName,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
