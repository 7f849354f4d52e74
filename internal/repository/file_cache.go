package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"tush00nka/bbbab_files/internal/model"

	"github.com/redis/go-redis/v9"
)

const fileListKey = "files:list"

// FileCacheRepository holds a snapshot of the files listing.
type FileCacheRepository interface {
	// GetList reports ok=false on a cache miss.
	GetList(ctx context.Context) (records []model.FileRecord, ok bool, err error)
	SetList(ctx context.Context, records []model.FileRecord, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type fileCacheRepository struct {
	rdb *redis.Client
}

func NewFileCacheRepository(rdb *redis.Client) FileCacheRepository {
	return &fileCacheRepository{rdb: rdb}
}

func (r *fileCacheRepository) GetList(ctx context.Context) ([]model.FileRecord, bool, error) {
	data, err := r.rdb.Get(ctx, fileListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read file list from redis: %w", err)
	}

	var records []model.FileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal file list: %w", err)
	}
	return records, true, nil
}

func (r *fileCacheRepository) SetList(ctx context.Context, records []model.FileRecord, ttl time.Duration) error {
	if records == nil {
		records = []model.FileRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal file list: %w", err)
	}
	if err := r.rdb.Set(ctx, fileListKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save file list to redis: %w", err)
	}
	return nil
}

func (r *fileCacheRepository) Invalidate(ctx context.Context) error {
	return r.rdb.Del(ctx, fileListKey).Err()
}
