package repository

import (
	"context"
	"tush00nka/bbbab_files/internal/model"

	"gorm.io/gorm"
)

type FileRepository interface {
	Create(ctx context.Context, record *model.FileRecord) error
	FindAll(ctx context.Context) ([]model.FileRecord, error)
}

type fileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

// Create inserts the record in its own transaction and commits before
// returning.
func (r *fileRepository) Create(ctx context.Context, record *model.FileRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
}

// FindAll returns every row in storage order. There is no paging.
func (r *fileRepository) FindAll(ctx context.Context) ([]model.FileRecord, error) {
	var records []model.FileRecord
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
