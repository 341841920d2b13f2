package repository

import (
	"context"

	"golang-idea-tracker/internal/entity"

	"gorm.io/gorm"
)

// SyncRunRepository records sync executions queued from the dashboard.
type SyncRunRepository interface {
	Create(ctx context.Context, run *entity.SyncRun) error
	FindRecent(ctx context.Context, limit int) ([]entity.SyncRun, error)
}

// NewSyncRunRepository creates a new sync run repository.
func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepository{db: db}
}

type syncRunRepository struct {
	db *gorm.DB
}

func (r *syncRunRepository) Create(ctx context.Context, run *entity.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *syncRunRepository) FindRecent(ctx context.Context, limit int) ([]entity.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []entity.SyncRun
	if err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
