package repository

import (
	"context"

	"golang-idea-tracker/internal/entity"

	"gorm.io/gorm"
)

// SyncRunRepository defines the interface for sync run data operations.
type SyncRunRepository interface {
	Create(ctx context.Context, run *entity.SyncRun) error
	Update(ctx context.Context, run *entity.SyncRun) error
}

// NewSyncRunRepository creates a new GORM-based sync run repository.
func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepository{db: db}
}

type syncRunRepository struct {
	db *gorm.DB
}

// Create persists a new sync run record.
func (r *syncRunRepository) Create(ctx context.Context, run *entity.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Update updates an existing sync run record.
func (r *syncRunRepository) Update(ctx context.Context, run *entity.SyncRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}
