package repository

import (
	"context"

	"golang-idea-tracker/internal/entity"

	"gorm.io/gorm"
)

// IdeaRepository defines the interface for idea data operations.
type IdeaRepository interface {
	Create(ctx context.Context, idea *entity.Idea) error
	FindByID(ctx context.Context, id uint) (*entity.Idea, error)
	FindAll(ctx context.Context) ([]entity.Idea, error)
	Update(ctx context.Context, idea *entity.Idea) error
	Delete(ctx context.Context, id uint) error
}

// NewIdeaRepository creates a new GORM-based idea repository.
func NewIdeaRepository(db *gorm.DB) IdeaRepository {
	return &ideaRepository{db: db}
}

type ideaRepository struct {
	db *gorm.DB
}

// Create creates a new idea in the database.
func (r *ideaRepository) Create(ctx context.Context, idea *entity.Idea) error {
	return r.db.WithContext(ctx).Create(idea).Error
}

// FindByID retrieves an idea with its positions.
func (r *ideaRepository) FindByID(ctx context.Context, id uint) (*entity.Idea, error) {
	var idea entity.Idea
	if err := r.db.WithContext(ctx).Preload("Positions").First(&idea, id).Error; err != nil {
		return nil, err
	}
	return &idea, nil
}

// FindAll retrieves every idea with its positions, newest first.
func (r *ideaRepository) FindAll(ctx context.Context) ([]entity.Idea, error) {
	var ideas []entity.Idea
	if err := r.db.WithContext(ctx).Preload("Positions").Order("created_at DESC").Find(&ideas).Error; err != nil {
		return nil, err
	}
	return ideas, nil
}

// Update saves the idea record.
func (r *ideaRepository) Update(ctx context.Context, idea *entity.Idea) error {
	return r.db.WithContext(ctx).Save(idea).Error
}

// Delete removes an idea together with its positions.
func (r *ideaRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("idea_id = ?", id).Delete(&entity.StockPosition{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Idea{}, id).Error
	})
}
