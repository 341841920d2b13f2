package repository

import (
	"context"

	"golang-idea-tracker/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DisclosureRepository defines the disclosure operations the sync jobs need.
type DisclosureRepository interface {
	// CreateIgnoreConflict inserts the disclosure unless its URL already
	// exists. It reports whether a new row was written.
	CreateIgnoreConflict(ctx context.Context, disclosure *entity.Disclosure) (bool, error)
}

// NewDisclosureRepository creates a new GORM-based disclosure repository.
func NewDisclosureRepository(db *gorm.DB) DisclosureRepository {
	return &disclosureRepository{db: db}
}

type disclosureRepository struct {
	db *gorm.DB
}

func (r *disclosureRepository) CreateIgnoreConflict(ctx context.Context, disclosure *entity.Disclosure) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoNothing: true,
	}).Create(disclosure)

	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
