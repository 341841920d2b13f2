package repository

import (
	"context"

	"golang-idea-tracker/internal/entity"

	"gorm.io/gorm"
)

// DisclosureRepository reads disclosure entries persisted by the sync service.
type DisclosureRepository interface {
	ListRecent(ctx context.Context, stockCodes []string, limit int) ([]entity.Disclosure, error)
}

// NewDisclosureRepository creates a new GORM-based disclosure repository.
func NewDisclosureRepository(db *gorm.DB) DisclosureRepository {
	return &disclosureRepository{db: db}
}

type disclosureRepository struct {
	db *gorm.DB
}

func (r *disclosureRepository) ListRecent(ctx context.Context, stockCodes []string, limit int) ([]entity.Disclosure, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.db.WithContext(ctx).Model(&entity.Disclosure{})
	if len(stockCodes) > 0 {
		query = query.Where("stock_code IN (?)", stockCodes)
	}

	var disclosures []entity.Disclosure
	if err := query.Order("published_at DESC NULLS LAST").Limit(limit).Find(&disclosures).Error; err != nil {
		return nil, err
	}

	return disclosures, nil
}
