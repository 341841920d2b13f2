package repository

import (
	"context"

	"golang-idea-tracker/internal/entity"

	"gorm.io/gorm"
)

// StockPositionRepository defines the position operations the sync jobs need.
type StockPositionRepository interface {
	FindOpen(ctx context.Context) ([]entity.StockPosition, error)
	FindOpenStockCodes(ctx context.Context) ([]string, error)
	UpdateSnapshot(ctx context.Context, position *entity.StockPosition) error
}

// NewStockPositionRepository creates a new GORM-based position repository.
func NewStockPositionRepository(db *gorm.DB) StockPositionRepository {
	return &stockPositionRepository{db: db}
}

type stockPositionRepository struct {
	db *gorm.DB
}

// FindOpen returns every open position ordered by stock code.
func (r *stockPositionRepository) FindOpen(ctx context.Context) ([]entity.StockPosition, error) {
	var positions []entity.StockPosition
	if err := r.db.WithContext(ctx).
		Where("is_open = ?", true).
		Order("stock_code ASC").
		Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

// FindOpenStockCodes returns the distinct stock codes across open positions.
func (r *stockPositionRepository) FindOpenStockCodes(ctx context.Context) ([]string, error) {
	var stockCodes []string
	if err := r.db.WithContext(ctx).
		Model(&entity.StockPosition{}).
		Where("is_open = ?", true).
		Distinct().
		Order("stock_code ASC").
		Pluck("stock_code", &stockCodes).Error; err != nil {
		return nil, err
	}
	return stockCodes, nil
}

// UpdateSnapshot persists the recomputed valuation snapshot of one position.
func (r *stockPositionRepository) UpdateSnapshot(ctx context.Context, position *entity.StockPosition) error {
	return r.db.WithContext(ctx).Model(&entity.StockPosition{}).
		Where("id = ?", position.ID).
		Updates(map[string]interface{}{
			"current_price":         position.CurrentPrice,
			"unrealized_profit":     position.UnrealizedProfit,
			"unrealized_return_pct": position.UnrealizedReturnPct,
			"last_synced_at":        position.LastSyncedAt,
		}).Error
}
