package repository

import (
	"context"
	"strings"
	"time"

	"golang-idea-tracker/internal/entity"

	"gorm.io/gorm"
)

// GetStockPositionsParam filters position lookups. Empty fields are ignored.
type GetStockPositionsParam struct {
	IDs        []uint
	IdeaIDs    []uint
	StockCodes []string
	IsOpen     *bool
}

// StockPositionRepository defines the interface for position data operations.
type StockPositionRepository interface {
	Create(ctx context.Context, position *entity.StockPosition) error
	FindByID(ctx context.Context, id uint) (*entity.StockPosition, error)
	Get(ctx context.Context, param GetStockPositionsParam) ([]entity.StockPosition, error)
	Update(ctx context.Context, position *entity.StockPosition) error
	Close(ctx context.Context, id uint, exitPrice float64, exitDate time.Time) error
}

// NewStockPositionRepository creates a new GORM-based position repository.
func NewStockPositionRepository(db *gorm.DB) StockPositionRepository {
	return &stockPositionRepository{db: db}
}

type stockPositionRepository struct {
	db *gorm.DB
}

func (r *stockPositionRepository) Create(ctx context.Context, position *entity.StockPosition) error {
	return r.db.WithContext(ctx).Create(position).Error
}

func (r *stockPositionRepository) FindByID(ctx context.Context, id uint) (*entity.StockPosition, error) {
	var position entity.StockPosition
	if err := r.db.WithContext(ctx).First(&position, id).Error; err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *stockPositionRepository) Get(ctx context.Context, param GetStockPositionsParam) ([]entity.StockPosition, error) {
	var positions []entity.StockPosition

	qFilter := []string{}
	qFilterParam := []interface{}{}

	if len(param.IDs) > 0 {
		qFilter = append(qFilter, "id IN (?)")
		qFilterParam = append(qFilterParam, param.IDs)
	}

	if len(param.IdeaIDs) > 0 {
		qFilter = append(qFilter, "idea_id IN (?)")
		qFilterParam = append(qFilterParam, param.IdeaIDs)
	}

	if len(param.StockCodes) > 0 {
		qFilter = append(qFilter, "stock_code IN (?)")
		qFilterParam = append(qFilterParam, param.StockCodes)
	}

	if param.IsOpen != nil {
		qFilter = append(qFilter, "is_open = ?")
		qFilterParam = append(qFilterParam, *param.IsOpen)
	}

	query := r.db.WithContext(ctx).Model(&entity.StockPosition{})
	if len(qFilter) > 0 {
		query = query.Where(strings.Join(qFilter, " AND "), qFilterParam...)
	}

	if err := query.Find(&positions).Error; err != nil {
		return nil, err
	}

	return positions, nil
}

func (r *stockPositionRepository) Update(ctx context.Context, position *entity.StockPosition) error {
	return r.db.WithContext(ctx).Save(position).Error
}

// Close marks the position closed. The persisted snapshot fields are left in
// place for history; aggregation skips closed positions regardless.
func (r *stockPositionRepository) Close(ctx context.Context, id uint, exitPrice float64, exitDate time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.StockPosition{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_open":    false,
			"exit_price": exitPrice,
			"exit_date":  exitDate,
		}).Error
}
