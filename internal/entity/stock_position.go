package entity

import "time"

// StockPosition represents a single holding tied to one idea. The snapshot
// fields (CurrentPrice, UnrealizedProfit, UnrealizedReturnPct, LastSyncedAt)
// are recomputed by the sync service and act as the fallback when no live
// price is available.
type StockPosition struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	IdeaID              uint       `gorm:"not null;index" json:"idea_id"`
	StockCode           string     `gorm:"not null;index" json:"stock_code"`
	EntryPrice          float64    `gorm:"not null" json:"entry_price"`
	Quantity            float64    `gorm:"not null" json:"quantity"`
	IsOpen              bool       `gorm:"not null;default:true" json:"is_open"`
	BuyDate             time.Time  `json:"buy_date"`
	ExitPrice           *float64   `json:"exit_price,omitempty"`
	ExitDate            *time.Time `json:"exit_date,omitempty"`
	CurrentPrice        *float64   `json:"current_price,omitempty"`
	UnrealizedProfit    *float64   `json:"unrealized_profit,omitempty"`
	UnrealizedReturnPct *float64   `json:"unrealized_return_pct,omitempty"`
	LastSyncedAt        *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the StockPosition model.
func (StockPosition) TableName() string {
	return "stock_positions"
}
