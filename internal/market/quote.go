package market

import "time"

// PriceSnapshot is the most recent live quote for one ticker. Snapshots only
// live in process memory; they are never persisted.
type PriceSnapshot struct {
	StockCode  string    `json:"stock_code"`
	Price      float64   `json:"current_price"`
	ChangeRate float64   `json:"change_rate"`
	FetchedAt  time.Time `json:"fetched_at"`
}
