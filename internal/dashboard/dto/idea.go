package dto

import "time"

// CreateIdeaRequest is the DTO for recording a new investment idea.
type CreateIdeaRequest struct {
	Title   string   `json:"title"`
	Thesis  string   `json:"thesis"`
	Status  string   `json:"status"`
	Tickers []string `json:"tickers"`
	Tags    []string `json:"tags"`
}

// UpdateIdeaRequest is the DTO for updating an existing idea.
type UpdateIdeaRequest struct {
	Title   string   `json:"title"`
	Thesis  string   `json:"thesis"`
	Status  string   `json:"status"`
	Tickers []string `json:"tickers"`
	Tags    []string `json:"tags"`
}

// CreatePositionRequest is the DTO for attaching a position to an idea.
type CreatePositionRequest struct {
	StockCode  string    `json:"stock_code"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	BuyDate    time.Time `json:"buy_date"`
}

// UpdatePositionRequest is the DTO for adjusting an open position.
type UpdatePositionRequest struct {
	EntryPrice float64 `json:"entry_price"`
	Quantity   float64 `json:"quantity"`
}

// ClosePositionRequest is the DTO for closing a position.
type ClosePositionRequest struct {
	ExitPrice float64    `json:"exit_price"`
	ExitDate  *time.Time `json:"exit_date,omitempty"`
}

// PositionResponse carries a position with its resolved valuation. The
// unrealized figures are live when a fresh quote backs them, otherwise the
// persisted snapshot values.
type PositionResponse struct {
	ID                  uint       `json:"id"`
	IdeaID              uint       `json:"idea_id"`
	StockCode           string     `json:"stock_code"`
	EntryPrice          float64    `json:"entry_price"`
	Quantity            float64    `json:"quantity"`
	IsOpen              bool       `json:"is_open"`
	BuyDate             time.Time  `json:"buy_date"`
	ExitPrice           *float64   `json:"exit_price,omitempty"`
	ExitDate            *time.Time `json:"exit_date,omitempty"`
	ValuationBasis      string     `json:"valuation_basis"`
	CurrentPrice        *float64   `json:"current_price,omitempty"`
	UnrealizedProfit    float64    `json:"unrealized_profit"`
	UnrealizedReturnPct float64    `json:"unrealized_return_pct"`
	LastSyncedAt        *time.Time `json:"last_synced_at,omitempty"`
}

// IdeaResponse is the DTO for API responses containing idea details.
type IdeaResponse struct {
	ID        uint               `json:"id"`
	Title     string             `json:"title"`
	Thesis    string             `json:"thesis"`
	Status    string             `json:"status"`
	Tickers   []string           `json:"tickers"`
	Tags      []string           `json:"tags"`
	Positions []PositionResponse `json:"positions"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
