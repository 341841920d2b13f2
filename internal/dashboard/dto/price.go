package dto

import "time"

// QuoteData is one entry of the upstream price API response.
type QuoteData struct {
	StockCode    string  `json:"stock_code"`
	CurrentPrice float64 `json:"current_price"`
	ChangeRate   float64 `json:"change_rate"`
}

// GetQuotesResponse is the upstream price API response envelope.
type GetQuotesResponse struct {
	Data []QuoteData `json:"data"`
}

// LivePrice is one live overlay entry exposed on the API.
type LivePrice struct {
	StockCode    string    `json:"stock_code"`
	CurrentPrice float64   `json:"current_price"`
	ChangeRate   float64   `json:"change_rate"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// LivePricesResponse is the response body of the live price lookup.
type LivePricesResponse struct {
	Prices map[string]LivePrice `json:"prices"`
}
