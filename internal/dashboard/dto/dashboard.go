package dto

import "time"

// AggregateValuation is the derived portfolio-level valuation. It is
// recomputed for every snapshot request and never stored.
type AggregateValuation struct {
	TotalUnrealizedProfit float64 `json:"total_unrealized_profit"`
	TotalReturnPct        float64 `json:"total_return_pct"`
	IsLive                bool    `json:"is_live"`
	LivePositions         int     `json:"live_positions"`
	CachedPositions       int     `json:"cached_positions"`
	MissingPositions      int     `json:"missing_positions"`
}

// DisclosureResponse is one disclosure entry on the dashboard.
type DisclosureResponse struct {
	ID          uint       `json:"id"`
	StockCode   string     `json:"stock_code"`
	Title       string     `json:"title"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// DashboardResponse is the full dashboard snapshot.
type DashboardResponse struct {
	Ideas       []IdeaResponse       `json:"ideas"`
	Aggregate   AggregateValuation   `json:"aggregate"`
	LivePrices  map[string]LivePrice `json:"live_prices"`
	Disclosures []DisclosureResponse `json:"disclosures"`
	Mentions    []MentionSignal      `json:"mentions"`
	Polling     PollerStatus         `json:"polling"`
	AsOf        time.Time            `json:"as_of"`
}
