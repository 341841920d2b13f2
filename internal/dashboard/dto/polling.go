package dto

import "time"

// PollingRequest toggles the live price poller.
type PollingRequest struct {
	Enabled bool `json:"enabled"`
}

// PollerStatus is a point-in-time snapshot of the poller state and its
// counters. Fetch failures never surface through the API; these counters are
// where they show up.
type PollerStatus struct {
	State        string     `json:"state"`
	StockCodes   []string   `json:"stock_codes"`
	Interval     string     `json:"interval"`
	MarketOpen   bool       `json:"market_open"`
	FetchCount   int64      `json:"fetch_count"`
	SkipCount    int64      `json:"skip_count"`
	FailureCount int64      `json:"failure_count"`
	LastFetchAt  *time.Time `json:"last_fetch_at,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	LastErrorAt  *time.Time `json:"last_error_at,omitempty"`
}
