package dto

import "time"

// MentionSignal is one per-ticker mention entry from the upstream
// mention-analytics API.
type MentionSignal struct {
	StockCode    string     `json:"stock_code"`
	MentionCount int        `json:"mention_count"`
	LatestTitle  string     `json:"latest_title"`
	Source       string     `json:"source"`
	MentionedAt  *time.Time `json:"mentioned_at,omitempty"`
}

// GetMentionsResponse is the upstream mention API response envelope.
type GetMentionsResponse struct {
	Data []MentionSignal `json:"data"`
}
