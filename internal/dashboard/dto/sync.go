package dto

import (
	"encoding/json"
	"time"
)

// SyncRequest triggers an on-demand background sync.
type SyncRequest struct {
	Kind string `json:"kind"`
}

// SyncRunResponse is one recorded sync execution.
type SyncRunResponse struct {
	ID           uint            `json:"id"`
	Kind         string          `json:"kind"`
	Status       string          `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
}
