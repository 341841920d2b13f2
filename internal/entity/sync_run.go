package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

const (
	SyncRunStatusPending = "pending"
	SyncRunStatusRunning = "running"
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
)

// SyncRun records one execution of a background sync job.
type SyncRun struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Kind         string         `gorm:"not null;index" json:"kind"`
	Status       string         `gorm:"not null" json:"status"`
	StartedAt    time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at"`
	ErrorMessage sql.NullString `json:"error_message"`
	Result       datatypes.JSON `gorm:"type:jsonb" json:"result"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the SyncRun model.
func (SyncRun) TableName() string {
	return "sync_runs"
}
