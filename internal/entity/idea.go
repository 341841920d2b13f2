package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	IdeaStatusActive   = "active"
	IdeaStatusExited   = "exited"
	IdeaStatusWatching = "watching"
)

// Idea represents a recorded investment thesis. Positions attached to an idea
// carry the actual holdings; the idea itself is the narrative around them.
type Idea struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Title     string          `gorm:"not null" json:"title"`
	Thesis    string          `json:"thesis"`
	Status    string          `gorm:"not null;default:active" json:"status"`
	Tickers   pq.StringArray  `gorm:"type:text[]" json:"tickers"`
	Tags      pq.StringArray  `gorm:"type:text[]" json:"tags"`
	Positions []StockPosition `gorm:"foreignKey:IdeaID" json:"positions"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName specifies the table name for the Idea model.
func (Idea) TableName() string {
	return "ideas"
}
