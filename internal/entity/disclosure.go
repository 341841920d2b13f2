package entity

import "time"

// Disclosure represents a corporate disclosure entry pulled from a feed.
type Disclosure struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StockCode   string     `gorm:"not null;index" json:"stock_code"`
	Title       string     `gorm:"not null" json:"title"`
	Source      string     `json:"source"`
	URL         string     `gorm:"unique;not null" json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the Disclosure model.
func (Disclosure) TableName() string {
	return "disclosures"
}
