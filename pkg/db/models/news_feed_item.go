package models

import (
	"time"

	"github.com/avelasquez/taskflow-backend/pkg/enums"
)

// NewsFeedItem is an append-only feed row, written in batches alongside
// notifications. UserID is the viewer for personal rows and null for
// overview rows; CreatedBy is the acting user.
type NewsFeedItem struct {
	ID        int64              `gorm:"primaryKey;autoIncrement"`
	Mode      enums.FeedMode     `gorm:"type:text;not null;index"`
	Category  enums.FeedCategory `gorm:"type:text;not null"`
	Content   string             `gorm:"type:text;not null"`
	PostID    int64              `gorm:"not null;index"`
	BoardID   int64              `gorm:"not null;index"`
	UserID    *int64
	CreatedBy int64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (NewsFeedItem) TableName() string { return "news_feed_items" }
