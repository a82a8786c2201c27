package models

import "time"

// Post is a kanban card. Desc holds editor HTML, including mention markers.
type Post struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	Title      string `gorm:"type:text;not null"`
	Desc       string `gorm:"column:description;type:text"`
	Column     string `gorm:"column:board_column;type:text;not null"`
	AssigneeID *int64
	CreatedBy  int64 `gorm:"not null"`
	FidBoard   int64 `gorm:"not null;index"`
	Deadline   *time.Time
	Priority   string `gorm:"type:text"`
	Pinned     bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PostWatcher subscribes a user to a post's notifications.
type PostWatcher struct {
	PostID int64 `gorm:"primaryKey"`
	UserID int64 `gorm:"primaryKey"`
}

func (PostWatcher) TableName() string { return "post_watchers" }
