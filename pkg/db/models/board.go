package models

import "time"

// Board groups posts into a single kanban view.
type Board struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Title     string `gorm:"type:text;not null"`
	CreatedBy int64  `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
