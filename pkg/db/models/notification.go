package models

import (
	"time"

	"github.com/avelasquez/taskflow-backend/pkg/enums"
)

// Notification stores one per-recipient notification row. Rows are
// bulk-inserted and immutable except for the seen sweep.
type Notification struct {
	ID        int64                  `gorm:"primaryKey;autoIncrement"`
	CreatedBy int64                  `gorm:"not null"`
	Type      enums.NotificationType `gorm:"type:text;not null"`
	Content   string                 `gorm:"type:text;not null"`
	PostID    int64                  `gorm:"not null;index"`
	BoardID   *int64
	UserID    int64 `gorm:"not null;index"`
	IsMention bool  `gorm:"not null;default:false"`
	SeenAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
