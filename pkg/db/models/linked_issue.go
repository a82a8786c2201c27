package models

import (
	"time"

	"github.com/avelasquez/taskflow-backend/pkg/enums"
)

// LinkedIssue is one direction of a post-to-post relation. Creating a link
// also creates its mirror row on the other post with the reverse status.
type LinkedIssue struct {
	ID           int64            `gorm:"primaryKey;autoIncrement"`
	PostID       int64            `gorm:"not null;index"`
	LinkedPostID int64            `gorm:"not null;index"`
	Status       enums.LinkStatus `gorm:"type:text;not null"`
	CreatedBy    int64            `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
