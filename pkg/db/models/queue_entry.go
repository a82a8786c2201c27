package models

import (
	"time"

	"github.com/avelasquez/taskflow-backend/pkg/enums"
)

// QueueEntryMaxAttempts is the retry ceiling for generated-branch runs.
const QueueEntryMaxAttempts = 3

// QueueEntry tracks a generated branch through the PR queue.
type QueueEntry struct {
	ID         int64               `gorm:"primaryKey;autoIncrement"`
	PostID     int64               `gorm:"not null;index"`
	BranchName string              `gorm:"type:text;not null"`
	Status     enums.QueueStatus   `gorm:"type:text;not null"`
	Attempts   int                 `gorm:"not null;default:0"`
	Outcome    *enums.QueueOutcome `gorm:"type:text"`
	CreatedBy  int64               `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
