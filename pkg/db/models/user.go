package models

import "time"

// User is a board member; authentication lives upstream, this table only
// carries the identity needed for mentions and message formatting.
type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:text;not null"`
	Email     string `gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
