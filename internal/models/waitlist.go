package models

import "time"

// WaitlistEntry is one signup row. Email carries the unique index that
// backs duplicate detection, so the constraint lives in the schema rather
// than in application checks.
type WaitlistEntry struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist"
}
