package entity

import "time"

// User is the external identity record. The engine itself treats identity
// as opaque (SPEC_FULL.md §1); this row backs the minimal default identity
// service described in SPEC_FULL.md §4.9.
type User struct {
	ID           uint   `gorm:"primarykey"`
	Username     string `gorm:"size:80;uniqueIndex"`
	PasswordHash string `gorm:"size:255"`
	CreatedAt    time.Time
}

func (User) TableName() string { return "users" }
