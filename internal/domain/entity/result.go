package entity

import "time"

// Result is one player's outcome row for a finished Room, written once by
// the Room actor when it transitions into the results phase. It backs the
// rating/stats read-model (SPEC_FULL.md §4.9); the live engine never reads
// it back.
type Result struct {
	ID         uint  `gorm:"primarykey"`
	RoomID     uint  `gorm:"column:game_id;index"`
	UserID     *uint `gorm:"index"`
	PlayerName string `gorm:"size:80"`
	Team       string `gorm:"size:1"`
	Score      int
	Won        bool
	FinishedAt time.Time
}

func (Result) TableName() string { return "results" }
