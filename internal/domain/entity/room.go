package entity

import "time"

// Room status values. A room's status is orthogonal to its phase: status
// tracks the coarse lifecycle (waiting/in_progress/finished), phase tracks
// the fine-grained sub-state while in_progress.
const (
	RoomStatusWaiting    = "waiting"
	RoomStatusInProgress = "in_progress"
	RoomStatusFinished   = "finished"
)

const (
	PhaseGathering = "gathering"
	PhaseCountdown = "countdown"
	PhaseQuestion  = "question"
	PhasePaused    = "paused"
	PhaseResults   = "results"
)

const (
	TeamA    = "A"
	TeamB    = "B"
	TeamNone = ""
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Room is the persisted record of a game session. The authoritative
// in-memory state lives in the room actor (internal/service/roomengine);
// this row is the durable projection of it, written on transitions so a
// room can be reconstructed up to the current question boundary.
type Room struct {
	ID                uint   `gorm:"primarykey"`
	Pin               string `gorm:"size:6;uniqueIndex:idx_rooms_pin_active,where:status <> 'finished'"`
	Topic             string `gorm:"size:255"`
	Difficulty        string `gorm:"size:10"`
	QuestionsPerTeam  int
	Status            string `gorm:"size:15;index"`
	Phase             string `gorm:"size:10"`
	CurrentTeam       string `gorm:"size:1"`
	CurrentIndexA     int
	CurrentIndexB     int
	ScoreA            int
	ScoreB            int
	QuestionStartedAt *time.Time
	CreatedAt         time.Time
}

func (Room) TableName() string { return "games" }

func (r *Room) IsWaiting() bool    { return r.Status == RoomStatusWaiting }
func (r *Room) IsInProgress() bool { return r.Status == RoomStatusInProgress }
func (r *Room) IsFinished() bool   { return r.Status == RoomStatusFinished }

// OtherTeam flips A<->B; TeamNone maps to itself.
func OtherTeam(team string) string {
	switch team {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	default:
		return TeamNone
	}
}
