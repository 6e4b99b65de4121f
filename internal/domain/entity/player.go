package entity

import "time"

// Player is a member of a Room. Grounded on game_service.py's Player model
// (team/is_host/is_captain/active/joined_at) carried over field-for-field.
type Player struct {
	ID        uint `gorm:"primarykey"`
	RoomID    uint `gorm:"column:game_id;index"`
	UserID    *uint
	Name      string `gorm:"size:80"`
	Team      string `gorm:"size:1"`
	IsHost    bool
	IsCaptain bool
	Active    bool
	JoinedAt  time.Time
}

func (Player) TableName() string { return "players" }

func (p *Player) OnTeam(team string) bool { return p.Active && p.Team == team }
