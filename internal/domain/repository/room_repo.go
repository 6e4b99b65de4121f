package repository

import "github.com/yourusername/quizbattle/internal/domain/entity"

// RoomRepository persists Room rows (games table).
type RoomRepository interface {
	Create(room *entity.Room) error
	GetByID(id uint) (*entity.Room, error)
	GetByPin(pin string) (*entity.Room, error)
	PinInUse(pin string) (bool, error)
	Update(room *entity.Room) error
}

// PlayerRepository persists Player rows.
type PlayerRepository interface {
	Create(player *entity.Player) error
	GetByID(id uint) (*entity.Player, error)
	ListByRoom(roomID uint) ([]entity.Player, error)
	Update(player *entity.Player) error
}

// QuestionRepository persists the question deck.
type QuestionRepository interface {
	CreateBatch(questions []entity.Question) error
	ListByRoom(roomID uint) ([]entity.Question, error)
	GetCurrent(roomID uint, team string, orderIndex int) (*entity.Question, error)
	Update(question *entity.Question) error
	DeleteByRoom(roomID uint) error
}

// UserRepository persists the opaque identity's User rows.
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByUsername(username string) (*entity.User, error)
}

// ResultRepository persists and queries the rating/stats read-model.
type ResultRepository interface {
	CreateBatch(results []entity.Result) error
	StatsByUser(userID uint) (gamesFinished int, wins int, err error)
	Leaderboard(limit int) ([]LeaderboardRow, error)
}

// LeaderboardRow is one row of GET /rating/data.
type LeaderboardRow struct {
	UserID        uint
	Username      string
	Wins          int
	GamesFinished int
}
