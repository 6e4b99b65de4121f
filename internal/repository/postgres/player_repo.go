package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/quizbattle/internal/domain/entity"
	apperrors "github.com/yourusername/quizbattle/internal/pkg/errors"
)

// PlayerRepo реализует repository.PlayerRepository
type PlayerRepo struct {
	db *gorm.DB
}

func NewPlayerRepo(db *gorm.DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

func (r *PlayerRepo) Create(player *entity.Player) error {
	return r.db.Create(player).Error
}

func (r *PlayerRepo) GetByID(id uint) (*entity.Player, error) {
	var player entity.Player
	if err := r.db.First(&player, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &player, nil
}

func (r *PlayerRepo) ListByRoom(roomID uint) ([]entity.Player, error) {
	var players []entity.Player
	err := r.db.Where("game_id = ?", roomID).Order("joined_at ASC").Find(&players).Error
	return players, err
}

func (r *PlayerRepo) Update(player *entity.Player) error {
	return r.db.Save(player).Error
}
