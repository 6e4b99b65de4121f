package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/quizbattle/internal/domain/entity"
	apperrors "github.com/yourusername/quizbattle/internal/pkg/errors"
)

// RoomRepo реализует repository.RoomRepository
type RoomRepo struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

func (r *RoomRepo) Create(room *entity.Room) error {
	if err := r.db.Create(room).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return err
	}
	return nil
}

func (r *RoomRepo) GetByID(id uint) (*entity.Room, error) {
	var room entity.Room
	if err := r.db.First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepo) GetByPin(pin string) (*entity.Room, error) {
	var room entity.Room
	if err := r.db.Where("pin = ?", pin).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// PinInUse reports whether a non-finished room already holds this pin,
// backing the Room Registry's generation loop (spec invariant 1).
func (r *RoomRepo) PinInUse(pin string) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Room{}).
		Where("pin = ? AND status <> ?", pin, entity.RoomStatusFinished).
		Count(&count).Error
	return count > 0, err
}

func (r *RoomRepo) Update(room *entity.Room) error {
	return r.db.Save(room).Error
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgx и lib/pq драйверов.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
