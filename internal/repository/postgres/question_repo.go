package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/quizbattle/internal/domain/entity"
	apperrors "github.com/yourusername/quizbattle/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

func (r *QuestionRepo) CreateBatch(questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.Create(&questions).Error
}

func (r *QuestionRepo) ListByRoom(roomID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Where("game_id = ?", roomID).Order("team ASC, order_index ASC").Find(&questions).Error
	return questions, err
}

func (r *QuestionRepo) GetCurrent(roomID uint, team string, orderIndex int) (*entity.Question, error) {
	var question entity.Question
	err := r.db.Where("game_id = ? AND team = ? AND order_index = ?", roomID, team, orderIndex).First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepo) Update(question *entity.Question) error {
	return r.db.Save(question).Error
}

func (r *QuestionRepo) DeleteByRoom(roomID uint) error {
	return r.db.Where("game_id = ?", roomID).Delete(&entity.Question{}).Error
}
