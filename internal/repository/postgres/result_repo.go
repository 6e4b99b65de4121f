package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/quizbattle/internal/domain/entity"
	"github.com/yourusername/quizbattle/internal/domain/repository"
)

// ResultRepo реализует repository.ResultRepository, backing the rating/
// stats read-model supplemented from original_source (SPEC_FULL.md §4.9).
type ResultRepo struct {
	db *gorm.DB
}

func NewResultRepo(db *gorm.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

func (r *ResultRepo) CreateBatch(results []entity.Result) error {
	if len(results) == 0 {
		return nil
	}
	return r.db.Create(&results).Error
}

func (r *ResultRepo) StatsByUser(userID uint) (gamesFinished int, wins int, err error) {
	var row struct {
		GamesFinished int64
		Wins          int64
	}
	err = r.db.Model(&entity.Result{}).
		Select("COUNT(*) AS games_finished, COUNT(*) FILTER (WHERE won) AS wins").
		Where("user_id = ?", userID).
		Scan(&row).Error
	return int(row.GamesFinished), int(row.Wins), err
}

func (r *ResultRepo) Leaderboard(limit int) ([]repository.LeaderboardRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []repository.LeaderboardRow
	err := r.db.Table("results").
		Select("results.user_id AS user_id, users.username AS username, "+
			"COUNT(*) FILTER (WHERE results.won) AS wins, COUNT(*) AS games_finished").
		Joins("JOIN users ON users.id = results.user_id").
		Where("results.user_id IS NOT NULL").
		Group("results.user_id, users.username").
		Order("wins DESC, games_finished DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
