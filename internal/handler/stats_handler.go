package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizbattle/internal/domain/repository"
	apperrors "github.com/yourusername/quizbattle/internal/pkg/errors"
)

// statsCache is the read-through cache this handler sits on top of,
// satisfied by internal/repository/redis.CacheRepo. A nil statsCache
// (handler built without one) just skips caching.
type statsCache interface {
	GetJSON(key string, dest interface{}) error
	SetJSON(key string, value interface{}, expiration time.Duration) error
}

// ratingCacheTTL bounds how stale the leaderboard and per-user stats
// views are allowed to get; both are derived from finished-game Result
// rows that only change when a room finishes, so a short TTL is plenty.
const ratingCacheTTL = 30 * time.Second

// StatsHandler serves the rating/stats read-model supplemented from
// original_source (SPEC_FULL.md §4.9): GET /users/{id}/stats, GET
// /rating/data. It is a pure read-model over finished-game Result rows;
// the live engine never reads it back. Reads are fronted by a short-TTL
// Redis cache (SPEC_FULL.md §4.8) since both queries scan/aggregate
// across all finished games.
type StatsHandler struct {
	results repository.ResultRepository
	cache   statsCache
}

func NewStatsHandler(results repository.ResultRepository, cache statsCache) *StatsHandler {
	return &StatsHandler{results: results, cache: cache}
}

type userStatsView struct {
	UserID        uint `json:"user_id"`
	GamesFinished int  `json:"games_finished"`
	Wins          int  `json:"wins"`
}

// UserStats handles GET /users/{id}/stats.
func (h *StatsHandler) UserStats(c *gin.Context) {
	userIDVal, exists := c.Get("id")
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	userID := userIDVal.(uint)

	cacheKey := fmt.Sprintf("stats:user:%d", userID)
	var view userStatsView
	if h.cache != nil && h.cache.GetJSON(cacheKey, &view) == nil {
		c.JSON(http.StatusOK, view)
		return
	}

	gamesFinished, wins, err := h.results.StatsByUser(userID)
	if err != nil {
		c.JSON(apperrors.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	view = userStatsView{UserID: userID, GamesFinished: gamesFinished, Wins: wins}
	if h.cache != nil {
		_ = h.cache.SetJSON(cacheKey, view, ratingCacheTTL)
	}
	c.JSON(http.StatusOK, view)
}

// RatingData handles GET /rating/data.
func (h *StatsHandler) RatingData(c *gin.Context) {
	const cacheKey = "stats:leaderboard"
	var rows []repository.LeaderboardRow
	if h.cache != nil && h.cache.GetJSON(cacheKey, &rows) == nil {
		c.JSON(http.StatusOK, gin.H{"rows": rows})
		return
	}

	rows, err := h.results.Leaderboard(50)
	if err != nil {
		c.JSON(apperrors.StatusCode(err), gin.H{"error": err.Error()})
		return
	}
	if h.cache != nil {
		_ = h.cache.SetJSON(cacheKey, rows, ratingCacheTTL)
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}
