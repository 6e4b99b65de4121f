package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/quizbattle/internal/pkg/errors"
	"github.com/yourusername/quizbattle/internal/service/roomengine"
	"github.com/yourusername/quizbattle/pkg/auth"
)

// RoomHandler serves the game control surface from spec.md §6:
// POST /games, POST /games/{pin}/join, POST /games/{pin}/start, GET /games/{pin}.
// Grounded on this repo's existing quiz_handler.go gin handler conventions.
type RoomHandler struct {
	registry *roomengine.Registry
	tokens   *auth.TokenService
}

func NewRoomHandler(registry *roomengine.Registry, tokens *auth.TokenService) *RoomHandler {
	return &RoomHandler{registry: registry, tokens: tokens}
}

type createGameRequest struct {
	HostName         string `json:"host_name" binding:"required"`
	Topic            string `json:"topic" binding:"required"`
	QuestionsPerTeam int    `json:"questions_per_team" binding:"required"`
	Difficulty       string `json:"difficulty"`
	UserID           *uint  `json:"user_id"`
}

// CreateGame handles POST /games.
func (h *RoomHandler) CreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, host, err := h.registry.CreateRoom(c.Request.Context(), req.HostName, req.Topic, req.Difficulty, req.QuestionsPerTeam, req.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	token, err := h.tokens.IssuePlayerToken(host.ID, room.Pin(), req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue player token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pin":            room.Pin(),
		"host_player_id": host.ID,
		"player_token":   token,
		"state":          room.State(),
	})
}

type joinGameRequest struct {
	Name   string `json:"name" binding:"required"`
	UserID *uint  `json:"user_id"`
}

// JoinGame handles POST /games/{pin}/join.
func (h *RoomHandler) JoinGame(c *gin.Context) {
	pin := normalizePin(c.Param("pin"))

	var req joinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, ok := h.registry.Get(pin)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	player, state, err := room.Join(req.Name, req.UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	token, err := h.tokens.IssuePlayerToken(player.ID, pin, req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue player token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player_id":    player.ID,
		"player_token": token,
		"state":        state,
	})
}

type startGameRequest struct {
	HostPlayerID uint `json:"host_player_id" binding:"required"`
}

// StartGame handles POST /games/{pin}/start.
func (h *RoomHandler) StartGame(c *gin.Context) {
	pin := normalizePin(c.Param("pin"))

	var req startGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, ok := h.registry.Get(pin)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	state, err := room.Start(req.HostPlayerID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetGame handles GET /games/{pin}.
func (h *RoomHandler) GetGame(c *gin.Context) {
	pin := normalizePin(c.Param("pin"))
	room, ok := h.registry.Get(pin)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, room.State())
}

func (h *RoomHandler) handleError(c *gin.Context, err error) {
	c.JSON(apperrors.StatusCode(err), gin.H{"error": err.Error()})
}

func normalizePin(pin string) string {
	return strings.ToUpper(strings.TrimSpace(pin))
}
