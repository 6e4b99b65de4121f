package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/quizbattle/internal/pkg/errors"
	"github.com/yourusername/quizbattle/internal/service/identity"
)

// IdentityHandler serves /auth/register, /auth/login, /auth/logout (spec.md
// §6), the concrete default implementation of the opaque identity service
// the engine itself never depends on. Grounded on this repo's existing
// auth_handler.go request/response DTO conventions, trimmed of OAuth and
// email verification.
type IdentityHandler struct {
	identity *identity.Service
}

func NewIdentityHandler(svc *identity.Service) *IdentityHandler {
	return &IdentityHandler{identity: svc}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /auth/register.
func (h *IdentityHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.identity.Register(req.Username, req.Password)
	if err != nil {
		c.JSON(apperrors.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"user_id": user.ID, "username": user.Username})
}

// Login handles POST /auth/login.
func (h *IdentityHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.identity.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(apperrors.StatusCode(err), gin.H{"error": err.Error()})
		return
	}

	setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"user_id": user.ID, "username": user.Username})
}

// Logout handles POST /auth/logout.
func (h *IdentityHandler) Logout(c *gin.Context) {
	c.SetCookie("session_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func setSessionCookie(c *gin.Context, token string) {
	const maxAge = 12 * 60 * 60
	c.SetCookie("session_token", token, maxAge, "/", "", false, true)
}
