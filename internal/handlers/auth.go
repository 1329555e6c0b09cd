package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"taskflow/backend/internal/services"
	"taskflow/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db          *gorm.DB
	authService services.AuthService
	jobs        *worker.Queue
}

// NewAuthHandler wires the login flow. jobs may be nil; the last-login
// touch is best-effort and login never depends on it.
func NewAuthHandler(db *gorm.DB, authService services.AuthService, jobs *worker.Queue) *AuthHandler {
	return &AuthHandler{db: db, authService: authService, jobs: jobs}
}

type loginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.LoginUser(h.db, input.Username, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	accessToken, refreshToken, err := h.authService.GenerateToken(h.db, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	h.touchLastLogin(user.ID)

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// touchLastLogin queues a background update of the user's last-login
// timestamp. Queue problems are logged and dropped; they must never
// influence the login response.
func (h *AuthHandler) touchLastLogin(userID uuid.UUID) {
	if h.jobs == nil {
		return
	}

	job := worker.NewJob(worker.JobTypeLastActiveTouch, map[string]interface{}{
		"user_id": userID.String(),
		"at":      time.Now().Format(time.RFC3339),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.jobs.Enqueue(ctx, job); err != nil {
		log.Printf("last-login touch not queued for %s: %v", userID, err)
	}
}

type refreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var input refreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accessToken, refreshToken, expiresIn, err := h.authService.RefreshToken(h.db, input.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    expiresIn,
	})
}

// currentUserID pulls the authenticated user out of the request context
// set by the auth middleware, writing the response itself on failure.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user id format"})
		return uuid.Nil, false
	}
	return userID, true
}
