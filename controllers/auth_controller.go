package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sweetdelights/bakery-api/config"
	"github.com/sweetdelights/bakery-api/logger"
	"github.com/sweetdelights/bakery-api/middleware"
	"github.com/sweetdelights/bakery-api/repository"
)

// LoginRequest represents the request body for signing in
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/v1/auth/login - checks credentials and starts a session
func Login(c *gin.Context) {
	ctx := requestContext(c)
	cfg := config.GetConfig()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return
	}

	user, err := userRepository().Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			logger.Info(ctx, "login failed", "username", req.Username, "client_ip", c.ClientIP())
			respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
			return
		}
		logger.Error(ctx, "login lookup failed", "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to sign in")
		return
	}

	token, expires, err := middleware.IssueToken(cfg, user, now())
	if err != nil {
		logger.Error(ctx, "failed to issue session token", "error", err)
		respondError(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to sign in")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.SessionCookieName, token, cfg.SessionTTLHours*3600, "/", "", cfg.IsProduction(), true)

	logger.Info(ctx, "user signed in", "user_id", user.ID, "role", user.Role)
	respondData(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expires,
		"user":       user,
	})
}

// Logout handles POST /api/v1/auth/logout - clears the session cookie
func Logout(c *gin.Context) {
	cfg := config.GetConfig()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.SessionCookieName, "", -1, "/", "", cfg.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}
