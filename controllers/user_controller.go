package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sweetdelights/bakery-api/logger"
	"github.com/sweetdelights/bakery-api/middleware"
	"github.com/sweetdelights/bakery-api/models"
	"github.com/sweetdelights/bakery-api/repository"
)

// CreateUserRequest represents the request body for adding a staff account
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=admin manager"`
}

// CreateUser handles POST /api/v1/users - admins add staff accounts
func CreateUser(c *gin.Context) {
	ctx := requestContext(c)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErrorDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
		return
	}
	if req.Role == "" {
		req.Role = models.RoleManager
	}

	user, err := userRepository().Create(ctx, req.Username, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this username already exists")
			return
		}
		logger.Error(ctx, "failed to create user", "username", req.Username, "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user")
		return
	}

	logger.Info(ctx, "user created", "user_id", user.ID, "role", user.Role)
	respondData(c, http.StatusCreated, user)
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	ctx := requestContext(c)

	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	user, err := userRepository().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found")
			return
		}
		logger.Error(ctx, "failed to load profile", "user_id", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to retrieve profile")
		return
	}

	respondData(c, http.StatusOK, user)
}
