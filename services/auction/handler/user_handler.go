package handler

import (
	"context"
	"net/http"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	users "auction-house/internal/userService"
	"auction-house/services/auction/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

type UserServiceInterface interface {
	Register(ctx context.Context, in users.RegisterInput) (models.User, error)
	Login(ctx context.Context, username, password string) (users.LoginResult, error)
	Logout(ctx context.Context, actor models.Actor, session models.Session) error
	GetProfile(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, actor models.Actor, userID string, profile models.Profile) (models.User, error)
}

type UserHandler struct {
	service UserServiceInterface
}

func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterHandler handles POST /auth/register
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), users.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Name:     req.Name,
	})
	if err != nil {
		helpers.RespondError(c, "RegisterHandler", err, map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, user, "user registered successfully")
	helpers.LogSuccess("RegisterHandler", "user registered successfully", map[string]any{
		"user_id": user.UserID,
		"role":    user.Role,
	})
}

// LoginHandler handles POST /auth/login
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	res, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		helpers.RespondError(c, "LoginHandler", err, map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusOK, res, "login successful")
	helpers.LogSuccess("LoginHandler", "login successful", map[string]any{"user_id": res.User.UserID})
}

// LogoutHandler handles POST /auth/logout
func (h *UserHandler) LogoutHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c, "LogoutHandler")
	if !ok {
		return
	}
	session, ok := helpers.SessionFromContext(c)
	if !ok {
		helpers.RespondError(c, "LogoutHandler", auctionerrors.ErrUnauthorized, map[string]any{"user_id": actor.UserID})
		return
	}

	if err := h.service.Logout(c.Request.Context(), actor, session); err != nil {
		helpers.RespondError(c, "LogoutHandler", err, map[string]any{"user_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "logged out successfully")
	helpers.LogSuccess("LogoutHandler", "logged out successfully", map[string]any{"user_id": actor.UserID})
}

// ProfileHandler handles GET /auth/user and GET /profile
func (h *UserHandler) ProfileHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c, "ProfileHandler")
	if !ok {
		return
	}

	user, err := h.service.GetProfile(c.Request.Context(), actor.UserID)
	if err != nil {
		helpers.RespondError(c, "ProfileHandler", err, map[string]any{"user_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, user, "profile retrieved successfully")
}

// UpdateProfileHandler handles PUT /profile
func (h *UserHandler) UpdateProfileHandler(c *gin.Context) {
	actor, ok := actorOrAbort(c, "UpdateProfileHandler")
	if !ok {
		return
	}

	var req helpers.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateProfileHandler", err)
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), actor, actor.UserID, req.Profile())
	if err != nil {
		helpers.RespondError(c, "UpdateProfileHandler", err, map[string]any{"user_id": actor.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, user, "profile updated successfully")
	helpers.LogSuccess("UpdateProfileHandler", "profile updated successfully", map[string]any{"user_id": actor.UserID})
}
