package handlers

import (
	"net/http"

	"MediCore/middlewares"
	"MediCore/models"
	"MediCore/services"
	"MediCore/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service services.AuthService
}

func NewAuthHandler(service services.AuthService) *AuthHandler {
	if service == nil {
		panic("handlers: NewAuthHandler requires an auth service")
	}
	return &AuthHandler{service: service}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// Register creates a patient account.
func (h *AuthHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	user, err := h.service.Register(c.Request.Context(), input)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusCreated, user)
}

// CreateUser lets an administrator create an account with any role.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var input services.RegisterInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	user, err := h.service.CreateUser(c.Request.Context(), input)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusCreated, user)
}

// Login authenticates the user, sets the auth cookies and returns the tokens.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	utils.SetAuthCookies(c, result.AccessToken, result.RefreshToken)
	middlewares.RespondJSON(c, http.StatusOK, result)
}

// RefreshToken accepts the refresh token from the body or the refresh cookie.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(utils.RefreshTokenCookie)
	}
	result, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	utils.SetAuthCookies(c, result.AccessToken, result.RefreshToken)
	middlewares.RespondJSON(c, http.StatusOK, result)
}

func (h *AuthHandler) Logoff(c *gin.Context) {
	utils.ClearAuthCookies(c)
	middlewares.RespondMessage(c, http.StatusOK, "logged off")
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	user, err := h.service.GetProfile(c.Request.Context(), actor.UserID)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	var input services.UpdateProfileInput
	if err := bindJSON(c, &input); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), actor.UserID, input)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, user)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	var req changePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), actor.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondMessage(c, http.StatusOK, "password changed")
}

// RequestPasswordReset always answers with the same message so callers
// cannot learn which emails have accounts.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req resetRequest
	if err := bindJSON(c, &req); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	message, err := h.service.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondMessage(c, http.StatusOK, message)
}

func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req resetConfirmRequest
	if err := bindJSON(c, &req); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	if err := h.service.ConfirmPasswordReset(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondMessage(c, http.StatusOK, "password has been reset")
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	page, err := pageFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	users, err := h.service.ListUsers(c.Request.Context(), page)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, users)
}

func (h *AuthHandler) GetPermissions(c *gin.Context) {
	actor, err := actorFrom(c)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	permissions, err := h.service.GetUserPermissions(c.Request.Context(), actor.UserID)
	if err != nil {
		middlewares.RespondError(c, err)
		return
	}
	if permissions == nil {
		permissions = []models.Permission{}
	}
	middlewares.RespondJSON(c, http.StatusOK, permissions)
}
