package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/freight-ops-api/internal/logger"
	"github.com/ajharbinger/freight-ops-api/internal/repository"
	"github.com/ajharbinger/freight-ops-api/internal/services"
)

const authCookie = "auth_token"

// AuthHandler handles authentication operations
type AuthHandler struct {
	authService services.AuthService
	logger      logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService services.AuthService, log logger.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: log}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,notblank"`
}

// RefreshRequest carries the refresh token issued at login
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// setSecureCookie sets a secure HTTP-only cookie
func setSecureCookie(c *gin.Context, name, value string, maxAge int) {
	secure := c.Request.Header.Get("X-Forwarded-Proto") == "https" || c.Request.TLS != nil
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, maxAge, "/", "", secure, true)
}

// Login authenticates a user. The access token is returned in the body and
// also set as an HTTP-only cookie for the dashboard.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	response, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	setSecureCookie(c, authCookie, response.Token, int(time.Until(response.ExpiresAt).Seconds()))
	respond(c, http.StatusOK, response)
}

// Register creates a new user account
func (h *AuthHandler) Register(c *gin.Context) {
	var req repository.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	respond(c, http.StatusCreated, user)
}

// RefreshToken issues a new token pair from a refresh token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	response, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	setSecureCookie(c, authCookie, response.Token, int(time.Until(response.ExpiresAt).Seconds()))
	respond(c, http.StatusOK, response)
}

// Logout clears the auth cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	setSecureCookie(c, authCookie, "", -1)
	respond(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}
