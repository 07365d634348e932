package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/observability/logging"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/security"
	"github.com/Jsunwilke/Focal-Point-sub000/internal/infrastructure/tenant"
	"github.com/Jsunwilke/Focal-Point-sub000/pkg/config"
)

// AuthHandlers issues and inspects session tokens.
type AuthHandlers struct {
	registry *tenant.Registry
	logger   *logging.ChanneledLogger
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(registry *tenant.Registry, logger *logging.ChanneledLogger) *AuthHandlers {
	return &AuthHandlers{registry: registry, logger: logger}
}

// LoginRequest represents the structure for login requests
type LoginRequest struct {
	TenantID   string `json:"tenantId" binding:"required"`
	UserID     string `json:"userId" binding:"required"`
	AdminToken string `json:"adminToken" binding:"required"`
	Role       string `json:"role"`
}

// PostLogin handles POST /api/v1/auth/login - exchanges a tenant admin
// token for a session JWT scoped to that tenant.
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if !h.registry.IsActive(req.TenantID) {
		h.logger.Auth().Warn("Login for unknown or inactive tenant", "tenantId", req.TenantID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "tenant not available"})
		return
	}
	if !h.registry.VerifyAdminToken(req.TenantID, req.AdminToken) {
		h.logger.Auth().Warn("Login attempt failed", "tenantId", req.TenantID, "userId", req.UserID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	role := req.Role
	if role == "" {
		role = "member"
	}

	token, err := security.GenerateSessionToken(req.UserID, req.TenantID, role, config.JWTSecret, config.TokenLifetime)
	if err != nil {
		h.logger.Auth().Error("Token generation failed", "tenantId", req.TenantID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
		return
	}

	h.logger.Auth().Info("Login successful", "tenantId", req.TenantID, "userId", req.UserID, "role", role)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     token,
		"role":      role,
		"expiresIn": int64(config.TokenLifetime / time.Second),
	})
}

// GetStatus handles GET /api/v1/auth/status - reports whether the bearer
// token on the request is a valid session token.
func (h *AuthHandlers) GetStatus(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	claims, err := security.ValidateJWT(strings.TrimPrefix(auth, "Bearer "), config.JWTSecret)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	session, err := security.SessionFromClaims(claims)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"userId":        session.UserID,
		"tenantId":      session.TenantID,
		"role":          session.Role,
	})
}
