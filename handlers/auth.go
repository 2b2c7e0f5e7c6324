package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/models"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/tokens"
	"github.com/mhc-gc/mhc-site/backend/go-api/internal/users"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/logger"
	"github.com/mhc-gc/mhc-site/backend/go-api/pkg/middleware"
)

// LoginRequest is the body of both login endpoints.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Success      bool            `json:"success"`
	User         models.Identity `json:"user"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	ExpiresIn    int64           `json:"expiresIn"`
}

// RefreshRequest is the body of POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authenticator func(ctx context.Context, email, password string) (*models.Identity, error)

// AuthHandler holds dependencies
type AuthHandler struct {
	tokens   *tokens.Service
	users    *users.Service
	adminTTL time.Duration
}

// NewAuthHandler builds the handler. adminTTL is the access token lifetime
// for admin sessions; zero uses the default.
func NewAuthHandler(t *tokens.Service, u *users.Service, adminTTL time.Duration) *AuthHandler {
	if adminTTL <= 0 {
		adminTTL = time.Hour
	}
	return &AuthHandler{tokens: t, users: u, adminTTL: adminTTL}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	h.login(c, h.users.Authenticate, h.tokens.AccessTTL())
}

// AdminLogin handles POST /api/auth/admin-login. Only allowlisted admin
// accounts get a session.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	h.login(c, h.users.AuthenticateAdmin, h.adminTTL)
}

func (h *AuthHandler) login(c *gin.Context, auth authenticator, ttl time.Duration) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	id, err := auth(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		logger.Infow("login rejected", "path", c.FullPath(), "client", middleware.ClientKey(c))
		fail(c, http.StatusUnauthorized, msgInvalidCreds)
		return
	}
	if err != nil {
		logger.Errorw("login lookup failed", "path", c.FullPath(), "err", err)
		fail(c, http.StatusInternalServerError, "Authentication failed")
		return
	}

	pair, err := h.tokens.IssueWithTTL(*id, ttl)
	if err != nil {
		logger.Errorw("token issue failed", "uid", id.ID, "err", err)
		fail(c, http.StatusInternalServerError, "Authentication failed")
		return
	}
	logger.Infow("login succeeded", "uid", id.ID, "role", id.Role)
	c.JSON(http.StatusOK, LoginResponse{
		Success:      true,
		User:         *id,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// Refresh exchanges a refresh token for a new access token built from the
// account's current state.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		fail(c, http.StatusBadRequest, "Refresh token is required")
		return
	}

	access, err := h.tokens.Refresh(c.Request.Context(), req.RefreshToken, h.users.Lookup)
	if errors.Is(err, tokens.ErrInvalidToken) {
		fail(c, http.StatusUnauthorized, msgInvalidCreds)
		return
	}
	if err != nil {
		logger.Errorw("refresh failed", "err", err)
		fail(c, http.StatusInternalServerError, "Token refresh failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"accessToken": access,
		"expiresIn":   int64(h.tokens.AccessTTL() / time.Second),
	})
}

// Me returns the verified identity of the caller.
func (h *AuthHandler) Me(c *gin.Context) {
	id, found := middleware.IdentityFrom(c)
	if !found {
		fail(c, http.StatusUnauthorized, msgInvalidCreds)
		return
	}
	ok(c, "", gin.H{"user": id})
}

// Logout revokes the caller's access token and, when the body carries one,
// its refresh token. Both stay revoked until they would have expired.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, msgInvalidBody)
			return
		}
	}
	// refresh first, so a bad refresh token leaves the session intact
	var raw []string
	if t := strings.TrimSpace(req.RefreshToken); t != "" {
		raw = append(raw, t)
	}
	raw = append(raw, tokens.ExtractBearer(c.GetHeader("Authorization")))
	for _, t := range raw {
		err := h.tokens.Revoke(c.Request.Context(), t)
		if errors.Is(err, tokens.ErrInvalidToken) {
			fail(c, http.StatusUnauthorized, msgInvalidCreds)
			return
		}
		if err != nil {
			logger.Errorw("logout failed", "err", err)
			fail(c, http.StatusInternalServerError, "Logout failed")
			return
		}
	}
	id, _ := middleware.IdentityFrom(c)
	logger.Infow("logout", "uid", id.ID)
	ok(c, "Logged out", nil)
}
