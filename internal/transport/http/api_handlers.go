package http

import (
	"errors"
	stdhttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirerelay-server/internal/auth"
)

// APIHandlers bundles the REST endpoints that mint and inspect tokens.
type APIHandlers struct {
	auth        *auth.Service
	allowGuests bool
	log         *zerolog.Logger
}

// NewAPIHandlers creates handlers backed by the given auth service.
func NewAPIHandlers(authService *auth.Service, allowGuests bool, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		auth:        authService,
		allowGuests: allowGuests,
		log:         logger,
	}
}

// AuthRequest is the payload for register and login.
type AuthRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries a freshly minted token and the identity it names.
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Register handles POST /api/register.
func (h *APIHandlers) Register(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(stdhttp.StatusConflict, gin.H{"error": "username already taken"})
		case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(stdhttp.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error().Err(err).Msg("register user")
			c.JSON(stdhttp.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(stdhttp.StatusCreated, AuthResponse{Token: token, Username: strings.TrimSpace(req.Username)})
}

// Login handles POST /api/login.
func (h *APIHandlers) Login(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(stdhttp.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Msg("login user")
		c.JSON(stdhttp.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(stdhttp.StatusOK, AuthResponse{Token: token, Username: strings.TrimSpace(req.Username)})
}

// GuestLogin handles POST /api/guest. Guests get a throwaway identity and a
// token that is their only credential.
func (h *APIHandlers) GuestLogin(c *gin.Context) {
	if !h.allowGuests {
		c.JSON(stdhttp.StatusForbidden, gin.H{"error": "guest access disabled"})
		return
	}

	token, username, err := h.auth.CreateGuestUser(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("create guest user")
		c.JSON(stdhttp.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(stdhttp.StatusOK, AuthResponse{Token: token, Username: username})
}

// Me handles GET /api/me. It reports the identity behind the presented token.
func (h *APIHandlers) Me(c *gin.Context) {
	claims, exists := c.Get(contextKeyClaims)
	if !exists {
		c.JSON(stdhttp.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	tokenClaims, ok := claims.(*auth.Claims)
	if !ok {
		c.JSON(stdhttp.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(stdhttp.StatusOK, gin.H{
		"username": tokenClaims.Username,
		"is_guest": tokenClaims.IsGuest,
	})
}
