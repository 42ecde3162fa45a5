package httpapi

import (
	"errors"
	"net/http"
	"time"

	"outreach-platform/internal/auth"
	"outreach-platform/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h Handlers) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	u, pair, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "accessToken": pair.AccessToken, "refreshToken": pair.RefreshToken})
}

func (h Handlers) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	pair, err := h.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h Handlers) Me(c *gin.Context) {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	u, err := h.Users.Get(c.Request.Context(), uid)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h Handlers) ListUsers(c *gin.Context) {
	us, err := h.Users.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, us)
}

func (h Handlers) CreateUser(c *gin.Context) {
	var req struct {
		Name          string `json:"name"`
		Email         string `json:"email"`
		Password      string `json:"password"`
		Role          string `json:"role"`
		SMSFromNumber string `json:"smsFromNumber,omitempty"`
		VMCallerID    string `json:"vmCallerId,omitempty"`

		SMTPHost   string `json:"smtpHost,omitempty"`
		SMTPPort   int    `json:"smtpPort,omitempty"`
		SMTPUser   string `json:"smtpUser,omitempty"`
		SMTPPass   string `json:"smtpPass,omitempty"`
		SMTPFrom   string `json:"smtpFrom,omitempty"`
		SMTPSecure bool   `json:"smtpSecure,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	if req.Email == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}
	if req.Role == "" {
		req.Role = "bdr"
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	u := user.User{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Email:         req.Email,
		Role:          req.Role,
		PasswordHash:  hash,
		SMSFromNumber: req.SMSFromNumber,
		VMCallerID:    req.VMCallerID,
		SMTP: user.SMTPSettings{
			Host:     req.SMTPHost,
			Port:     req.SMTPPort,
			Username: req.SMTPUser,
			Password: req.SMTPPass,
			From:     req.SMTPFrom,
			Secure:   req.SMTPSecure,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Users.Create(c.Request.Context(), u); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
