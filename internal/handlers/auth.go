package handlers

import (
	"net/http"
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/db"
	"github.com/Sergecodes/rmusiclines-sub000/internal/models"
	"github.com/Sergecodes/rmusiclines-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	accounts *services.AccountService
	tokens   *services.TokenService
}

func NewAuthHandler(accounts *services.AccountService, tokens *services.TokenService) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens}
}

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country"`
	Gender      string `json:"gender"`
	BirthDate   string `json:"birth_date" binding:"required"` // YYYY-MM-DD
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": "birth_date must be YYYY-MM-DD"})
		return
	}

	user, err := h.accounts.Register(db.DB, services.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Country:     req.Country,
		Gender:      req.Gender,
		BirthDate:   birthDate,
	})
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Activate 邮件里的激活链接落到这里
func (h *AuthHandler) Activate(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": "missing_field", "message": "token is required"})
		return
	}
	user, err := h.accounts.VerifyAccount(db.DB, token)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	user, access, refresh, err := h.accounts.Login(db.DB, req.Username, req.Password)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh 用刷新令牌换新的访问令牌。版本不匹配说明令牌已被吊销
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	claims, err := h.tokens.ParseScoped(req.RefreshToken, services.ScopeRefresh)
	if err != nil {
		JSONError(c, err)
		return
	}

	var user models.User
	if err := db.DB.First(&user, claims.UserID).Error; err != nil {
		JSONError(c, services.ErrNotFound)
		return
	}
	if !user.IsActive || user.TokenVersion != claims.Version {
		JSONError(c, services.ErrInvalidToken)
		return
	}

	access, err := h.tokens.CreateAccessToken(user.ID, user.TokenVersion)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access})
}
