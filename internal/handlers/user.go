package handlers

import (
	"net/http"
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/db"
	"github.com/Sergecodes/rmusiclines-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	accounts *services.AccountService
}

func NewUserHandler(accounts *services.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// Profile 用户主页，按用户名查
func (h *UserHandler) Profile(c *gin.Context) {
	user, err := services.UserByUsername(db.DB, c.Param("username"))
	if err != nil {
		JSONError(c, err)
		return
	}
	if !user.IsActive {
		JSONError(c, services.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me 当前登录用户
func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentUser(c))
}

type changeUsernameRequest struct {
	Username string `json:"username" binding:"required"`
}

func (h *UserHandler) ChangeUsername(c *gin.Context) {
	var req changeUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	user, err := h.accounts.ChangeUsername(db.DB, CurrentUser(c).ID, req.Username)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type emailChangeRequest struct {
	NewEmail string `json:"new_email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) RequestEmailChange(c *gin.Context) {
	var req emailChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	if err := h.accounts.RequestEmailChange(db.DB, CurrentUser(c).ID, req.NewEmail, req.Password); err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmation_sent"})
}

// ConfirmEmailChange 邮件里的确认链接落到这里
func (h *UserHandler) ConfirmEmailChange(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": "missing_field", "message": "token is required"})
		return
	}
	user, err := h.accounts.ConfirmEmailChange(db.DB, token)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type deleteAccountRequest struct {
	ReallyDelete bool `json:"really_delete"`
}

// DeleteAccount 默认停用（可恢复），really_delete 才物理删除
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	var req deleteAccountRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.accounts.DeleteUser(db.DB, CurrentUser(c).ID, req.ReallyDelete); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Follow(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.FollowUser(db.DB, CurrentUser(c).ID, id); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.UnfollowUser(db.DB, CurrentUser(c).ID, id); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Block(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.BlockUser(db.DB, CurrentUser(c).ID, id); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Unblock(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.accounts.UnblockUser(db.DB, CurrentUser(c).ID, id); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type suspendRequest struct {
	Hours  int    `json:"hours" binding:"required,min=1"`
	Reason string `json:"reason"`
}

// Suspend 版主/管理员封禁用户
func (h *UserHandler) Suspend(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	var req suspendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	suspension, err := h.accounts.Suspend(db.DB, CurrentUser(c).ID, id,
		time.Duration(req.Hours)*time.Hour, req.Reason)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusCreated, suspension)
}

// LiftSuspension 提前终止封禁；really_delete 查询参数决定是否删行
func (h *UserHandler) LiftSuspension(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	reallyDelete := c.Query("really_delete") == "true"
	if err := h.accounts.DeleteSuspension(db.DB, id, reallyDelete); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
