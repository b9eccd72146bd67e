package handlers

import (
	"net/http"

	"github.com/Sergecodes/rmusiclines-sub000/internal/db"
	"github.com/Sergecodes/rmusiclines-sub000/internal/models"
	"github.com/Sergecodes/rmusiclines-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

type FlagHandler struct {
	flags *services.FlagService
}

func NewFlagHandler(flags *services.FlagService) *FlagHandler {
	return &FlagHandler{flags: flags}
}

// targetRefParams 路径里的举报对象。可举报的只有帖子、评论和用户
func targetRefParams(c *gin.Context) (models.Ref, bool) {
	var kind models.Kind
	switch c.Param("kind") {
	case "artist_post":
		kind = models.KindArtistPost
	case "non_artist_post":
		kind = models.KindNonArtistPost
	case "comment":
		kind = models.KindComment
	case "user":
		kind = models.KindUser
	default:
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": "invalid target kind"})
		return models.Ref{}, false
	}
	id, ok := ParamUint(c, "id")
	if !ok {
		return models.Ref{}, false
	}
	return models.Ref{Kind: kind, ID: id}, true
}

type flagRequest struct {
	Reason string `json:"reason" binding:"required"`
	Info   string `json:"info"`
}

// Create 举报一个对象。同一人对同一对象只能举报一次
func (h *FlagHandler) Create(c *gin.Context) {
	target, ok := targetRefParams(c)
	if !ok {
		return
	}
	var req flagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	flag, err := h.flags.CreateInstance(db.DB, CurrentUser(c).ID, target,
		models.FlagReason(req.Reason), req.Info)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flag)
}

// Delete 撤回自己的举报
func (h *FlagHandler) Delete(c *gin.Context) {
	target, ok := targetRefParams(c)
	if !ok {
		return
	}
	if err := h.flags.DeleteInstance(db.DB, CurrentUser(c).ID, target); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List 版主查看聚合举报，按状态过滤，举报数多的在前
func (h *FlagHandler) List(c *gin.Context) {
	q := db.DB.Model(&models.Flag{}).Order("count DESC")
	if state := c.Query("state"); state != "" {
		q = q.Where("state = ?", state)
	}

	var flags []models.Flag
	if err := q.Limit(100).Find(&flags).Error; err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, flags)
}

// Instances 某条聚合举报下的明细，新的在前
func (h *FlagHandler) Instances(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	instances, err := h.flags.InstancesNewestFirst(db.DB, id)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, instances)
}

type toggleRequest struct {
	State string `json:"state" binding:"required"` // REJECTED 或 RESOLVED
}

// Toggle 版主裁决：驳回或落实，再调一次同样的状态则撤销裁决
func (h *FlagHandler) Toggle(c *gin.Context) {
	target, ok := targetRefParams(c)
	if !ok {
		return
	}
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	flag, err := h.flags.ToggleState(db.DB, target,
		models.FlagState(req.State), CurrentUser(c).ID)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, flag)
}
