package handlers

import (
	"net/http"

	"github.com/Sergecodes/rmusiclines-sub000/internal/db"
	"github.com/Sergecodes/rmusiclines-sub000/internal/models"
	"github.com/Sergecodes/rmusiclines-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notify *services.NotificationService
}

func NewNotificationHandler(notify *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notify: notify}
}

// List 通知列表，filter 查询参数切分视图
func (h *NotificationHandler) List(c *gin.Context) {
	userID := CurrentUser(c).ID

	var (
		notifications []models.Notification
		err           error
	)
	switch c.DefaultQuery("filter", "all") {
	case "all":
		notifications, err = h.notify.All(db.DB, userID)
	case "unread":
		notifications, err = h.notify.Unread(db.DB, userID)
	case "read":
		notifications, err = h.notify.Read(db.DB, userID)
	case "deleted":
		notifications, err = h.notify.Deleted(db.DB, userID)
	case "active":
		notifications, err = h.notify.Active(db.DB, userID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": "unknown filter"})
		return
	}
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notify.UnreadCount(db.DB, CurrentUser(c).ID)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *NotificationHandler) Read(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.notify.MarkAsRead(db.DB, CurrentUser(c).ID, id); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) Unread(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.notify.MarkAsUnread(db.DB, CurrentUser(c).ID, id); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) ReadAll(c *gin.Context) {
	if err := h.notify.MarkAllAsRead(db.DB, CurrentUser(c).ID); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.notify.Delete(db.DB, CurrentUser(c).ID, id); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAll 清空自己的通知（软删模式下打标记）
func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	if err := h.notify.MarkAsDeleted(db.DB, CurrentUser(c).ID); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
