package middleware

import (
	"net/http"
	"strings"

	"github.com/Sergecodes/rmusiclines-sub000/internal/db"
	"github.com/Sergecodes/rmusiclines-sub000/internal/models"
	"github.com/Sergecodes/rmusiclines-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"
const UnreadCountKey = "unread_count"

// LoadUser 从 Authorization 头解析 Bearer 令牌并把用户放进上下文。
// 令牌版本对不上说明证书已整体吊销，按未登录处理
func LoadUser(tokens *services.TokenService, notify *services.NotificationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			claims, err := tokens.ParseScoped(strings.TrimPrefix(header, "Bearer "), services.ScopeAccess)
			if err == nil {
				var user models.User
				result := db.DB.Preload("Type").First(&user, claims.UserID)
				if result.Error == nil && user.IsActive && user.TokenVersion == claims.Version {
					c.Set(CheckUserKey, &user)

					count, err := notify.UnreadCount(db.DB, user.ID)
					if err == nil {
						c.Set(UnreadCountKey, count)
					}
				}
			}
		}
		c.Next()
	}
}

// AuthRequired 要求已登录
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "not_authenticated"})
			return
		}
		c.Next()
	}
}

// StaffRequired 要求 staff 身份，须排在 AuthRequired 之后
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet(CheckUserKey).(*models.User)
		if !user.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "not_permitted"})
			return
		}
		c.Next()
	}
}

// ModRequired 要求版主或 staff 身份
func ModRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet(CheckUserKey).(*models.User)
		if !user.IsStaff && !user.Type.IsMod {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "not_permitted"})
			return
		}
		c.Next()
	}
}

// NotSuspended 有在身封禁的用户禁止写操作
func NotSuspended() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet(CheckUserKey).(*models.User)
		suspended, err := services.IsSuspended(db.DB, user.ID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": "internal"})
			return
		}
		if suspended {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "suspended"})
			return
		}
		c.Next()
	}
}
