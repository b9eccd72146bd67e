package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Sergecodes/rmusiclines-sub000/internal/middleware"
	"github.com/Sergecodes/rmusiclines-sub000/internal/models"
	"github.com/Sergecodes/rmusiclines-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

// CurrentUser 取出中间件放进上下文的登录用户
func CurrentUser(c *gin.Context) *models.User {
	return c.MustGet(middleware.CheckUserKey).(*models.User)
}

// JSONError 把业务错误翻译成统一的 {code, message} 响应。
// 不认识的错误一律 500，避免内部细节泄露
func JSONError(c *gin.Context, err error) {
	var coded *services.CodedError
	if errors.As(err, &coded) {
		c.JSON(coded.Status, gin.H{"code": coded.Code, "message": coded.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"code": "internal", "message": "internal server error"})
}

// ParamUint 解析路径里的数字参数
func ParamUint(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": "invalid " + name})
		return 0, false
	}
	return uint(v), true
}

// PostKindParam 把路径里的帖子类型段翻译成内部枚举
func PostKindParam(c *gin.Context) (models.Kind, bool) {
	switch c.Param("kind") {
	case "artist":
		return models.KindArtistPost, true
	case "non_artist":
		return models.KindNonArtistPost, true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": "invalid post kind"})
		return "", false
	}
}

// PostRefParams 组合类型段和数字 id 成帖子引用
func PostRefParams(c *gin.Context) (models.Ref, bool) {
	kind, ok := PostKindParam(c)
	if !ok {
		return models.Ref{}, false
	}
	id, ok := ParamUint(c, "id")
	if !ok {
		return models.Ref{}, false
	}
	return models.Ref{Kind: kind, ID: id}, true
}
