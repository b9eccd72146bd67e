package handlers

import (
	"net/http"

	"github.com/Sergecodes/rmusiclines-sub000/internal/db"
	"github.com/Sergecodes/rmusiclines-sub000/internal/models"
	"github.com/Sergecodes/rmusiclines-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type createPostRequest struct {
	Body      string `json:"body" binding:"required"`
	Language  string `json:"language"`
	IsPrivate bool   `json:"is_private"`
	// 音乐人帖专用
	ArtistID   uint   `json:"artist_id"`
	MusicTitle string `json:"music_title"`
}

func (h *PostHandler) Create(c *gin.Context) {
	kind, ok := PostKindParam(c)
	if !ok {
		return
	}
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}

	in := services.PostInput{
		Body:       req.Body,
		Language:   req.Language,
		IsPrivate:  req.IsPrivate,
		ArtistID:   req.ArtistID,
		MusicTitle: req.MusicTitle,
	}
	userID := CurrentUser(c).ID

	if kind == models.KindArtistPost {
		if req.ArtistID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"code": "missing_field", "message": "artist_id is required"})
			return
		}
		post, err := h.posts.CreateArtistPost(db.DB, userID, in)
		if err != nil {
			JSONError(c, err)
			return
		}
		c.JSON(http.StatusCreated, post)
		return
	}

	post, err := h.posts.CreateNonArtistPost(db.DB, userID, in)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Detail 按短 UUID 查帖，浏览数自增
func (h *PostHandler) Detail(c *gin.Context) {
	kind, ok := PostKindParam(c)
	if !ok {
		return
	}
	uid := c.Param("uid")

	if kind == models.KindArtistPost {
		post, err := h.posts.ArtistPostByUID(db.DB, uid)
		if err != nil {
			JSONError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
		return
	}

	post, err := h.posts.NonArtistPostByUID(db.DB, uid)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Delete(c *gin.Context) {
	ref, ok := PostRefParams(c)
	if !ok {
		return
	}
	if err := h.posts.DeletePost(db.DB, CurrentUser(c), ref); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type rateRequest struct {
	Stars int `json:"stars" binding:"required"`
}

func (h *PostHandler) Rate(c *gin.Context) {
	ref, ok := PostRefParams(c)
	if !ok {
		return
	}
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	if err := h.posts.RatePost(db.DB, CurrentUser(c).ID, ref, req.Stars); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) Unrate(c *gin.Context) {
	ref, ok := PostRefParams(c)
	if !ok {
		return
	}
	if err := h.posts.DeleteRating(db.DB, CurrentUser(c).ID, ref); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type repostRequest struct {
	Comment string `json:"comment"`
}

func (h *PostHandler) Repost(c *gin.Context) {
	ref, ok := PostRefParams(c)
	if !ok {
		return
	}
	var req repostRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.posts.RepostPost(db.DB, CurrentUser(c).ID, ref, req.Comment); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) Unrepost(c *gin.Context) {
	ref, ok := PostRefParams(c)
	if !ok {
		return
	}
	if err := h.posts.DeleteRepost(db.DB, CurrentUser(c).ID, ref); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) Bookmark(c *gin.Context) {
	ref, ok := PostRefParams(c)
	if !ok {
		return
	}
	if err := h.posts.BookmarkPost(db.DB, CurrentUser(c).ID, ref); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) Unbookmark(c *gin.Context) {
	ref, ok := PostRefParams(c)
	if !ok {
		return
	}
	if err := h.posts.UnbookmarkPost(db.DB, CurrentUser(c).ID, ref); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Download 记录下载，非会员按自然月限量
func (h *PostHandler) Download(c *gin.Context) {
	ref, ok := PostRefParams(c)
	if !ok {
		return
	}
	if err := h.posts.DownloadPost(db.DB, CurrentUser(c), ref); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createCommentRequest struct {
	Body     string `json:"body" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

func (h *PostHandler) CreateComment(c *gin.Context) {
	ref, ok := PostRefParams(c)
	if !ok {
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	comment, err := h.posts.CreateComment(db.DB, CurrentUser(c).ID, ref, req.ParentID, req.Body)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *PostHandler) DeleteComment(c *gin.Context) {
	id, ok := ParamUint(c, "cid")
	if !ok {
		return
	}
	if err := h.posts.DeleteComment(db.DB, CurrentUser(c), id); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) LikeComment(c *gin.Context) {
	id, ok := ParamUint(c, "cid")
	if !ok {
		return
	}
	if err := h.posts.LikeComment(db.DB, CurrentUser(c).ID, id); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) UnlikeComment(c *gin.Context) {
	id, ok := ParamUint(c, "cid")
	if !ok {
		return
	}
	if err := h.posts.UnlikeComment(db.DB, CurrentUser(c).ID, id); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type pinCommentRequest struct {
	CommentID *uint `json:"comment_id"` // null 表示取消置顶
}

func (h *PostHandler) PinComment(c *gin.Context) {
	ref, ok := PostRefParams(c)
	if !ok {
		return
	}
	var req pinCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	if err := h.posts.PinComment(db.DB, CurrentUser(c).ID, ref, req.CommentID); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type pinPostRequest struct {
	ArtistPostID    *uint `json:"artist_post_id"`
	NonArtistPostID *uint `json:"non_artist_post_id"`
}

// PinPost 把自己的某个帖子置顶到主页，两个都空表示取消置顶
func (h *PostHandler) PinPost(c *gin.Context) {
	var req pinPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	if err := h.posts.PinPost(db.DB, CurrentUser(c).ID, req.ArtistPostID, req.NonArtistPostID); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
