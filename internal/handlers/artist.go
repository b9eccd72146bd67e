package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/db"
	"github.com/Sergecodes/rmusiclines-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

type ArtistHandler struct {
	artists *services.ArtistService
}

func NewArtistHandler(artists *services.ArtistService) *ArtistHandler {
	return &ArtistHandler{artists: artists}
}

type artistRequest struct {
	Name      string   `json:"name"`
	Country   string   `json:"country"`
	Gender    string   `json:"gender"`
	BirthDate string   `json:"birth_date"` // YYYY-MM-DD
	Tags      []string `json:"tags"`
}

func (r *artistRequest) toInput(c *gin.Context) (services.ArtistInput, bool) {
	in := services.ArtistInput{
		Name:    r.Name,
		Country: r.Country,
		Gender:  r.Gender,
		Tags:    r.Tags,
	}
	if r.BirthDate != "" {
		birthDate, err := time.Parse("2006-01-02", r.BirthDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": "birth_date must be YYYY-MM-DD"})
			return in, false
		}
		in.BirthDate = birthDate
	}
	return in, true
}

// Create 建档，仅 staff
func (h *ArtistHandler) Create(c *gin.Context) {
	var req artistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	in, ok := req.toInput(c)
	if !ok {
		return
	}
	artist, err := h.artists.CreateArtist(db.DB, CurrentUser(c), in)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusCreated, artist)
}

// Update 改档，仅 staff
func (h *ArtistHandler) Update(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	var req artistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "invalid", "message": err.Error()})
		return
	}
	in, ok := req.toInput(c)
	if !ok {
		return
	}
	artist, err := h.artists.UpdateArtist(db.DB, CurrentUser(c), id, in)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, artist)
}

func (h *ArtistHandler) Detail(c *gin.Context) {
	artist, err := h.artists.ArtistBySlug(db.DB, c.Param("slug"))
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, artist)
}

// Posts 音乐人主页的帖子时间线
func (h *ArtistHandler) Posts(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	posts, err := h.artists.ArtistPostsNewestFirst(db.DB, id, limit)
	if err != nil {
		JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *ArtistHandler) Follow(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.artists.FollowArtist(db.DB, CurrentUser(c).ID, id); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ArtistHandler) Unfollow(c *gin.Context) {
	id, ok := ParamUint(c, "id")
	if !ok {
		return
	}
	if err := h.artists.UnfollowArtist(db.DB, CurrentUser(c).ID, id); err != nil {
		JSONError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
