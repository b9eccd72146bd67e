package models

import (
	"time"
)

// Comment 帖子评论
type Comment struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	PostKind Kind `gorm:"size:20;not null;index:idx_comment_post" json:"post_kind"`
	PostID   uint `gorm:"not null;index:idx_comment_post" json:"post_id"`
	PosterID uint `gorm:"not null;index" json:"poster_id"`
	// 父评论为空表示根评论（楼主层）
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	Body      string    `gorm:"size:2000;not null" json:"body"`
	NumLikes  int       `gorm:"default:0" json:"num_likes"`
	CreatedOn time.Time `gorm:"autoCreateTime" json:"created_on"`
}

// IsAncestor 是否为根评论
func (c *Comment) IsAncestor() bool { return c.ParentID == nil }

// Ref 返回指向本评论的多态引用
func (c *Comment) Ref() Ref { return Ref{Kind: KindComment, ID: c.ID} }

// CommentLike 评论点赞，(评论, 用户) 唯一
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;index;uniqueIndex:idx_comment_like_pair" json:"comment_id"`
	LikerID   uint      `gorm:"not null;uniqueIndex:idx_comment_like_pair" json:"liker_id"`
	CreatedAt time.Time `json:"created_at"`
}
