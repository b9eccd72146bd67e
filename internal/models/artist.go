package models

import (
	"time"
)

// Artist 音乐人实体，只有 staff 能创建
type Artist struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	// slug 创建时派生一次，之后不可变
	Slug      string    `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	Country   string    `gorm:"size:60" json:"country"`
	Gender    string    `gorm:"size:1" json:"gender"`
	BirthDate time.Time `json:"birth_date"`

	NumFollowers int `gorm:"default:0" json:"num_followers"`
	NumPosts     int `gorm:"default:0" json:"num_posts"`

	Tags []ArtistTag `gorm:"many2many:artist_tag_links" json:"tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArtistTag 音乐人标签词表，名称大小写不敏感唯一
type ArtistTag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:60;not null" json:"name"`
	NameLower string    `gorm:"size:60;uniqueIndex;not null" json:"-"`
	Slug      string    `gorm:"size:80;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// ArtistFollow 用户关注音乐人
type ArtistFollow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;index;uniqueIndex:idx_artist_follow_pair" json:"follower_id"`
	ArtistID   uint      `gorm:"not null;index;uniqueIndex:idx_artist_follow_pair" json:"artist_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Hashtag 帖子话题词表，名称大小写不敏感唯一
type Hashtag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	NameLower string    `gorm:"size:100;uniqueIndex;not null" json:"-"`
	Slug      string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// PostHashtag 帖子与话题的关联
type PostHashtag struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	PostKind  Kind `gorm:"size:20;not null;uniqueIndex:idx_post_hashtag" json:"post_kind"`
	PostID    uint `gorm:"not null;uniqueIndex:idx_post_hashtag" json:"post_id"`
	HashtagID uint `gorm:"not null;index;uniqueIndex:idx_post_hashtag" json:"hashtag_id"`
}

// PostMention 帖子里 @ 到的用户
type PostMention struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	PostKind Kind `gorm:"size:20;not null;uniqueIndex:idx_post_mention" json:"post_kind"`
	PostID   uint `gorm:"not null;uniqueIndex:idx_post_mention" json:"post_id"`
	UserID   uint `gorm:"not null;index;uniqueIndex:idx_post_mention" json:"user_id"`
}
