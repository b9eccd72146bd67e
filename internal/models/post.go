package models

import (
	"time"
)

// BasePost 两种帖子共享的字段，嵌入到具体帖子表里
type BasePost struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// 20 位 URL 安全短 UUID，对外暴露的唯一标识
	UID      string `gorm:"uniqueIndex;size:20;not null" json:"uid"`
	PosterID uint   `gorm:"not null;index" json:"poster_id"`
	Language string `gorm:"size:8;default:'en'" json:"language"`
	Body     string `gorm:"size:500;not null" json:"body"`
	// 渲染后的正文 HTML（已消毒）
	BodyHTML  string `gorm:"type:text" json:"body_html"`
	IsPrivate bool   `gorm:"default:false" json:"is_private"`

	PinnedCommentID *uint `json:"pinned_comment_id"`

	// 冗余计数
	NumStars          int `gorm:"default:0" json:"num_stars"`
	NumBookmarks      int `gorm:"default:0" json:"num_bookmarks"`
	NumViews          int `gorm:"default:0" json:"num_views"`
	NumDownloads      int `gorm:"default:0" json:"num_downloads"`
	NumSimpleReposts  int `gorm:"default:0" json:"num_simple_reposts"`
	NumCommentReposts int `gorm:"default:0" json:"num_comment_reposts"`
	NumComments       int `gorm:"default:0" json:"num_comments"`

	CreatedOn time.Time `gorm:"autoCreateTime;index:,sort:desc" json:"created_on"`
}

// NumReposts 派生值：简单转发 + 带评转发
func (p *BasePost) NumReposts() int {
	return p.NumSimpleReposts + p.NumCommentReposts
}

// ArtistPost 署名音乐人的帖子
type ArtistPost struct {
	BasePost
	ArtistID   uint   `gorm:"not null;index" json:"artist_id"`
	Artist     Artist `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"artist"`
	MusicTitle string `gorm:"size:100" json:"music_title"`
}

// NonArtistPost 普通帖子
type NonArtistPost struct {
	BasePost
}

// Kind 返回帖子的引用类型
func (ArtistPost) Kind() Kind    { return KindArtistPost }
func (NonArtistPost) Kind() Kind { return KindNonArtistPost }

// Ref 返回指向本帖的多态引用
func (p *ArtistPost) Ref() Ref    { return Ref{Kind: KindArtistPost, ID: p.ID} }
func (p *NonArtistPost) Ref() Ref { return Ref{Kind: KindNonArtistPost, ID: p.ID} }

// PostPhoto 帖子照片，一帖最多 4 张（与视频互斥）
type PostPhoto struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostKind  Kind      `gorm:"size:20;not null;index:idx_photo_post" json:"post_kind"`
	PostID    uint      `gorm:"not null;index:idx_photo_post" json:"post_id"`
	Filename  string    `gorm:"not null" json:"filename"`
	Mimetype  string    `gorm:"size:30;not null" json:"mimetype"`
	RelPath   string    `gorm:"not null" json:"rel_path"` // 存储根目录下的相对路径
	Width     int       `gorm:"not null" json:"width"`
	Height    int       `gorm:"not null" json:"height"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// PostVideo 帖子视频，一帖最多一个（与照片互斥）
type PostVideo struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostKind  Kind      `gorm:"size:20;not null;uniqueIndex:idx_video_post" json:"post_kind"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_video_post" json:"post_id"`
	Filename  string    `gorm:"not null" json:"filename"`
	Mimetype  string    `gorm:"size:30;not null" json:"mimetype"`
	RelPath   string    `gorm:"not null" json:"rel_path"`
	Duration  float64   `gorm:"not null" json:"duration"` // 秒
	Width     int       `gorm:"not null" json:"width"`
	Height    int       `gorm:"not null" json:"height"`
	CreatedAt time.Time `json:"created_at"`
}

// Rating 评分，(帖子, 评分人) 唯一，星数只允许 1/3/5
type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostKind  Kind      `gorm:"size:20;not null;uniqueIndex:idx_rating_pair" json:"post_kind"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_rating_pair" json:"post_id"`
	RaterID   uint      `gorm:"not null;index;uniqueIndex:idx_rating_pair" json:"rater_id"`
	NumStars  int       `gorm:"not null" json:"num_stars"`
	CreatedAt time.Time `json:"created_at"`
}

// Repost 转发，comment 非空为带评转发，空为简单转发
type Repost struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostKind   Kind      `gorm:"size:20;not null;uniqueIndex:idx_repost_pair" json:"post_kind"`
	PostID     uint      `gorm:"not null;uniqueIndex:idx_repost_pair" json:"post_id"`
	ReposterID uint      `gorm:"not null;index;uniqueIndex:idx_repost_pair" json:"reposter_id"`
	Comment    string    `gorm:"size:500" json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsSimple 是否为不带评论的简单转发
func (r *Repost) IsSimple() bool { return r.Comment == "" }

// Bookmark 收藏，(帖子, 用户) 唯一
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostKind  Kind      `gorm:"size:20;not null;uniqueIndex:idx_bookmark_pair" json:"post_kind"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_pair" json:"post_id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_bookmark_pair" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Download 下载历史，(帖子, 用户) 唯一，只增不减，按月统计配额
type Download struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostKind  Kind      `gorm:"size:20;not null;uniqueIndex:idx_download_pair" json:"post_kind"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_download_pair" json:"post_id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_download_pair" json:"user_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
