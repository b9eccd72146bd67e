package models

import "fmt"

// Kind 实体类型的封闭枚举，用于多态引用
type Kind string

const (
	KindUser          Kind = "user"
	KindArtist        Kind = "artist"
	KindArtistPost    Kind = "artist_post"
	KindNonArtistPost Kind = "non_artist_post"
	KindComment       Kind = "comment"
)

// Ref 多态引用 (类型 + ID)，通知和举报都用它指向任意实体
// Kind 为空表示引用不存在
type Ref struct {
	Kind Kind `gorm:"size:20" json:"kind"`
	ID   uint `json:"id"`
}

// IsZero 判断引用是否为空
func (r Ref) IsZero() bool {
	return r.Kind == "" && r.ID == 0
}

// IsPost 判断引用是否指向帖子（两种帖子之一）
func (r Ref) IsPost() bool {
	return r.Kind == KindArtistPost || r.Kind == KindNonArtistPost
}

func (r Ref) String() string {
	if r.IsZero() {
		return "<nil>"
	}
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// UserRef 构造指向用户的引用
func UserRef(id uint) Ref { return Ref{Kind: KindUser, ID: id} }

// ArtistRef 构造指向音乐人的引用
func ArtistRef(id uint) Ref { return Ref{Kind: KindArtist, ID: id} }

// PostRef 根据帖子类型构造引用
func PostRef(kind Kind, id uint) Ref { return Ref{Kind: kind, ID: id} }

// CommentRef 构造指向评论的引用
func CommentRef(id uint) Ref { return Ref{Kind: KindComment, ID: id} }
