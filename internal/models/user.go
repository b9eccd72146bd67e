package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:15;not null" json:"username"`
	// 用户名小写副本，用于大小写不敏感的唯一约束和查询
	UsernameLower string    `gorm:"size:15;uniqueIndex;not null" json:"-"`
	Email         string    `gorm:"index;not null" json:"email"`
	Password      string    `gorm:"not null" json:"-"` // bcrypt Hash
	DisplayName   string    `gorm:"size:50" json:"display_name"`
	Country       string    `gorm:"size:2" json:"country"` // ISO 3166-1 国家码
	BirthDate     time.Time `json:"birth_date"`
	Bio           string    `gorm:"size:300" json:"bio"`
	Gender        string    `gorm:"size:1" json:"gender"` // M/F/O
	ProfileImage  string    `json:"profile_image"`        // 相对存储路径
	CoverImage    string    `json:"cover_image"`

	IsActive    bool `gorm:"default:true;index" json:"is_active"`
	IsStaff     bool `gorm:"default:false" json:"is_staff"`
	IsSuperuser bool `gorm:"default:false" json:"is_superuser"`

	// 生命周期时间戳
	JoinedOn              time.Time  `gorm:"autoCreateTime" json:"joined_on"`
	VerifiedOn            *time.Time `json:"verified_on"`
	DeactivatedOn         *time.Time `json:"deactivated_on"`
	LastChangedUsernameOn *time.Time `json:"last_changed_username_on"`

	// 置顶帖子，两种类型最多只能置顶一个
	PinnedArtistPostID    *uint `json:"pinned_artist_post_id"`
	PinnedNonArtistPostID *uint `json:"pinned_non_artist_post_id"`

	// 冗余计数
	NumFollowers             int `gorm:"default:0" json:"num_followers"`
	NumFollowing             int `gorm:"default:0" json:"num_following"`
	NumArtistPosts           int `gorm:"default:0" json:"num_artist_posts"`
	NumNonArtistPosts        int `gorm:"default:0" json:"num_non_artist_posts"`
	NumReposts               int `gorm:"default:0" json:"num_reposts"`
	NumArtistPostComments    int `gorm:"default:0" json:"num_artist_post_comments"`
	NumNonArtistPostComments int `gorm:"default:0" json:"num_non_artist_post_comments"`

	// 签发令牌的版本号，改用户名/邮箱时 +1 使旧令牌全部失效
	TokenVersion int `gorm:"default:0" json:"-"`

	Type UserType `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"type"`
}

// UserType 与用户 1:1 的角色记录，按角色建索引方便批量查询
type UserType struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	UserID     uint `gorm:"uniqueIndex;not null" json:"user_id"`
	IsMod      bool `gorm:"default:false;index" json:"is_mod"`
	IsVerified bool `gorm:"default:false;index" json:"is_verified"`
	IsPremium  bool `gorm:"default:false;index" json:"is_premium"`
}

// BeforeSave 维护小写用户名副本
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.UsernameLower = strings.ToLower(u.Username)
	return nil
}

// CanChangeUsername 距上次改名是否已过冷却期
func (u *User) CanChangeUsername(cooldown time.Duration) bool {
	if u.LastChangedUsernameOn == nil {
		return true
	}
	return time.Since(*u.LastChangedUsernameOn) >= cooldown
}

// UserFollow 用户关注关系 follower → followed
type UserFollow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;index;uniqueIndex:idx_user_follow_pair" json:"follower_id"`
	FollowedID uint      `gorm:"not null;index;uniqueIndex:idx_user_follow_pair" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserBlocking 拉黑关系 blocker → blocked
type UserBlocking struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BlockerID uint      `gorm:"not null;index;uniqueIndex:idx_user_block_pair" json:"blocker_id"`
	BlockedID uint      `gorm:"not null;index;uniqueIndex:idx_user_block_pair" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Suspension 封禁记录，over_on = given_on + duration
type Suspension struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	SuspenderID     uint          `gorm:"not null;index" json:"suspender_id"`
	SuspendedUserID uint          `gorm:"not null;index" json:"suspended_user_id"`
	GivenOn         time.Time     `gorm:"autoCreateTime" json:"given_on"`
	Duration        time.Duration `gorm:"not null" json:"duration"`
	Reason          string        `gorm:"size:300" json:"reason"`
	OverOn          time.Time     `gorm:"not null;index" json:"over_on"`
}

// IsActive 封禁是否仍在生效
func (s *Suspension) IsActive() bool {
	return s.OverOn.After(time.Now())
}
