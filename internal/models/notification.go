package models

import (
	"time"
)

// NotificationLevel 通知级别
type NotificationLevel string

const (
	NotificationLevelSuccess NotificationLevel = "SUCCESS"
	NotificationLevelInfo    NotificationLevel = "INFO"
	NotificationLevelWarning NotificationLevel = "WARNING"
	NotificationLevelError   NotificationLevel = "ERROR"
)

// NotificationCategory 通知分类
type NotificationCategory string

const (
	CategoryGeneral               NotificationCategory = "GENERAL"
	CategoryAccount               NotificationCategory = "ACCOUNT"
	CategoryMention               NotificationCategory = "MENTION"
	CategoryFlag                  NotificationCategory = "FLAG"
	CategoryFollow                NotificationCategory = "FOLLOW"
	CategoryReported              NotificationCategory = "REPORTED"
	CategoryRating                NotificationCategory = "RATING"
	CategoryComment               NotificationCategory = "COMMENT"
	CategoryRepost                NotificationCategory = "REPOST"
	CategoryCommentLike           NotificationCategory = "COMMENT_LIKE"
	CategoryFlaggedContentDeleted NotificationCategory = "FLAGGED_CONTENT_DELETED"
)

// Notification 通知记录。actor/target/action_object 都是多态引用
type Notification struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	RecipientID uint `gorm:"not null;index:idx_notif_recipient_unread,priority:1" json:"recipient_id"`

	Actor        Ref `gorm:"embedded;embeddedPrefix:actor_" json:"actor"`
	Target       Ref `gorm:"embedded;embeddedPrefix:target_" json:"target"`
	ActionObject Ref `gorm:"embedded;embeddedPrefix:action_object_" json:"action_object"`

	Verb        string `gorm:"size:120;not null" json:"verb"`
	Description string `gorm:"type:text" json:"description"`

	Level    NotificationLevel    `gorm:"size:10;default:'INFO';not null" json:"level"`
	Category NotificationCategory `gorm:"size:30;default:'GENERAL';not null" json:"category"`

	Unread  bool `gorm:"default:true;index:idx_notif_recipient_unread,priority:2" json:"unread"`
	Emailed bool `gorm:"default:false;index" json:"emailed"`
	Deleted bool `gorm:"default:false" json:"deleted"`

	Timestamp time.Time `gorm:"autoCreateTime;index:,sort:desc" json:"timestamp"`
}
