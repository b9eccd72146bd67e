package models

import (
	"time"
)

// FlagState 举报聚合行的状态机状态
type FlagState string

const (
	FlagStateUnflagged FlagState = "UNFLAGGED" // 初态
	FlagStateFlagged   FlagState = "FLAGGED"   // 举报数超过阈值
	FlagStateRejected  FlagState = "REJECTED"  // 版主驳回
	FlagStateNotified  FlagState = "NOTIFIED"
	FlagStateResolved  FlagState = "RESOLVED" // 版主处理完毕
)

// FlagReason 举报原因枚举。顺序固定：最后一项 HARASSMENT 是
// "其他" 槽位，选它时必须附带 info 说明
type FlagReason string

const (
	FlagReasonSpam       FlagReason = "SPAM"
	FlagReasonExplicit   FlagReason = "EXPLICIT"
	FlagReasonHateSpeech FlagReason = "HATE_SPEECH"
	FlagReasonViolence   FlagReason = "VIOLENCE"
	FlagReasonHarassment FlagReason = "HARASSMENT"
)

// FlagReasons 按枚举顺序排列的全部原因
var FlagReasons = []FlagReason{
	FlagReasonSpam,
	FlagReasonExplicit,
	FlagReasonHateSpeech,
	FlagReasonViolence,
	FlagReasonHarassment,
}

// Valid 判断原因是否在枚举里
func (r FlagReason) Valid() bool {
	for _, v := range FlagReasons {
		if v == r {
			return true
		}
	}
	return false
}

// RequiresInfo 最后一个枚举值是 "其他" 槽位，需要补充说明
func (r FlagReason) RequiresInfo() bool {
	return r == FlagReasons[len(FlagReasons)-1]
}

// Flag 每个被举报目标一行的聚合记录，count 等于存活的 FlagInstance 数
type Flag struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TargetKind Kind      `gorm:"size:20;not null;uniqueIndex:idx_flag_target" json:"target_kind"`
	TargetID   uint      `gorm:"not null;uniqueIndex:idx_flag_target" json:"target_id"`
	// 目标内容的作者；目标是用户本身时为空
	CreatorID   *uint     `gorm:"index" json:"creator_id"`
	State       FlagState `gorm:"size:12;default:'UNFLAGGED';not null;index" json:"state"`
	ModeratorID *uint     `json:"moderator_id"`
	Count       int       `gorm:"default:0;not null" json:"count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FlagInstance 单个用户对某目标的一次举报，(flag, reporter) 唯一
type FlagInstance struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	FlagID     uint       `gorm:"not null;index;uniqueIndex:idx_flag_reporter" json:"flag_id"`
	ReporterID uint       `gorm:"not null;uniqueIndex:idx_flag_reporter" json:"reporter_id"`
	Reason     FlagReason `gorm:"size:20;not null" json:"reason"`
	Info       string     `gorm:"size:500" json:"info"`
	FlaggedOn  time.Time  `gorm:"autoCreateTime;index:,sort:desc" json:"flagged_on"`
}
