package services

import (
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/models"
	"github.com/Sergecodes/rmusiclines-sub000/internal/utils"

	"gorm.io/gorm"
)

// NotificationService 通知中枢：扇出、已读/软删生命周期、邮件标记
type NotificationService struct {
	// 软删模式开关。关闭时 Deleted/Active 查询非法，删除变为物理删除
	SoftDelete bool
}

func NewNotificationService(softDelete bool) *NotificationService {
	return &NotificationService{SoftDelete: softDelete}
}

// NotifyInput 一次发送的全部参数。RecipientIDs 和 ToMods 可叠加，
// 解析出的收件人去重后每人插入一条记录
type NotifyInput struct {
	Actor        models.Ref
	RecipientIDs []uint
	ToMods       bool // 发给全体版主
	Verb         string
	Description  string
	Target       models.Ref
	ActionObject models.Ref
	Level        models.NotificationLevel
	Category     models.NotificationCategory
	Timestamp    time.Time
}

// Notify 在调用方事务里插入通知记录，返回插入的全部记录
func (s *NotificationService) Notify(tx *gorm.DB, in NotifyInput) ([]models.Notification, error) {
	if in.Level == "" {
		in.Level = models.NotificationLevelInfo
	}
	if in.Category == "" {
		in.Category = models.CategoryGeneral
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now()
	}
	// 描述可能带用户输入（转发评语、举报补充），进库前剥掉标签
	in.Description = utils.SanitizeText(in.Description)

	recipients := make([]uint, 0, len(in.RecipientIDs))
	seen := make(map[uint]bool)
	for _, id := range in.RecipientIDs {
		if !seen[id] {
			seen[id] = true
			recipients = append(recipients, id)
		}
	}

	if in.ToMods {
		mods, err := ModeratorIDs(tx)
		if err != nil {
			return nil, err
		}
		for _, id := range mods {
			if !seen[id] {
				seen[id] = true
				recipients = append(recipients, id)
			}
		}
	}

	notifications := make([]models.Notification, 0, len(recipients))
	for _, recipientID := range recipients {
		n := models.Notification{
			RecipientID:  recipientID,
			Actor:        in.Actor,
			Target:       in.Target,
			ActionObject: in.ActionObject,
			Verb:         in.Verb,
			Description:  in.Description,
			Level:        in.Level,
			Category:     in.Category,
			Unread:       true,
			Timestamp:    in.Timestamp,
		}
		if err := tx.Create(&n).Error; err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// ModeratorIDs 版主集合：usertypes 里 is_mod 为真的全部用户
func ModeratorIDs(tx *gorm.DB) ([]uint, error) {
	var ids []uint
	err := tx.Model(&models.UserType{}).
		Where("is_mod = ?", true).
		Pluck("user_id", &ids).
		Error
	return ids, err
}

// forRecipient 按收件人过滤并按时间倒序
func (s *NotificationService) forRecipient(db *gorm.DB, recipientID uint) *gorm.DB {
	return db.Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID).
		Order("timestamp DESC")
}

// All 收件人的全部通知
func (s *NotificationService) All(db *gorm.DB, recipientID uint) ([]models.Notification, error) {
	var list []models.Notification
	err := s.forRecipient(db, recipientID).Find(&list).Error
	return list, err
}

// Unread 未读通知。软删模式下默认排除已删除的
func (s *NotificationService) Unread(db *gorm.DB, recipientID uint) ([]models.Notification, error) {
	q := s.forRecipient(db, recipientID).Where("unread = ?", true)
	if s.SoftDelete {
		q = q.Where("deleted = ?", false)
	}
	var list []models.Notification
	err := q.Find(&list).Error
	return list, err
}

// Read 已读通知。软删模式下默认排除已删除的
func (s *NotificationService) Read(db *gorm.DB, recipientID uint) ([]models.Notification, error) {
	q := s.forRecipient(db, recipientID).Where("unread = ?", false)
	if s.SoftDelete {
		q = q.Where("deleted = ?", false)
	}
	var list []models.Notification
	err := q.Find(&list).Error
	return list, err
}

// Deleted 已软删的通知；软删模式关闭时是配置错误
func (s *NotificationService) Deleted(db *gorm.DB, recipientID uint) ([]models.Notification, error) {
	if !s.SoftDelete {
		return nil, ErrMisconfigured
	}
	var list []models.Notification
	err := s.forRecipient(db, recipientID).Where("deleted = ?", true).Find(&list).Error
	return list, err
}

// Active 未软删的通知；软删模式关闭时是配置错误
func (s *NotificationService) Active(db *gorm.DB, recipientID uint) ([]models.Notification, error) {
	if !s.SoftDelete {
		return nil, ErrMisconfigured
	}
	var list []models.Notification
	err := s.forRecipient(db, recipientID).Where("deleted = ?", false).Find(&list).Error
	return list, err
}

// Sent 已随邮件发出的通知
func (s *NotificationService) Sent(db *gorm.DB, recipientID uint) ([]models.Notification, error) {
	var list []models.Notification
	err := s.forRecipient(db, recipientID).Where("emailed = ?", true).Find(&list).Error
	return list, err
}

// Unsent 尚未随邮件发出的通知
func (s *NotificationService) Unsent(db *gorm.DB, recipientID uint) ([]models.Notification, error) {
	var list []models.Notification
	err := s.forRecipient(db, recipientID).Where("emailed = ?", false).Find(&list).Error
	return list, err
}

// AllUnsent 全站未发通知，邮件派发器用
func (s *NotificationService) AllUnsent(db *gorm.DB) ([]models.Notification, error) {
	var list []models.Notification
	err := db.Where("emailed = ?", false).
		Order("timestamp ASC").
		Find(&list).
		Error
	return list, err
}

// UnreadCount 未读数，(recipient, unread) 索引保证开销近似 O(1)
func (s *NotificationService) UnreadCount(db *gorm.DB, recipientID uint) (int64, error) {
	q := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND unread = ?", recipientID, true)
	if s.SoftDelete {
		q = q.Where("deleted = ?", false)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// MarkAllAsRead 收件人全部置为已读
func (s *NotificationService) MarkAllAsRead(db *gorm.DB, recipientID uint) error {
	return db.Model(&models.Notification{}).
		Where("recipient_id = ? AND unread = ?", recipientID, true).
		Update("unread", false).
		Error
}

// MarkAsRead 单条置为已读，校验归属
func (s *NotificationService) MarkAsRead(db *gorm.DB, recipientID, id uint) error {
	return s.setUnread(db, recipientID, id, false)
}

// MarkAsUnread 单条置回未读
func (s *NotificationService) MarkAsUnread(db *gorm.DB, recipientID, id uint) error {
	return s.setUnread(db, recipientID, id, true)
}

func (s *NotificationService) setUnread(db *gorm.DB, recipientID, id uint, unread bool) error {
	res := db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("unread", unread)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAsSent 把收件人的未发通知全部标记为已随邮件发出
func (s *NotificationService) MarkAsSent(db *gorm.DB, recipientID uint) error {
	return db.Model(&models.Notification{}).
		Where("recipient_id = ? AND emailed = ?", recipientID, false).
		Update("emailed", true).
		Error
}

// MarkAsDeleted 软删收件人的全部通知；软删关闭时物理删除
func (s *NotificationService) MarkAsDeleted(db *gorm.DB, recipientID uint) error {
	if !s.SoftDelete {
		return db.Where("recipient_id = ?", recipientID).
			Delete(&models.Notification{}).
			Error
	}
	return db.Model(&models.Notification{}).
		Where("recipient_id = ? AND deleted = ?", recipientID, false).
		Update("deleted", true).
		Error
}

// Delete 单条删除：软删模式打标记，否则物理删除
func (s *NotificationService) Delete(db *gorm.DB, recipientID, id uint) error {
	if s.SoftDelete {
		res := db.Model(&models.Notification{}).
			Where("id = ? AND recipient_id = ?", id, recipientID).
			Update("deleted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	}
	res := db.Where("id = ? AND recipient_id = ?", id, recipientID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
