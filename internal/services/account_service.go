package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/config"
	"github.com/Sergecodes/rmusiclines-sub000/internal/models"
	"github.com/Sergecodes/rmusiclines-sub000/internal/utils"

	"gorm.io/gorm"
)

// AccountService 用户生命周期：注册、验证、改名冷却、两步改邮箱、
// 下载配额、封禁、停用与删除
type AccountService struct {
	Cfg    config.Config
	Tokens *TokenService
	Notify *NotificationService
	Mail   *MailService
}

func NewAccountService(cfg config.Config, tokens *TokenService, notify *NotificationService, mail *MailService) *AccountService {
	return &AccountService{Cfg: cfg, Tokens: tokens, Notify: notify, Mail: mail}
}

// RegisterInput 注册参数
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Country     string
	BirthDate   time.Time
	Gender      string
}

// UserByUsername 大小写不敏感的用户名查找，ALICE 与 alice 等同
func UserByUsername(db *gorm.DB, username string) (*models.User, error) {
	var user models.User
	err := db.Preload("Type").
		Where("username_lower = ?", strings.ToLower(username)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// activeEmailTaken 邮箱唯一性只约束 is_active 的账号
func activeEmailTaken(db *gorm.DB, email string, excludeUserID uint) (bool, error) {
	var count int64
	err := db.Model(&models.User{}).
		Where("email = ? AND is_active = ? AND id <> ?", email, true, excludeUserID).
		Count(&count).Error
	return count > 0, err
}

// Register 创建新用户并发送验证邮件
func (s *AccountService) Register(db *gorm.DB, in RegisterInput) (*models.User, error) {
	if !utils.ValidUsername(in.Username) {
		return nil, ErrInvalid
	}
	if !utils.ValidAge(in.BirthDate, utils.MinUserAge, utils.MaxUserAge) {
		return nil, ErrInvalid
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:    in.Username,
		Email:       in.Email,
		Password:    hash,
		DisplayName: in.DisplayName,
		Country:     in.Country,
		BirthDate:   in.BirthDate,
		Gender:      in.Gender,
		Type:        models.UserType{},
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := UserByUsername(tx, in.Username); err == nil {
			return ErrInvalid
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		taken, err := activeEmailTaken(tx, in.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailInUse
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}

	token, err := s.Tokens.CreateActivationToken(user.ID, user.TokenVersion, user.UsernameLower)
	if err != nil {
		return nil, err
	}
	s.Mail.SendAccountActivationEmail(user.Email, token)
	return &user, nil
}

// VerifyAccount 消费 ACTIVATION 令牌，置 is_verified 并记录时间
func (s *AccountService) VerifyAccount(db *gorm.DB, tokenStr string) (*models.User, error) {
	claims, err := s.Tokens.ParseScoped(tokenStr, ScopeActivation)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.Preload("Type").First(&user, claims.UserID).Error; err != nil {
		return nil, ErrNotFound
	}
	if user.Type.IsVerified {
		return nil, ErrAlreadyVerified
	}

	now := time.Now()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.UserType{}).
			Where("user_id = ?", user.ID).
			Update("is_verified", true).Error; err != nil {
			return err
		}
		return tx.Model(&user).Update("verified_on", now).Error
	})
	if err != nil {
		return nil, err
	}
	user.VerifiedOn = &now
	user.Type.IsVerified = true
	return &user, nil
}

// Login 校验口令并签发访问/刷新令牌
func (s *AccountService) Login(db *gorm.DB, username, password string) (*models.User, string, string, error) {
	user, err := UserByUsername(db, username)
	if err != nil {
		return nil, "", "", ErrNotFound
	}
	if !user.IsActive {
		return nil, "", "", ErrNotPermitted
	}
	if !utils.CheckPassword(password, user.Password) {
		return nil, "", "", ErrInvalid
	}

	access, err := s.Tokens.CreateAccessToken(user.ID, user.TokenVersion)
	if err != nil {
		return nil, "", "", err
	}
	refresh, err := s.Tokens.CreateRefreshToken(user.ID, user.TokenVersion)
	if err != nil {
		return nil, "", "", err
	}
	return user, access, refresh, nil
}

// ChangeUsername 改名需距上次 ≥ 冷却期；成功后顶掉已签发的令牌
func (s *AccountService) ChangeUsername(db *gorm.DB, userID uint, newUsername string) (*models.User, error) {
	if !utils.ValidUsername(newUsername) {
		return nil, ErrInvalid
	}

	var user models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			return ErrNotFound
		}
		if !user.CanChangeUsername(s.Cfg.UsernameChangeCooldown) {
			return ErrNotEditable
		}
		if existing, err := UserByUsername(tx, newUsername); err == nil && existing.ID != userID {
			return ErrInvalid
		}

		now := time.Now()
		user.Username = newUsername
		user.LastChangedUsernameOn = &now
		user.TokenVersion++ // 旧令牌全部失效
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// emailBindingKey 改邮箱绑定的缓存键
func emailBindingKey(usernameLower string) string {
	return fmt.Sprintf("email_change:%s", usernameLower)
}

// RequestEmailChange 两步改邮箱第一步：校验口令和新地址，
// 存 (用户名 → 新邮箱) 绑定（3 天 TTL），发激活邮件
func (s *AccountService) RequestEmailChange(db *gorm.DB, userID uint, newEmail, password string) error {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return ErrNotFound
	}
	if !utils.CheckPassword(password, user.Password) {
		return ErrInvalid
	}
	if strings.EqualFold(newEmail, user.Email) {
		return ErrSameEmail
	}
	taken, err := activeEmailTaken(db, newEmail, user.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailInUse
	}

	utils.GetCache().Set(emailBindingKey(user.UsernameLower), newEmail, s.Cfg.EmailChangeBindingTTL)

	token, err := s.Tokens.CreateActivationToken(user.ID, user.TokenVersion, user.UsernameLower)
	if err != nil {
		return err
	}
	s.Mail.SendEmailChangeEmail(newEmail, token)
	return nil
}

// ConfirmEmailChange 第二步：消费 ACTIVATION 令牌，读取绑定并落库。
// 绑定缺失或过期 → already_verified；成功后刷新令牌全部作废
func (s *AccountService) ConfirmEmailChange(db *gorm.DB, tokenStr string) (*models.User, error) {
	claims, err := s.Tokens.ParseScoped(tokenStr, ScopeActivation)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		return nil, ErrNotFound
	}

	key := emailBindingKey(user.UsernameLower)
	cached := utils.GetCache().Get(key)
	if cached == nil {
		return nil, ErrAlreadyVerified
	}
	newEmail, ok := cached.(string)
	if !ok {
		return nil, ErrAlreadyVerified
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		user.Email = newEmail
		user.TokenVersion++ // 顶掉已有的刷新令牌
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	utils.GetCache().Delete(key)
	return &user, nil
}

// CanDownload 会员和超管不限量；其余按自然月 < 上限
func (s *AccountService) CanDownload(db *gorm.DB, user *models.User) (bool, error) {
	if user.IsSuperuser || user.Type.IsPremium {
		return true, nil
	}
	count, err := monthlyDownloadCount(db, user.ID, time.Now())
	if err != nil {
		return false, err
	}
	return count < int64(s.Cfg.MonthlyDownloadLimit), nil
}

// monthlyDownloadCount 两种帖子的下载合计，按自然月
func monthlyDownloadCount(db *gorm.DB, userID uint, at time.Time) (int64, error) {
	start := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, at.Location())
	end := start.AddDate(0, 1, 0)
	var count int64
	err := db.Model(&models.Download{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start, end).
		Count(&count).Error
	return count, err
}

// Suspend 封禁用户。staff 不可被封
func (s *AccountService) Suspend(db *gorm.DB, suspenderID, targetID uint, duration time.Duration, reason string) (*models.Suspension, error) {
	var target models.User
	if err := db.First(&target, targetID).Error; err != nil {
		return nil, ErrNotFound
	}
	if target.IsStaff {
		return nil, ErrNotPermitted
	}

	now := time.Now()
	suspension := models.Suspension{
		SuspenderID:     suspenderID,
		SuspendedUserID: targetID,
		GivenOn:         now,
		Duration:        duration,
		Reason:          reason,
		OverOn:          now.Add(duration),
	}
	if err := db.Create(&suspension).Error; err != nil {
		return nil, err
	}
	return &suspension, nil
}

// DeleteSuspension 软删（默认）提前终止封禁而不是移除记录；
// reallyDelete 才真正删行
func (s *AccountService) DeleteSuspension(db *gorm.DB, suspensionID uint, reallyDelete bool) error {
	var suspension models.Suspension
	if err := db.First(&suspension, suspensionID).Error; err != nil {
		return ErrNotFound
	}
	if reallyDelete {
		return db.Delete(&suspension).Error
	}
	// 已经结束的封禁没有提前终止可言
	if !suspension.IsActive() {
		return ErrNotEditable
	}
	return db.Model(&suspension).Update("over_on", time.Now()).Error
}

// DeleteUser 默认软删：置 is_active=false 记录时间，行保留；
// reallyDelete 才物理删除（批量删除路径同样语义）
func (s *AccountService) DeleteUser(db *gorm.DB, userID uint, reallyDelete bool) error {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return ErrNotFound
	}

	if !reallyDelete {
		now := time.Now()
		return db.Model(&user).
			Updates(map[string]interface{}{"is_active": false, "deactivated_on": now}).
			Error
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserType{}).Error; err != nil {
			return err
		}
		if err := DeleteFlagFor(tx, models.UserRef(userID)); err != nil {
			return err
		}
		log.Printf("User %d hard-deleted", userID)
		return tx.Delete(&user).Error
	})
}

// FollowUser 关注用户，自关注非法
func (s *AccountService) FollowUser(db *gorm.DB, followerID, followedID uint) error {
	if followerID == followedID {
		return ErrSelfFollow
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var existing models.UserFollow
		if err := tx.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
			First(&existing).Error; err == nil {
			return ErrInvalid
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		follow := models.UserFollow{FollowerID: followerID, FollowedID: followedID}
		if err := tx.Create(&follow).Error; err != nil {
			return err
		}
		if err := CountUserFollowCreated(tx, followerID, followedID); err != nil {
			return err
		}
		_, err := s.Notify.Notify(tx, NotifyInput{
			Actor:        models.UserRef(followerID),
			RecipientIDs: []uint{followedID},
			Verb:         "started following you",
			Target:       models.UserRef(followedID),
			Category:     models.CategoryFollow,
		})
		return err
	})
}

// UnfollowUser 取关。边不存在时不动计数（幂等）
func (s *AccountService) UnfollowUser(db *gorm.DB, followerID, followedID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
			Delete(&models.UserFollow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return CountUserFollowDeleted(tx, followerID, followedID)
	})
}

// BlockUser 拉黑，自拉黑非法；拉黑同时解除双向关注
func (s *AccountService) BlockUser(db *gorm.DB, blockerID, blockedID uint) error {
	if blockerID == blockedID {
		return ErrSelfBlock
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var existing models.UserBlocking
		if err := tx.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
			First(&existing).Error; err == nil {
			return ErrInvalid
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		block := models.UserBlocking{BlockerID: blockerID, BlockedID: blockedID}
		if err := tx.Create(&block).Error; err != nil {
			return err
		}

		res := tx.Where("follower_id = ? AND followed_id = ?", blockerID, blockedID).
			Delete(&models.UserFollow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := CountUserFollowDeleted(tx, blockerID, blockedID); err != nil {
				return err
			}
		}
		res = tx.Where("follower_id = ? AND followed_id = ?", blockedID, blockerID).
			Delete(&models.UserFollow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return CountUserFollowDeleted(tx, blockedID, blockerID)
		}
		return nil
	})
}

// UnblockUser 解除拉黑
func (s *AccountService) UnblockUser(db *gorm.DB, blockerID, blockedID uint) error {
	res := db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.UserBlocking{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsSuspended 当前是否有在生效的封禁
func IsSuspended(db *gorm.DB, userID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Suspension{}).
		Where("suspended_user_id = ? AND over_on > ?", userID, time.Now()).
		Count(&count).Error
	return count > 0, err
}
