package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/config"
	"github.com/Sergecodes/rmusiclines-sub000/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FlagService 举报引擎：计数聚合 + 阈值状态机 + 版主操作。
// 每次插入/删除举报都在行锁下完成 计数调整 → 阈值比较 → 状态落库 →
// 副作用决策，保证"恰好跨过一次阈值"是数据库不变量
type FlagService struct {
	Cfg    config.Config
	Notify *NotificationService
}

func NewFlagService(cfg config.Config, notify *NotificationService) *FlagService {
	return &FlagService{Cfg: cfg, Notify: notify}
}

// posterLoaders 目标类型 → 作者加载器的分发表，避免运行时反射
var posterLoaders = map[models.Kind]func(tx *gorm.DB, id uint) (*uint, error){
	models.KindArtistPost: func(tx *gorm.DB, id uint) (*uint, error) {
		var post models.ArtistPost
		if err := tx.First(&post, id).Error; err != nil {
			return nil, err
		}
		return &post.PosterID, nil
	},
	models.KindNonArtistPost: func(tx *gorm.DB, id uint) (*uint, error) {
		var post models.NonArtistPost
		if err := tx.First(&post, id).Error; err != nil {
			return nil, err
		}
		return &post.PosterID, nil
	},
	models.KindComment: func(tx *gorm.DB, id uint) (*uint, error) {
		var comment models.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			return nil, err
		}
		return &comment.PosterID, nil
	},
	models.KindUser: func(tx *gorm.DB, id uint) (*uint, error) {
		// 目标是用户本身时没有 "作者"
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return nil, err
		}
		return nil, nil
	},
}

// lockForUpdate 行锁。sqlite 不支持 FOR UPDATE，单连接内存库本身串行
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// targetPoster 解析目标内容的作者
func targetPoster(tx *gorm.DB, target models.Ref) (*uint, error) {
	loader, ok := posterLoaders[target.Kind]
	if !ok {
		return nil, ErrInvalid
	}
	poster, err := loader(tx, target.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return poster, err
}

// CreateInstance 插入一条举报并推进状态机。阈值副作用在同一事务里发出
func (s *FlagService) CreateInstance(db *gorm.DB, reporterID uint, target models.Ref, reason models.FlagReason, info string) (*models.Flag, error) {
	var flag models.Flag

	err := db.Transaction(func(tx *gorm.DB) error {
		poster, err := targetPoster(tx, target)
		if err != nil {
			return err
		}
		// 不能举报自己的帖子
		if target.IsPost() && poster != nil && *poster == reporterID {
			return ErrCannotFlagOwnPost
		}
		if !reason.Valid() {
			return ErrInvalid
		}
		// 最后一个枚举值是 "其他" 槽位，必须附带说明
		if reason.RequiresInfo() && info == "" {
			return ErrMissingField
		}

		// 行锁持有到事务结束，两个并发举报不会各自跨过同一阈值
		if err := lockForUpdate(tx).
			Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
			First(&flag).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			flag = models.Flag{
				TargetKind: target.Kind,
				TargetID:   target.ID,
				CreatorID:  poster,
				State:      models.FlagStateUnflagged,
			}
			if err := tx.Create(&flag).Error; err != nil {
				return err
			}
		}

		var existing models.FlagInstance
		if err := tx.Where("flag_id = ? AND reporter_id = ?", flag.ID, reporterID).
			First(&existing).Error; err == nil {
			return ErrDuplicateFlag
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		instance := models.FlagInstance{
			FlagID:     flag.ID,
			ReporterID: reporterID,
			Reason:     reason,
			Info:       info,
		}
		if err := tx.Create(&instance).Error; err != nil {
			return err
		}

		flag.Count++
		s.recomputeState(&flag)
		if err := tx.Model(&flag).
			Updates(map[string]interface{}{"count": flag.Count, "state": flag.State}).
			Error; err != nil {
			return err
		}

		return s.fireThresholdEffects(tx, &flag, target, reporterID)
	})
	if err != nil {
		return nil, err
	}
	return &flag, nil
}

// DeleteInstance 撤回举报。只重算状态，绝不补发通知
func (s *FlagService) DeleteInstance(db *gorm.DB, reporterID uint, target models.Ref) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var flag models.Flag
		if err := lockForUpdate(tx).
			Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
			First(&flag).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFlagged
			}
			return err
		}

		res := tx.Where("flag_id = ? AND reporter_id = ?", flag.ID, reporterID).
			Delete(&models.FlagInstance{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFlagged
		}

		flag.Count--
		s.recomputeState(&flag)
		return tx.Model(&flag).
			Updates(map[string]interface{}{"count": flag.Count, "state": flag.State}).
			Error
	})
}

// ToggleState 版主在 FLAGGED ↔ REJECTED / FLAGGED ↔ RESOLVED 之间切换。
// 目标态等于当前态时退回 FLAGGED，对同一目标态连续调两次是恒等变换
func (s *FlagService) ToggleState(db *gorm.DB, target models.Ref, targetState models.FlagState, moderatorID uint) (*models.Flag, error) {
	if targetState != models.FlagStateRejected && targetState != models.FlagStateResolved {
		return nil, ErrInvalidState
	}

	var flag models.Flag
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
			First(&flag).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if flag.State == targetState {
			flag.State = models.FlagStateFlagged
		} else {
			flag.State = targetState
		}
		flag.ModeratorID = &moderatorID
		return tx.Model(&flag).
			Updates(map[string]interface{}{"state": flag.State, "moderator_id": moderatorID}).
			Error
	})
	if err != nil {
		return nil, err
	}
	return &flag, nil
}

// recomputeState 阈值规则：终态 RESOLVED/REJECTED 不被计数变化打破
func (s *FlagService) recomputeState(flag *models.Flag) {
	if flag.State == models.FlagStateResolved || flag.State == models.FlagStateRejected {
		return
	}
	if flag.Count > s.Cfg.FlagsAllowed {
		flag.State = models.FlagStateFlagged
	} else {
		flag.State = models.FlagStateUnflagged
	}
}

// fireThresholdEffects 计数增加后按精确等值阈值触发副作用
func (s *FlagService) fireThresholdEffects(tx *gorm.DB, flag *models.Flag, target models.Ref, reporterID uint) error {
	switch {
	case target.IsPost() && flag.Count == s.Cfg.ContentIsFlaggedCount:
		// 通知作者内容被举报，同时告知版主集合
		if flag.CreatorID != nil {
			if _, err := s.Notify.Notify(tx, NotifyInput{
				Actor:        models.UserRef(reporterID),
				RecipientIDs: []uint{*flag.CreatorID},
				Verb:         "your post has been flagged",
				Target:       target,
				Level:        models.NotificationLevelWarning,
				Category:     models.CategoryFlag,
			}); err != nil {
				return err
			}
		}
		if _, err := s.Notify.Notify(tx, NotifyInput{
			Actor:    models.UserRef(reporterID),
			ToMods:   true,
			Verb:     "a post has been reported",
			Target:   target,
			Category: models.CategoryReported,
		}); err != nil {
			return err
		}

	case target.IsPost() && flag.Count == s.Cfg.AutoDeleteFlagsCount:
		return s.autoDeletePost(tx, flag, target)

	case target.Kind == models.KindUser && flag.Count == s.Cfg.UserIsFlaggedCount:
		if _, err := s.Notify.Notify(tx, NotifyInput{
			RecipientIDs: []uint{target.ID},
			Verb:         "your account has been flagged",
			Target:       target,
			Level:        models.NotificationLevelWarning,
			Category:     models.CategoryFlag,
		}); err != nil {
			return err
		}

	case target.Kind == models.KindUser && flag.Count == s.Cfg.AutoSuspendUserFlagsCount:
		return s.autoSuspendUser(tx, target.ID)
	}
	return nil
}

// autoDeletePost 删帖级联：帖子、举报聚合行都删掉，通知作者。
// 帖子已不存在，通知不带 target 引用
func (s *FlagService) autoDeletePost(tx *gorm.DB, flag *models.Flag, target models.Ref) error {
	posterID := flag.CreatorID

	if err := deletePostCascade(tx, target.Kind, target.ID); err != nil {
		return err
	}

	if posterID != nil {
		if _, err := s.Notify.Notify(tx, NotifyInput{
			RecipientIDs: []uint{*posterID},
			Verb:         "your post was deleted after repeated reports",
			Level:        models.NotificationLevelError,
			Category:     models.CategoryFlaggedContentDeleted,
		}); err != nil {
			return err
		}
	}
	log.Printf("Flagged %s %d auto-deleted at count %d", target.Kind, target.ID, flag.Count)
	return nil
}

// autoSuspendUser 由系统服务账号签发 1 天封禁
func (s *FlagService) autoSuspendUser(tx *gorm.DB, userID uint) error {
	var siteServices models.User
	if err := tx.Where("username_lower = ?", s.Cfg.SiteServicesUsername).
		First(&siteServices).Error; err != nil {
		return fmt.Errorf("site services account missing: %w", err)
	}

	now := time.Now()
	suspension := models.Suspension{
		SuspenderID:     siteServices.ID,
		SuspendedUserID: userID,
		GivenOn:         now,
		Duration:        s.Cfg.AutoSuspensionDuration,
		Reason:          "account flagged by too many users",
		OverOn:          now.Add(s.Cfg.AutoSuspensionDuration),
	}
	if err := tx.Create(&suspension).Error; err != nil {
		return err
	}
	log.Printf("User %d auto-suspended for %s", userID, s.Cfg.AutoSuspensionDuration)
	return nil
}

// DeleteFlagFor 目标被删除时清理它的举报聚合行和全部举报
func DeleteFlagFor(tx *gorm.DB, target models.Ref) error {
	var flag models.Flag
	err := tx.Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
		First(&flag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := tx.Where("flag_id = ?", flag.ID).Delete(&models.FlagInstance{}).Error; err != nil {
		return err
	}
	return tx.Delete(&flag).Error
}

// RebalanceStates 阈值配置变更后的运维钩子：重算全部非终态的状态
func (s *FlagService) RebalanceStates(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var flags []models.Flag
		if err := lockForUpdate(tx).
			Not("state IN ?", []models.FlagState{models.FlagStateResolved, models.FlagStateRejected}).
			Find(&flags).Error; err != nil {
			return err
		}
		for i := range flags {
			before := flags[i].State
			s.recomputeState(&flags[i])
			if flags[i].State == before {
				continue
			}
			if err := tx.Model(&flags[i]).
				UpdateColumn("state", flags[i].State).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// InstancesNewestFirst 版主视角的举报流水，按举报时间倒序
func (s *FlagService) InstancesNewestFirst(db *gorm.DB, flagID uint) ([]models.FlagInstance, error) {
	var list []models.FlagInstance
	err := db.Where("flag_id = ?", flagID).
		Order("flagged_on DESC").
		Find(&list).Error
	return list, err
}
