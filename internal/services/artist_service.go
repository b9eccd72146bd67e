package services

import (
	"errors"
	"strings"
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/models"
	"github.com/Sergecodes/rmusiclines-sub000/internal/utils"

	"gorm.io/gorm"
)

// ArtistService 音乐人档案由 staff 维护，普通用户只能关注和浏览
type ArtistService struct {
	Notify *NotificationService
}

func NewArtistService(notify *NotificationService) *ArtistService {
	return &ArtistService{Notify: notify}
}

// ArtistInput 创建/更新音乐人的参数
type ArtistInput struct {
	Name      string
	Country   string
	Gender    string
	BirthDate time.Time
	Tags      []string
}

// CreateArtist 建档。slug 从名字派生且此后不可变；国籍自动进标签
func (s *ArtistService) CreateArtist(db *gorm.DB, actor *models.User, in ArtistInput) (*models.Artist, error) {
	if !actor.IsStaff {
		return nil, ErrNotPermitted
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrMissingField
	}
	if !in.BirthDate.IsZero() && !utils.ValidAge(in.BirthDate, utils.MinArtistAge, utils.MaxArtistAge) {
		return nil, ErrInvalid
	}

	var artist models.Artist
	err := db.Transaction(func(tx *gorm.DB) error {
		artist = models.Artist{
			Name:      in.Name,
			Slug:      utils.Slugify(in.Name),
			Country:   in.Country,
			Gender:    in.Gender,
			BirthDate: in.BirthDate,
		}
		if err := tx.Create(&artist).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrInvalid
			}
			return err
		}

		tags := in.Tags
		if in.Country != "" {
			tags = append(tags, in.Country)
		}
		return s.replaceTags(tx, &artist, tags)
	})
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

// UpdateArtist 改档。名字可改，slug 保持首次派生的值
func (s *ArtistService) UpdateArtist(db *gorm.DB, actor *models.User, artistID uint, in ArtistInput) (*models.Artist, error) {
	if !actor.IsStaff {
		return nil, ErrNotPermitted
	}
	var artist models.Artist
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&artist, artistID).Error; err != nil {
			return ErrNotFound
		}

		updates := map[string]interface{}{}
		if name := strings.TrimSpace(in.Name); name != "" {
			updates["name"] = name
		}
		if in.Country != "" {
			updates["country"] = in.Country
		}
		if in.Gender != "" {
			updates["gender"] = in.Gender
		}
		if !in.BirthDate.IsZero() {
			if !utils.ValidAge(in.BirthDate, utils.MinArtistAge, utils.MaxArtistAge) {
				return ErrInvalid
			}
			updates["birth_date"] = in.BirthDate
		}
		if len(updates) > 0 {
			if err := tx.Model(&artist).Updates(updates).Error; err != nil {
				if isUniqueViolation(err) {
					return ErrInvalid
				}
				return err
			}
		}

		if in.Tags != nil {
			tags := in.Tags
			if artist.Country != "" {
				tags = append(tags, artist.Country)
			}
			return s.replaceTags(tx, &artist, tags)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &artist, nil
}

// replaceTags 重建标签关联，词表缺的条目顺手补上
func (s *ArtistService) replaceTags(tx *gorm.DB, artist *models.Artist, names []string) error {
	var tags []models.ArtistTag
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		lower := strings.ToLower(name)
		if name == "" || seen[lower] {
			continue
		}
		seen[lower] = true

		var tag models.ArtistTag
		err := tx.Where("name_lower = ?", lower).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.ArtistTag{Name: name, NameLower: lower, Slug: utils.Slugify(name)}
			if err := tx.Create(&tag).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		tags = append(tags, tag)
	}
	return tx.Model(artist).Association("Tags").Replace(tags)
}

// ArtistBySlug 按 slug 查档，带标签
func (s *ArtistService) ArtistBySlug(db *gorm.DB, slug string) (*models.Artist, error) {
	var artist models.Artist
	if err := db.Preload("Tags").Where("slug = ?", slug).First(&artist).Error; err != nil {
		return nil, ErrNotFound
	}
	return &artist, nil
}

// FollowArtist 关注音乐人，重复关注幂等
func (s *ArtistService) FollowArtist(db *gorm.DB, followerID, artistID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var artist models.Artist
		if err := tx.First(&artist, artistID).Error; err != nil {
			return ErrNotFound
		}
		follow := models.ArtistFollow{FollowerID: followerID, ArtistID: artistID}
		if err := tx.Create(&follow).Error; err != nil {
			if isUniqueViolation(err) {
				return nil
			}
			return err
		}
		return CountArtistFollowCreated(tx, artistID)
	})
}

// UnfollowArtist 取关，没关注过不动计数
func (s *ArtistService) UnfollowArtist(db *gorm.DB, followerID, artistID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND artist_id = ?", followerID, artistID).
			Delete(&models.ArtistFollow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return CountArtistFollowDeleted(tx, artistID)
	})
}

// ArtistPostsNewestFirst 音乐人主页的时间线
func (s *ArtistService) ArtistPostsNewestFirst(db *gorm.DB, artistID uint, limit int) ([]models.ArtistPost, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var posts []models.ArtistPost
	err := db.Where("artist_id = ?", artistID).
		Order("created_on DESC").
		Limit(limit).
		Find(&posts).
		Error
	return posts, err
}
