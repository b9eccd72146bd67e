package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sergecodes/rmusiclines-sub000/internal/config"
	"github.com/Sergecodes/rmusiclines-sub000/internal/models"
	"github.com/Sergecodes/rmusiclines-sub000/internal/utils"

	"gorm.io/gorm"
)

// 短 UUID 撞唯一索引时的重试次数
const uidInsertRetries = 3

// PostService 帖子域：发布（带暂存媒体提交）、删除级联、评分、
// 转发、收藏、下载、评论、置顶
type PostService struct {
	Cfg      config.Config
	Staging  *StagingStore
	Notify   *NotificationService
	Accounts *AccountService
}

func NewPostService(cfg config.Config, staging *StagingStore, notify *NotificationService, accounts *AccountService) *PostService {
	return &PostService{Cfg: cfg, Staging: staging, Notify: notify, Accounts: accounts}
}

// PostInput 发帖参数
type PostInput struct {
	Body      string
	Language  string
	IsPrivate bool
	// 音乐人帖专用
	ArtistID   uint
	MusicTitle string
}

// isUniqueViolation 粗粒度的唯一约束冲突判断，postgres 与 sqlite 文案都匹配
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}

// CreateArtistPost 发布署名音乐人的帖子
func (s *PostService) CreateArtistPost(db *gorm.DB, posterID uint, in PostInput) (*models.ArtistPost, error) {
	if err := validatePostBody(in.Body); err != nil {
		return nil, err
	}
	var post models.ArtistPost
	err := db.Transaction(func(tx *gorm.DB) error {
		var artist models.Artist
		if err := tx.First(&artist, in.ArtistID).Error; err != nil {
			return ErrNotFound
		}

		post = models.ArtistPost{
			BasePost:   s.newBasePost(posterID, in),
			ArtistID:   artist.ID,
			MusicTitle: in.MusicTitle,
		}
		if err := createWithUID(tx, &post, &post.BasePost); err != nil {
			return err
		}
		return s.finishPublish(tx, &post.BasePost, post.Ref())
	})
	if err != nil {
		return nil, err
	}
	s.Staging.Clear(posterID)
	return &post, nil
}

// CreateNonArtistPost 发布普通帖子
func (s *PostService) CreateNonArtistPost(db *gorm.DB, posterID uint, in PostInput) (*models.NonArtistPost, error) {
	if err := validatePostBody(in.Body); err != nil {
		return nil, err
	}
	var post models.NonArtistPost
	err := db.Transaction(func(tx *gorm.DB) error {
		post = models.NonArtistPost{BasePost: s.newBasePost(posterID, in)}
		if err := createWithUID(tx, &post, &post.BasePost); err != nil {
			return err
		}
		return s.finishPublish(tx, &post.BasePost, post.Ref())
	})
	if err != nil {
		return nil, err
	}
	s.Staging.Clear(posterID)
	return &post, nil
}

func validatePostBody(body string) error {
	if body == "" || len([]rune(body)) > utils.MaxPostBodyLength {
		return ErrInvalid
	}
	return nil
}

func (s *PostService) newBasePost(posterID uint, in PostInput) models.BasePost {
	language := in.Language
	if language == "" {
		language = "en"
	}
	return models.BasePost{
		PosterID:  posterID,
		Language:  language,
		Body:      in.Body,
		BodyHTML:  utils.RenderBody(in.Body),
		IsPrivate: in.IsPrivate,
	}
}

// createWithUID 生成短 UUID 入库，撞唯一索引就换一个重试
func createWithUID(tx *gorm.DB, record interface{}, base *models.BasePost) error {
	for attempt := 0; attempt < uidInsertRetries; attempt++ {
		base.UID = utils.NewShortUUID()
		err := tx.Create(record).Error
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return err
		}
		log.Printf("Short uuid collision on attempt %d, retrying", attempt+1)
	}
	return fmt.Errorf("failed to allocate a unique short uuid after %d attempts", uidInsertRetries)
}

// finishPublish 计数、暂存媒体提交、话题和 @ 的落库与通知
func (s *PostService) finishPublish(tx *gorm.DB, base *models.BasePost, ref models.Ref) error {
	artistID := uint(0)
	if ref.Kind == models.KindArtistPost {
		var post models.ArtistPost
		if err := tx.First(&post, ref.ID).Error; err != nil {
			return err
		}
		artistID = post.ArtistID
	}
	if err := CountPostCreated(tx, ref.Kind, base.PosterID, artistID); err != nil {
		return err
	}
	if err := s.commitStagedMedia(tx, base.PosterID, ref); err != nil {
		return err
	}
	if err := s.attachHashtags(tx, base.Body, ref); err != nil {
		return err
	}
	return s.attachMentions(tx, base.Body, base.PosterID, ref)
}

// commitStagedMedia 把暂存区排空成帖子媒体行：照片落盘，视频从
// 临时目录挪到正式路径。缓冲本身在外层事务提交成功后才清空
func (s *PostService) commitStagedMedia(tx *gorm.DB, posterID uint, ref models.Ref) error {
	photos, video := s.Staging.Peek(posterID)

	prefix := string(ref.Kind) + "s"
	baseDir := filepath.Join(s.Cfg.MediaRoot, prefix, fmt.Sprintf("post_%d", ref.ID))

	for i, photo := range photos {
		relPath := filepath.Join(prefix, fmt.Sprintf("post_%d", ref.ID), photo.Filename)
		row := models.PostPhoto{
			PostKind:  ref.Kind,
			PostID:    ref.ID,
			Filename:  photo.Filename,
			Mimetype:  photo.Mimetype,
			RelPath:   relPath,
			Width:     photo.Width,
			Height:    photo.Height,
			SortOrder: i,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(baseDir, photo.Filename), photo.Data, 0o644); err != nil {
			return err
		}
	}

	if video != nil {
		relPath := filepath.Join(prefix, fmt.Sprintf("post_%d", ref.ID), video.Filename)
		row := models.PostVideo{
			PostKind: ref.Kind,
			PostID:   ref.ID,
			Filename: video.Filename,
			Mimetype: video.Mimetype,
			RelPath:  relPath,
			Duration: video.Duration,
			Width:    video.Width,
			Height:   video.Height,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return err
		}
		if err := os.Rename(video.Path, filepath.Join(baseDir, video.Filename)); err != nil {
			return err
		}
	}
	return nil
}

// attachHashtags 提取话题，词表里没有就建，再挂关联
func (s *PostService) attachHashtags(tx *gorm.DB, body string, ref models.Ref) error {
	for _, name := range utils.ExtractHashtags(body) {
		var tag models.Hashtag
		lower := strings.ToLower(name)
		err := tx.Where("name_lower = ?", lower).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Hashtag{Name: name, NameLower: lower, Slug: utils.Slugify(name)}
			if err := tx.Create(&tag).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		link := models.PostHashtag{PostKind: ref.Kind, PostID: ref.ID, HashtagID: tag.ID}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

// attachMentions 解析 @ 到的用户，存在的存关联并通知
func (s *PostService) attachMentions(tx *gorm.DB, body string, posterID uint, ref models.Ref) error {
	for _, username := range utils.ExtractMentions(body) {
		mentioned, err := UserByUsername(tx, username)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return err
		}
		if mentioned.ID == posterID {
			continue
		}
		link := models.PostMention{PostKind: ref.Kind, PostID: ref.ID, UserID: mentioned.ID}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
		if _, err := s.Notify.Notify(tx, NotifyInput{
			Actor:        models.UserRef(posterID),
			RecipientIDs: []uint{mentioned.ID},
			Verb:         "mentioned you in a post",
			Target:       ref,
			Category:     models.CategoryMention,
		}); err != nil {
			return err
		}
	}
	return nil
}

// loadBasePost 按引用读出共享字段
func loadBasePost(tx *gorm.DB, ref models.Ref) (*models.BasePost, uint, error) {
	if ref.Kind == models.KindArtistPost {
		var post models.ArtistPost
		if err := tx.First(&post, ref.ID).Error; err != nil {
			return nil, 0, ErrNotFound
		}
		return &post.BasePost, post.ArtistID, nil
	}
	var post models.NonArtistPost
	if err := tx.First(&post, ref.ID).Error; err != nil {
		return nil, 0, ErrNotFound
	}
	return &post.BasePost, 0, nil
}

// DeletePost 作者或 staff 删除帖子
func (s *PostService) DeletePost(db *gorm.DB, actor *models.User, ref models.Ref) error {
	return db.Transaction(func(tx *gorm.DB) error {
		base, _, err := loadBasePost(tx, ref)
		if err != nil {
			return err
		}
		if base.PosterID != actor.ID && !actor.IsStaff {
			return ErrNotOwner
		}
		return deletePostCascade(tx, ref.Kind, ref.ID)
	})
}

// deletePostCascade 删帖级联：关系行、计数回退、媒体、举报聚合。
// 下载历史保留（num_downloads 永不回退）
func deletePostCascade(tx *gorm.DB, kind models.Kind, postID uint) error {
	ref := models.Ref{Kind: kind, ID: postID}
	base, artistID, err := loadBasePost(tx, ref)
	if err != nil {
		return err
	}

	// 转发人侧的 num_reposts 先回退，再清行
	var reposts []models.Repost
	if err := tx.Where("post_kind = ? AND post_id = ?", kind, postID).
		Find(&reposts).Error; err != nil {
		return err
	}
	for _, repost := range reposts {
		if err := incUserColumn(tx, repost.ReposterID, "num_reposts", -1); err != nil {
			return err
		}
	}

	// 评分、转发、收藏、关联、媒体全部清掉；计数都跟着帖子一起消失，
	// 只需回退帖主侧的聚合
	for _, model := range []interface{}{
		&models.Rating{}, &models.Repost{}, &models.Bookmark{},
		&models.PostHashtag{}, &models.PostMention{},
		&models.PostPhoto{}, &models.PostVideo{},
	} {
		if err := tx.Where("post_kind = ? AND post_id = ?", kind, postID).
			Delete(model).Error; err != nil {
			return err
		}
	}

	// 根评论的用户侧计数回退
	var comments []models.Comment
	if err := tx.Where("post_kind = ? AND post_id = ?", kind, postID).
		Find(&comments).Error; err != nil {
		return err
	}
	for _, comment := range comments {
		if comment.IsAncestor() {
			if err := incUserColumn(tx, comment.PosterID, userPostCommentColumn(kind), -1); err != nil {
				return err
			}
		}
		if err := tx.Where("comment_id = ?", comment.ID).
			Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := DeleteFlagFor(tx, comment.Ref()); err != nil {
			return err
		}
	}
	if err := tx.Where("post_kind = ? AND post_id = ?", kind, postID).
		Delete(&models.Comment{}).Error; err != nil {
		return err
	}

	// 置顶指向本帖的用户清掉置顶
	pinColumn := "pinned_non_artist_post_id"
	if kind == models.KindArtistPost {
		pinColumn = "pinned_artist_post_id"
	}
	if err := tx.Model(&models.User{}).
		Where(pinColumn+" = ?", postID).
		UpdateColumn(pinColumn, nil).Error; err != nil {
		return err
	}

	if err := DeleteFlagFor(tx, ref); err != nil {
		return err
	}
	if err := CountPostDeleted(tx, kind, base.PosterID, artistID); err != nil {
		return err
	}
	return tx.Delete(postModel(kind), postID).Error
}

// allowedStars 评分只允许 1/3/5
var allowedStars = map[int]bool{1: true, 3: true, 5: true}

// RatePost 评分，(帖子, 评分人) 唯一，星数累加进 num_stars
func (s *PostService) RatePost(db *gorm.DB, raterID uint, ref models.Ref, stars int) error {
	if !allowedStars[stars] {
		return ErrInvalid
	}
	return db.Transaction(func(tx *gorm.DB) error {
		base, _, err := loadBasePost(tx, ref)
		if err != nil {
			return err
		}

		rating := models.Rating{
			PostKind: ref.Kind,
			PostID:   ref.ID,
			RaterID:  raterID,
			NumStars: stars,
		}
		if err := tx.Create(&rating).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrInvalid
			}
			return err
		}
		if err := CountRatingCreated(tx, ref, stars); err != nil {
			return err
		}
		if base.PosterID != raterID {
			if _, err := s.Notify.Notify(tx, NotifyInput{
				Actor:        models.UserRef(raterID),
				RecipientIDs: []uint{base.PosterID},
				Verb:         fmt.Sprintf("rated your post %d stars", stars),
				Target:       ref,
				Category:     models.CategoryRating,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteRating 撤回评分。没评过不动计数
func (s *PostService) DeleteRating(db *gorm.DB, raterID uint, ref models.Ref) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var rating models.Rating
		if err := tx.Where("post_kind = ? AND post_id = ? AND rater_id = ?", ref.Kind, ref.ID, raterID).
			First(&rating).Error; err != nil {
			return ErrNotFound
		}
		res := tx.Delete(&rating)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return CountRatingDeleted(tx, ref, rating.NumStars)
	})
}

// RepostPost 转发。comment 非空算带评转发，计数分开维护
func (s *PostService) RepostPost(db *gorm.DB, reposterID uint, ref models.Ref, comment string) error {
	if len([]rune(comment)) > utils.MaxPostBodyLength {
		return ErrInvalid
	}
	return db.Transaction(func(tx *gorm.DB) error {
		base, _, err := loadBasePost(tx, ref)
		if err != nil {
			return err
		}
		repost := models.Repost{
			PostKind:   ref.Kind,
			PostID:     ref.ID,
			ReposterID: reposterID,
			Comment:    comment,
		}
		if err := tx.Create(&repost).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrInvalid
			}
			return err
		}
		if err := CountRepostCreated(tx, ref, reposterID, repost.IsSimple()); err != nil {
			return err
		}
		if base.PosterID != reposterID {
			if _, err := s.Notify.Notify(tx, NotifyInput{
				Actor:        models.UserRef(reposterID),
				RecipientIDs: []uint{base.PosterID},
				Verb:         "reposted your post",
				Target:       ref,
				Category:     models.CategoryRepost,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteRepost 撤回转发，按原分支回退计数
func (s *PostService) DeleteRepost(db *gorm.DB, reposterID uint, ref models.Ref) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var repost models.Repost
		if err := tx.Where("post_kind = ? AND post_id = ? AND reposter_id = ?", ref.Kind, ref.ID, reposterID).
			First(&repost).Error; err != nil {
			return ErrNotFound
		}
		res := tx.Delete(&repost)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return CountRepostDeleted(tx, ref, reposterID, repost.IsSimple())
	})
}

// BookmarkPost 收藏
func (s *PostService) BookmarkPost(db *gorm.DB, userID uint, ref models.Ref) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, _, err := loadBasePost(tx, ref); err != nil {
			return err
		}
		bookmark := models.Bookmark{PostKind: ref.Kind, PostID: ref.ID, UserID: userID}
		if err := tx.Create(&bookmark).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrInvalid
			}
			return err
		}
		return CountBookmarkCreated(tx, ref)
	})
}

// UnbookmarkPost 取消收藏，没收藏过不动计数
func (s *PostService) UnbookmarkPost(db *gorm.DB, userID uint, ref models.Ref) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_kind = ? AND post_id = ? AND user_id = ?", ref.Kind, ref.ID, userID).
			Delete(&models.Bookmark{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return CountBookmarkDeleted(tx, ref)
	})
}

// DownloadPost 下载：先查配额，插历史，num_downloads 只增不减
func (s *PostService) DownloadPost(db *gorm.DB, user *models.User, ref models.Ref) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, _, err := loadBasePost(tx, ref); err != nil {
			return err
		}
		ok, err := s.Accounts.CanDownload(tx, user)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRateLimited
		}

		download := models.Download{PostKind: ref.Kind, PostID: ref.ID, UserID: user.ID}
		if err := tx.Create(&download).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrInvalid
			}
			return err
		}
		return CountDownloadCreated(tx, ref)
	})
}

// CreateComment 评论。根评论计入作者侧的祖先评论数
func (s *PostService) CreateComment(db *gorm.DB, authorID uint, ref models.Ref, parentID *uint, body string) (*models.Comment, error) {
	if body == "" || len([]rune(body)) > utils.MaxCommentBodyLength {
		return nil, ErrInvalid
	}
	var comment models.Comment
	err := db.Transaction(func(tx *gorm.DB) error {
		base, _, err := loadBasePost(tx, ref)
		if err != nil {
			return err
		}
		if parentID != nil {
			var parent models.Comment
			if err := tx.Where("id = ? AND post_kind = ? AND post_id = ?", *parentID, ref.Kind, ref.ID).
				First(&parent).Error; err != nil {
				return ErrNotFound
			}
		}

		comment = models.Comment{
			PostKind: ref.Kind,
			PostID:   ref.ID,
			PosterID: authorID,
			ParentID: parentID,
			Body:     body,
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		if err := CountCommentCreated(tx, ref, authorID, comment.IsAncestor()); err != nil {
			return err
		}
		if base.PosterID != authorID {
			if _, err := s.Notify.Notify(tx, NotifyInput{
				Actor:        models.UserRef(authorID),
				RecipientIDs: []uint{base.PosterID},
				Verb:         "commented on your post",
				Target:       ref,
				ActionObject: comment.Ref(),
				Category:     models.CategoryComment,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment 作者或 staff 删除评论
func (s *PostService) DeleteComment(db *gorm.DB, actor *models.User, commentID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			return ErrNotFound
		}
		if comment.PosterID != actor.ID && !actor.IsStaff {
			return ErrNotOwner
		}

		if err := tx.Where("comment_id = ?", commentID).
			Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := DeleteFlagFor(tx, comment.Ref()); err != nil {
			return err
		}
		// 置顶评论被删时清掉帖子的置顶
		ref := models.Ref{Kind: comment.PostKind, ID: comment.PostID}
		if err := tx.Model(postModel(ref.Kind)).
			Where("pinned_comment_id = ?", commentID).
			UpdateColumn("pinned_comment_id", nil).Error; err != nil {
			return err
		}

		res := tx.Delete(&comment)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return CountCommentDeleted(tx, ref, comment.PosterID, comment.IsAncestor())
	})
}

// LikeComment 评论点赞
func (s *PostService) LikeComment(db *gorm.DB, likerID, commentID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			return ErrNotFound
		}
		like := models.CommentLike{CommentID: commentID, LikerID: likerID}
		if err := tx.Create(&like).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrInvalid
			}
			return err
		}
		if err := CountCommentLikeCreated(tx, commentID); err != nil {
			return err
		}
		if comment.PosterID != likerID {
			if _, err := s.Notify.Notify(tx, NotifyInput{
				Actor:        models.UserRef(likerID),
				RecipientIDs: []uint{comment.PosterID},
				Verb:         "liked your comment",
				Target:       comment.Ref(),
				Category:     models.CategoryCommentLike,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// UnlikeComment 取消点赞，没点过不动计数
func (s *PostService) UnlikeComment(db *gorm.DB, likerID, commentID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("comment_id = ? AND liker_id = ?", commentID, likerID).
			Delete(&models.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return CountCommentLikeDeleted(tx, commentID)
	})
}

// PinComment 帖主把一条评论置顶到帖子上
func (s *PostService) PinComment(db *gorm.DB, actorID uint, ref models.Ref, commentID *uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		base, _, err := loadBasePost(tx, ref)
		if err != nil {
			return err
		}
		if base.PosterID != actorID {
			return ErrNotOwner
		}
		if commentID != nil {
			var comment models.Comment
			if err := tx.Where("id = ? AND post_kind = ? AND post_id = ?", *commentID, ref.Kind, ref.ID).
				First(&comment).Error; err != nil {
				return ErrNotFound
			}
		}
		return tx.Model(postModel(ref.Kind)).
			Where("id = ?", ref.ID).
			UpdateColumn("pinned_comment_id", commentID).Error
	})
}

// PinPost 用户置顶自己的帖子。两种类型不能同时置顶
func (s *PostService) PinPost(db *gorm.DB, userID uint, artistPostID, nonArtistPostID *uint) error {
	if artistPostID != nil && nonArtistPostID != nil {
		return ErrMultiplePostPin
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return ErrNotFound
		}

		updates := map[string]interface{}{
			"pinned_artist_post_id":     nil,
			"pinned_non_artist_post_id": nil,
		}
		if artistPostID != nil {
			var post models.ArtistPost
			if err := tx.Where("id = ? AND poster_id = ?", *artistPostID, userID).
				First(&post).Error; err != nil {
				return ErrNotOwner
			}
			updates["pinned_artist_post_id"] = *artistPostID
		}
		if nonArtistPostID != nil {
			var post models.NonArtistPost
			if err := tx.Where("id = ? AND poster_id = ?", *nonArtistPostID, userID).
				First(&post).Error; err != nil {
				return ErrNotOwner
			}
			updates["pinned_non_artist_post_id"] = *nonArtistPostID
		}
		return tx.Model(&user).Updates(updates).Error
	})
}

// ArtistPostByUID 按短 UUID 查音乐人帖并累计浏览
func (s *PostService) ArtistPostByUID(db *gorm.DB, uid string) (*models.ArtistPost, error) {
	var post models.ArtistPost
	if err := db.Preload("Artist").Where("uid = ?", uid).First(&post).Error; err != nil {
		return nil, ErrNotFound
	}
	_ = incPostColumn(db, post.Ref(), "num_views", 1)
	post.NumViews++
	return &post, nil
}

// NonArtistPostByUID 按短 UUID 查普通帖并累计浏览
func (s *PostService) NonArtistPostByUID(db *gorm.DB, uid string) (*models.NonArtistPost, error) {
	var post models.NonArtistPost
	if err := db.Where("uid = ?", uid).First(&post).Error; err != nil {
		return nil, ErrNotFound
	}
	_ = incPostColumn(db, post.Ref(), "num_views", 1)
	post.NumViews++
	return &post, nil
}
