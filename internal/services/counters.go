package services

import (
	"github.com/Sergecodes/rmusiclines-sub000/internal/models"

	"gorm.io/gorm"
)

// 计数引擎：每条规则在触发事件的同一个事务里执行，
// 全部走 UpdateColumn + gorm.Expr 的字段相对更新，不在应用层读旧值。
// 删除事件由调用方先确认确实删掉了行（RowsAffected > 0）再调规则，
// 删除从未创建过的关系不会产生负增量。

// postModel 按引用类型返回帖子对应的表模型
func postModel(kind models.Kind) interface{} {
	if kind == models.KindArtistPost {
		return &models.ArtistPost{}
	}
	return &models.NonArtistPost{}
}

// incPostColumn 帖子列的原子相对更新
func incPostColumn(tx *gorm.DB, post models.Ref, column string, delta int) error {
	return tx.Model(postModel(post.Kind)).
		Where("id = ?", post.ID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).
		Error
}

// incUserColumn 用户列的原子相对更新
func incUserColumn(tx *gorm.DB, userID uint, column string, delta int) error {
	return tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).
		Error
}

// incArtistColumn 音乐人列的原子相对更新
func incArtistColumn(tx *gorm.DB, artistID uint, column string, delta int) error {
	return tx.Model(&models.Artist{}).
		Where("id = ?", artistID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).
		Error
}

// userPostCountColumn 帖子类型对应的用户计数列
func userPostCountColumn(kind models.Kind) string {
	if kind == models.KindArtistPost {
		return "num_artist_posts"
	}
	return "num_non_artist_posts"
}

// userPostCommentColumn 帖子类型对应的用户根评论计数列
func userPostCommentColumn(kind models.Kind) string {
	if kind == models.KindArtistPost {
		return "num_artist_post_comments"
	}
	return "num_non_artist_post_comments"
}

// CountPostCreated ±帖子 → poster.num_{artist|non_artist}_posts，音乐人帖同时 +artist.num_posts
func CountPostCreated(tx *gorm.DB, kind models.Kind, posterID uint, artistID uint) error {
	if err := incUserColumn(tx, posterID, userPostCountColumn(kind), 1); err != nil {
		return err
	}
	if kind == models.KindArtistPost {
		return incArtistColumn(tx, artistID, "num_posts", 1)
	}
	return nil
}

func CountPostDeleted(tx *gorm.DB, kind models.Kind, posterID uint, artistID uint) error {
	if err := incUserColumn(tx, posterID, userPostCountColumn(kind), -1); err != nil {
		return err
	}
	if kind == models.KindArtistPost {
		return incArtistColumn(tx, artistID, "num_posts", -1)
	}
	return nil
}

// CountRatingCreated +Rating(n) → post.num_stars += n
func CountRatingCreated(tx *gorm.DB, post models.Ref, stars int) error {
	return incPostColumn(tx, post, "num_stars", stars)
}

func CountRatingDeleted(tx *gorm.DB, post models.Ref, stars int) error {
	return incPostColumn(tx, post, "num_stars", -stars)
}

// repostColumn 按是否带评论选择计数列
func repostColumn(simple bool) string {
	if simple {
		return "num_simple_reposts"
	}
	return "num_comment_reposts"
}

// CountRepostCreated ±Repost → 按分支更新帖子计数，同时维护转发者的 num_reposts
func CountRepostCreated(tx *gorm.DB, post models.Ref, reposterID uint, simple bool) error {
	if err := incPostColumn(tx, post, repostColumn(simple), 1); err != nil {
		return err
	}
	return incUserColumn(tx, reposterID, "num_reposts", 1)
}

func CountRepostDeleted(tx *gorm.DB, post models.Ref, reposterID uint, simple bool) error {
	if err := incPostColumn(tx, post, repostColumn(simple), -1); err != nil {
		return err
	}
	return incUserColumn(tx, reposterID, "num_reposts", -1)
}

func CountBookmarkCreated(tx *gorm.DB, post models.Ref) error {
	return incPostColumn(tx, post, "num_bookmarks", 1)
}

func CountBookmarkDeleted(tx *gorm.DB, post models.Ref) error {
	return incPostColumn(tx, post, "num_bookmarks", -1)
}

// CountDownloadCreated 下载是历史记录，只增不减
func CountDownloadCreated(tx *gorm.DB, post models.Ref) error {
	return incPostColumn(tx, post, "num_downloads", 1)
}

// CountCommentCreated +Comment → post.num_comments；根评论再计入作者的对应列
func CountCommentCreated(tx *gorm.DB, post models.Ref, authorID uint, ancestor bool) error {
	if err := incPostColumn(tx, post, "num_comments", 1); err != nil {
		return err
	}
	if ancestor {
		return incUserColumn(tx, authorID, userPostCommentColumn(post.Kind), 1)
	}
	return nil
}

func CountCommentDeleted(tx *gorm.DB, post models.Ref, authorID uint, ancestor bool) error {
	if err := incPostColumn(tx, post, "num_comments", -1); err != nil {
		return err
	}
	if ancestor {
		return incUserColumn(tx, authorID, userPostCommentColumn(post.Kind), -1)
	}
	return nil
}

func CountCommentLikeCreated(tx *gorm.DB, commentID uint) error {
	return tx.Model(&models.Comment{}).
		Where("id = ?", commentID).
		UpdateColumn("num_likes", gorm.Expr("num_likes + ?", 1)).
		Error
}

func CountCommentLikeDeleted(tx *gorm.DB, commentID uint) error {
	return tx.Model(&models.Comment{}).
		Where("id = ?", commentID).
		UpdateColumn("num_likes", gorm.Expr("num_likes - ?", 1)).
		Error
}

// CountUserFollowCreated +UserFollow → follower.num_following 和 followed.num_followers
func CountUserFollowCreated(tx *gorm.DB, followerID, followedID uint) error {
	if err := incUserColumn(tx, followerID, "num_following", 1); err != nil {
		return err
	}
	return incUserColumn(tx, followedID, "num_followers", 1)
}

func CountUserFollowDeleted(tx *gorm.DB, followerID, followedID uint) error {
	if err := incUserColumn(tx, followerID, "num_following", -1); err != nil {
		return err
	}
	return incUserColumn(tx, followedID, "num_followers", -1)
}

func CountArtistFollowCreated(tx *gorm.DB, artistID uint) error {
	return incArtistColumn(tx, artistID, "num_followers", 1)
}

func CountArtistFollowDeleted(tx *gorm.DB, artistID uint) error {
	return incArtistColumn(tx, artistID, "num_followers", -1)
}
