package services

import (
	"log"
	"sync"
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/models"

	"gorm.io/gorm"
)

// ReconcileService 异步校准冗余计数的服务。正常写路径里计数和
// 数据在同一个事务里维护，这里兜底修正历史数据或罕见的漂移
type ReconcileService struct {
	conn    *gorm.DB
	queue   chan models.Ref // 待校准的对象队列
	pending map[models.Ref]bool
	mu      sync.Mutex
}

var (
	reconcileService *ReconcileService
	reconcileOnce    sync.Once
)

// GetReconcileService 获取单例校准服务
func GetReconcileService(conn *gorm.DB) *ReconcileService {
	reconcileOnce.Do(func() {
		reconcileService = &ReconcileService{
			conn:    conn,
			queue:   make(chan models.Ref, 1000), // 缓冲队列，防止阻塞
			pending: make(map[models.Ref]bool),
		}
		// 启动后台 worker
		go reconcileService.worker()
	})
	return reconcileService
}

// ScheduleReconcile 把对象加入校准队列（异步）
// 使用去重机制避免短时间内重复校准同一对象
func (s *ReconcileService) ScheduleReconcile(ref models.Ref) {
	s.mu.Lock()
	if s.pending[ref] {
		// 已在队列中，跳过
		s.mu.Unlock()
		return
	}
	s.pending[ref] = true
	s.mu.Unlock()

	// 非阻塞发送到队列
	select {
	case s.queue <- ref:
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, ref)
		s.mu.Unlock()
		log.Printf("校准队列已满，跳过 %s", ref)
	}
}

// worker 后台处理队列中的校准请求
func (s *ReconcileService) worker() {
	batch := make([]models.Ref, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case ref := <-s.queue:
			batch = append(batch, ref)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *ReconcileService) processBatch(refs []models.Ref) {
	for _, ref := range refs {
		if err := ReconcileRef(s.conn, ref); err != nil {
			log.Printf("校准 %s 失败: %v", ref, err)
		}

		s.mu.Lock()
		delete(s.pending, ref)
		s.mu.Unlock()
	}
}

// ReconcileRef 按引用类型分发到具体的校准函数
func ReconcileRef(conn *gorm.DB, ref models.Ref) error {
	switch ref.Kind {
	case models.KindUser:
		return ReconcileUser(conn, ref.ID)
	case models.KindArtist:
		return ReconcileArtist(conn, ref.ID)
	case models.KindArtistPost, models.KindNonArtistPost:
		return ReconcilePost(conn, ref.Kind, ref.ID)
	default:
		return ErrInvalid
	}
}

// ReconcilePost 从基础关系重算一个帖子的全部冗余计数。
// num_views 和 num_downloads 只增不减，历史行就是权威，照常重算
func ReconcilePost(conn *gorm.DB, kind models.Kind, postID uint) error {
	counts := map[string]interface{}{}

	var stars struct{ Total int64 }
	if err := conn.Model(&models.Rating{}).
		Select("COALESCE(SUM(num_stars), 0) AS total").
		Where("post_kind = ? AND post_id = ?", kind, postID).
		Scan(&stars).Error; err != nil {
		return err
	}
	counts["num_stars"] = stars.Total

	var bookmarks int64
	if err := conn.Model(&models.Bookmark{}).
		Where("post_kind = ? AND post_id = ?", kind, postID).
		Count(&bookmarks).Error; err != nil {
		return err
	}
	counts["num_bookmarks"] = bookmarks

	var downloads int64
	if err := conn.Model(&models.Download{}).
		Where("post_kind = ? AND post_id = ?", kind, postID).
		Count(&downloads).Error; err != nil {
		return err
	}
	counts["num_downloads"] = downloads

	var simpleReposts, commentReposts int64
	if err := conn.Model(&models.Repost{}).
		Where("post_kind = ? AND post_id = ? AND comment = ''", kind, postID).
		Count(&simpleReposts).Error; err != nil {
		return err
	}
	if err := conn.Model(&models.Repost{}).
		Where("post_kind = ? AND post_id = ? AND comment <> ''", kind, postID).
		Count(&commentReposts).Error; err != nil {
		return err
	}
	counts["num_simple_reposts"] = simpleReposts
	counts["num_comment_reposts"] = commentReposts

	var comments int64
	if err := conn.Model(&models.Comment{}).
		Where("post_kind = ? AND post_id = ?", kind, postID).
		Count(&comments).Error; err != nil {
		return err
	}
	counts["num_comments"] = comments

	return conn.Model(postModel(kind)).
		Where("id = ?", postID).
		UpdateColumns(counts).Error
}

// ReconcileUser 重算用户侧的关注、发帖、转发和祖先评论计数
func ReconcileUser(conn *gorm.DB, userID uint) error {
	counts := map[string]interface{}{}

	var followers, following int64
	if err := conn.Model(&models.UserFollow{}).
		Where("followed_id = ?", userID).Count(&followers).Error; err != nil {
		return err
	}
	if err := conn.Model(&models.UserFollow{}).
		Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return err
	}
	counts["num_followers"] = followers
	counts["num_following"] = following

	var artistPosts, nonArtistPosts int64
	if err := conn.Model(&models.ArtistPost{}).
		Where("poster_id = ?", userID).Count(&artistPosts).Error; err != nil {
		return err
	}
	if err := conn.Model(&models.NonArtistPost{}).
		Where("poster_id = ?", userID).Count(&nonArtistPosts).Error; err != nil {
		return err
	}
	counts["num_artist_posts"] = artistPosts
	counts["num_non_artist_posts"] = nonArtistPosts

	var reposts int64
	if err := conn.Model(&models.Repost{}).
		Where("reposter_id = ?", userID).Count(&reposts).Error; err != nil {
		return err
	}
	counts["num_reposts"] = reposts

	// 只有根评论计入用户侧评论数
	var artistPostComments, nonArtistPostComments int64
	if err := conn.Model(&models.Comment{}).
		Where("poster_id = ? AND parent_id IS NULL AND post_kind = ?", userID, models.KindArtistPost).
		Count(&artistPostComments).Error; err != nil {
		return err
	}
	if err := conn.Model(&models.Comment{}).
		Where("poster_id = ? AND parent_id IS NULL AND post_kind = ?", userID, models.KindNonArtistPost).
		Count(&nonArtistPostComments).Error; err != nil {
		return err
	}
	counts["num_artist_post_comments"] = artistPostComments
	counts["num_non_artist_post_comments"] = nonArtistPostComments

	return conn.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumns(counts).Error
}

// ReconcileArtist 重算音乐人的关注数和帖子数
func ReconcileArtist(conn *gorm.DB, artistID uint) error {
	var followers, posts int64
	if err := conn.Model(&models.ArtistFollow{}).
		Where("artist_id = ?", artistID).Count(&followers).Error; err != nil {
		return err
	}
	if err := conn.Model(&models.ArtistPost{}).
		Where("artist_id = ?", artistID).Count(&posts).Error; err != nil {
		return err
	}
	return conn.Model(&models.Artist{}).
		Where("id = ?", artistID).
		UpdateColumns(map[string]interface{}{
			"num_followers": followers,
			"num_posts":     posts,
		}).Error
}

// ReconcileAll 全量校准，离线跑或夜间定时任务用
func ReconcileAll(conn *gorm.DB) error {
	var userIDs []uint
	if err := conn.Model(&models.User{}).Pluck("id", &userIDs).Error; err != nil {
		return err
	}
	for _, id := range userIDs {
		if err := ReconcileUser(conn, id); err != nil {
			return err
		}
	}

	var artistIDs []uint
	if err := conn.Model(&models.Artist{}).Pluck("id", &artistIDs).Error; err != nil {
		return err
	}
	for _, id := range artistIDs {
		if err := ReconcileArtist(conn, id); err != nil {
			return err
		}
	}

	var postIDs []uint
	if err := conn.Model(&models.ArtistPost{}).Pluck("id", &postIDs).Error; err != nil {
		return err
	}
	for _, id := range postIDs {
		if err := ReconcilePost(conn, models.KindArtistPost, id); err != nil {
			return err
		}
	}
	postIDs = postIDs[:0]
	if err := conn.Model(&models.NonArtistPost{}).Pluck("id", &postIDs).Error; err != nil {
		return err
	}
	for _, id := range postIDs {
		if err := ReconcilePost(conn, models.KindNonArtistPost, id); err != nil {
			return err
		}
	}
	return nil
}

// StartNightlyReconcile 每天凌晨 3 点全量校准一次
func (s *ReconcileService) StartNightlyReconcile() {
	go func() {
		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, now.Location())
			if now.After(next) {
				next = next.Add(24 * time.Hour)
			}
			time.Sleep(time.Until(next))

			log.Println("开始全量校准冗余计数...")
			if err := ReconcileAll(s.conn); err != nil {
				log.Printf("全量校准失败: %v", err)
			} else {
				log.Println("全量校准完成")
			}
		}
	}()
}
