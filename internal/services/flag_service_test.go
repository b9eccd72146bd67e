package services

import (
	"testing"

	"github.com/Sergecodes/rmusiclines-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInstanceStateMachine(t *testing.T) {
	conn := testDB(t)
	notify := NewNotificationService(true)
	svc := NewFlagService(testConfig(), notify)

	poster := createTestUser(t, conn)
	post := createTestPost(t, conn, poster.ID)
	target := post.Ref()

	// 第一条举报：计数 1，未超过 FlagsAllowed，保持 UNFLAGGED
	reporter1 := createTestUser(t, conn)
	flag, err := svc.CreateInstance(conn, reporter1.ID, target, models.FlagReasonSpam, "")
	require.NoError(t, err)
	assert.Equal(t, 1, flag.Count)
	assert.Equal(t, models.FlagStateUnflagged, flag.State)
	require.NotNil(t, flag.CreatorID)
	assert.Equal(t, poster.ID, *flag.CreatorID)

	// 第二条举报：跨过阈值进入 FLAGGED
	reporter2 := createTestUser(t, conn)
	flag, err = svc.CreateInstance(conn, reporter2.ID, target, models.FlagReasonViolence, "")
	require.NoError(t, err)
	assert.Equal(t, 2, flag.Count)
	assert.Equal(t, models.FlagStateFlagged, flag.State)

	// 作者收到警告通知
	got, err := notify.Unread(conn, poster.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.CategoryFlag, got[0].Category)
	assert.Equal(t, models.NotificationLevelWarning, got[0].Level)
}

func TestCreateInstanceModeratorFanout(t *testing.T) {
	conn := testDB(t)
	notify := NewNotificationService(true)
	svc := NewFlagService(testConfig(), notify)

	mod := createTestMod(t, conn)
	poster := createTestUser(t, conn)
	post := createTestPost(t, conn, poster.ID)

	for _, reporter := range []*models.User{createTestUser(t, conn), createTestUser(t, conn)} {
		_, err := svc.CreateInstance(conn, reporter.ID, post.Ref(), models.FlagReasonSpam, "")
		require.NoError(t, err)
	}

	got, err := notify.Unread(conn, mod.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.CategoryReported, got[0].Category)
}

func TestCreateInstanceValidation(t *testing.T) {
	conn := testDB(t)
	svc := NewFlagService(testConfig(), NewNotificationService(true))

	poster := createTestUser(t, conn)
	post := createTestPost(t, conn, poster.ID)
	reporter := createTestUser(t, conn)

	// 举报自己的帖子
	_, err := svc.CreateInstance(conn, poster.ID, post.Ref(), models.FlagReasonSpam, "")
	assert.ErrorIs(t, err, ErrCannotFlagOwnPost)

	// 未知原因
	_, err = svc.CreateInstance(conn, reporter.ID, post.Ref(), "NONSENSE", "")
	assert.ErrorIs(t, err, ErrInvalid)

	// "其他" 槽位必须带说明
	_, err = svc.CreateInstance(conn, reporter.ID, post.Ref(), models.FlagReasonHarassment, "")
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = svc.CreateInstance(conn, reporter.ID, post.Ref(), models.FlagReasonHarassment, "keeps sending me messages")
	assert.NoError(t, err)

	// 同一人重复举报
	_, err = svc.CreateInstance(conn, reporter.ID, post.Ref(), models.FlagReasonSpam, "")
	assert.ErrorIs(t, err, ErrDuplicateFlag)

	// 不存在的目标
	_, err = svc.CreateInstance(conn, reporter.ID, models.PostRef(models.KindNonArtistPost, 99999), models.FlagReasonSpam, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteInstanceRecomputesState(t *testing.T) {
	conn := testDB(t)
	svc := NewFlagService(testConfig(), NewNotificationService(true))

	poster := createTestUser(t, conn)
	post := createTestPost(t, conn, poster.ID)
	r1 := createTestUser(t, conn)
	r2 := createTestUser(t, conn)

	_, err := svc.CreateInstance(conn, r1.ID, post.Ref(), models.FlagReasonSpam, "")
	require.NoError(t, err)
	flag, err := svc.CreateInstance(conn, r2.ID, post.Ref(), models.FlagReasonSpam, "")
	require.NoError(t, err)
	require.Equal(t, models.FlagStateFlagged, flag.State)

	// 撤回一条，退回 UNFLAGGED
	require.NoError(t, svc.DeleteInstance(conn, r2.ID, post.Ref()))
	var reloaded models.Flag
	require.NoError(t, conn.Where("target_kind = ? AND target_id = ?", post.Ref().Kind, post.ID).First(&reloaded).Error)
	assert.Equal(t, 1, reloaded.Count)
	assert.Equal(t, models.FlagStateUnflagged, reloaded.State)

	// 没举报过的人撤回
	stranger := createTestUser(t, conn)
	assert.ErrorIs(t, svc.DeleteInstance(conn, stranger.ID, post.Ref()), ErrNotFlagged)
}

func TestAutoDeletePostAtThreshold(t *testing.T) {
	conn := testDB(t)
	notify := NewNotificationService(true)
	svc := NewFlagService(testConfig(), notify)

	poster := createTestUser(t, conn)
	post := createTestPost(t, conn, poster.ID)

	// 给帖子挂上一条评论和一个评分，验证级联
	commenter := createTestUser(t, conn)
	comment := models.Comment{PostKind: post.Ref().Kind, PostID: post.ID, PosterID: commenter.ID, Body: "nice"}
	require.NoError(t, conn.Create(&comment).Error)
	rating := models.Rating{PostKind: post.Ref().Kind, PostID: post.ID, RaterID: commenter.ID, NumStars: 5}
	require.NoError(t, conn.Create(&rating).Error)

	for i := 0; i < 5; i++ {
		reporter := createTestUser(t, conn)
		_, err := svc.CreateInstance(conn, reporter.ID, post.Ref(), models.FlagReasonSpam, "")
		require.NoError(t, err)
	}

	// 帖子和附属数据全部消失
	var count int64
	conn.Model(&models.NonArtistPost{}).Where("id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
	conn.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
	conn.Model(&models.Rating{}).Where("post_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)
	conn.Model(&models.Flag{}).Where("target_id = ?", post.ID).Count(&count)
	assert.Zero(t, count)

	// 作者收到删除通知，通知不带 target
	got, err := notify.Unread(conn, poster.ID)
	require.NoError(t, err)
	var deleted *models.Notification
	for i := range got {
		if got[i].Category == models.CategoryFlaggedContentDeleted {
			deleted = &got[i]
		}
	}
	require.NotNil(t, deleted)
	assert.True(t, deleted.Target.IsZero())
}

func TestUserFlagThresholds(t *testing.T) {
	conn := testDB(t)
	notify := NewNotificationService(true)
	svc := NewFlagService(testConfig(), notify)
	seedSiteServices(t, conn)

	offender := createTestUser(t, conn)
	target := models.UserRef(offender.ID)

	for i := 0; i < 5; i++ {
		reporter := createTestUser(t, conn)
		_, err := svc.CreateInstance(conn, reporter.ID, target, models.FlagReasonHateSpeech, "")
		require.NoError(t, err)
	}

	// 第 3 条举报时收到账号被举报的警告
	got, err := notify.Unread(conn, offender.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.CategoryFlag, got[0].Category)

	// 第 5 条触发自动封禁
	suspended, err := IsSuspended(conn, offender.ID)
	require.NoError(t, err)
	assert.True(t, suspended)
}

func TestToggleState(t *testing.T) {
	conn := testDB(t)
	svc := NewFlagService(testConfig(), NewNotificationService(true))

	poster := createTestUser(t, conn)
	post := createTestPost(t, conn, poster.ID)
	mod := createTestMod(t, conn)

	r1 := createTestUser(t, conn)
	r2 := createTestUser(t, conn)
	_, err := svc.CreateInstance(conn, r1.ID, post.Ref(), models.FlagReasonSpam, "")
	require.NoError(t, err)
	_, err = svc.CreateInstance(conn, r2.ID, post.Ref(), models.FlagReasonSpam, "")
	require.NoError(t, err)

	// FLAGGED → REJECTED
	flag, err := svc.ToggleState(conn, post.Ref(), models.FlagStateRejected, mod.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FlagStateRejected, flag.State)
	require.NotNil(t, flag.ModeratorID)
	assert.Equal(t, mod.ID, *flag.ModeratorID)

	// 终态不被后来的举报打破
	r3 := createTestUser(t, conn)
	flag, err = svc.CreateInstance(conn, r3.ID, post.Ref(), models.FlagReasonSpam, "")
	require.NoError(t, err)
	assert.Equal(t, models.FlagStateRejected, flag.State)

	// 再次 REJECTED 是撤销，退回 FLAGGED
	flag, err = svc.ToggleState(conn, post.Ref(), models.FlagStateRejected, mod.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FlagStateFlagged, flag.State)

	// 只接受 REJECTED / RESOLVED
	_, err = svc.ToggleState(conn, post.Ref(), models.FlagStateUnflagged, mod.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRebalanceStates(t *testing.T) {
	conn := testDB(t)
	svc := NewFlagService(testConfig(), NewNotificationService(true))

	poster := createTestUser(t, conn)
	post := createTestPost(t, conn, poster.ID)
	mod := createTestMod(t, conn)

	r1 := createTestUser(t, conn)
	r2 := createTestUser(t, conn)
	_, err := svc.CreateInstance(conn, r1.ID, post.Ref(), models.FlagReasonSpam, "")
	require.NoError(t, err)
	flag, err := svc.CreateInstance(conn, r2.ID, post.Ref(), models.FlagReasonSpam, "")
	require.NoError(t, err)
	require.Equal(t, models.FlagStateFlagged, flag.State)

	// 终态不受重算影响
	otherPoster := createTestUser(t, conn)
	other := createTestPost(t, conn, otherPoster.ID)
	_, err = svc.CreateInstance(conn, r1.ID, other.Ref(), models.FlagReasonSpam, "")
	require.NoError(t, err)
	_, err = svc.CreateInstance(conn, r2.ID, other.Ref(), models.FlagReasonSpam, "")
	require.NoError(t, err)
	resolved, err := svc.ToggleState(conn, other.Ref(), models.FlagStateResolved, mod.ID)
	require.NoError(t, err)
	require.Equal(t, models.FlagStateResolved, resolved.State)

	// 调高容忍阈值后重算，非终态的降回 UNFLAGGED
	svc.Cfg.FlagsAllowed = 5
	require.NoError(t, svc.RebalanceStates(conn))

	var first, second models.Flag
	require.NoError(t, conn.Where("target_kind = ? AND target_id = ?",
		post.Ref().Kind, post.ID).First(&first).Error)
	assert.Equal(t, models.FlagStateUnflagged, first.State)
	require.NoError(t, conn.Where("target_kind = ? AND target_id = ?",
		other.Ref().Kind, other.ID).First(&second).Error)
	assert.Equal(t, models.FlagStateResolved, second.State)
}
