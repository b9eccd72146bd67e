package services

import (
	"testing"

	"github.com/Sergecodes/rmusiclines-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyFanout(t *testing.T) {
	conn := testDB(t)
	notify := NewNotificationService(true)

	actor := createTestUser(t, conn)
	a := createTestUser(t, conn)
	b := createTestUser(t, conn)
	mod := createTestMod(t, conn)

	// 收件人重复 + 全体版主，去重后每人一条
	got, err := notify.Notify(conn, NotifyInput{
		Actor:        models.UserRef(actor.ID),
		RecipientIDs: []uint{a.ID, b.ID, a.ID},
		ToMods:       true,
		Verb:         "did something",
	})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	for _, u := range []*models.User{a, b, mod} {
		count, err := notify.UnreadCount(conn, u.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count, "user %d", u.ID)
	}

	// 缺省级别和分类
	assert.Equal(t, models.NotificationLevelInfo, got[0].Level)
	assert.Equal(t, models.CategoryGeneral, got[0].Category)
}

func TestMarkAsReadOwnership(t *testing.T) {
	conn := testDB(t)
	notify := NewNotificationService(true)

	owner := createTestUser(t, conn)
	other := createTestUser(t, conn)

	got, err := notify.Notify(conn, NotifyInput{
		RecipientIDs: []uint{owner.ID},
		Verb:         "ping",
	})
	require.NoError(t, err)
	id := got[0].ID

	// 别人动不了
	assert.ErrorIs(t, notify.MarkAsRead(conn, other.ID, id), ErrNotFound)

	require.NoError(t, notify.MarkAsRead(conn, owner.ID, id))
	count, err := notify.UnreadCount(conn, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, notify.MarkAsUnread(conn, owner.ID, id))
	count, _ = notify.UnreadCount(conn, owner.ID)
	assert.EqualValues(t, 1, count)
}

func TestSoftDeleteLifecycle(t *testing.T) {
	conn := testDB(t)
	notify := NewNotificationService(true)

	user := createTestUser(t, conn)
	got, err := notify.Notify(conn, NotifyInput{RecipientIDs: []uint{user.ID}, Verb: "one"})
	require.NoError(t, err)
	_, err = notify.Notify(conn, NotifyInput{RecipientIDs: []uint{user.ID}, Verb: "two"})
	require.NoError(t, err)

	require.NoError(t, notify.Delete(conn, user.ID, got[0].ID))

	// 软删后行还在，Active/Deleted 视图分流
	all, err := notify.All(conn, user.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := notify.Active(conn, user.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	deleted, err := notify.Deleted(conn, user.ID)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)

	// 未读视图排除已删除的
	unread, err := notify.Unread(conn, user.ID)
	require.NoError(t, err)
	assert.Len(t, unread, 1)
}

func TestHardDeleteMode(t *testing.T) {
	conn := testDB(t)
	notify := NewNotificationService(false)

	user := createTestUser(t, conn)
	got, err := notify.Notify(conn, NotifyInput{RecipientIDs: []uint{user.ID}, Verb: "one"})
	require.NoError(t, err)

	// 软删视图在硬删模式下是配置错误
	_, err = notify.Active(conn, user.ID)
	assert.ErrorIs(t, err, ErrMisconfigured)
	_, err = notify.Deleted(conn, user.ID)
	assert.ErrorIs(t, err, ErrMisconfigured)

	// 删除直接删行
	require.NoError(t, notify.Delete(conn, user.ID, got[0].ID))
	all, err := notify.All(conn, user.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMarkAsSentFlow(t *testing.T) {
	conn := testDB(t)
	notify := NewNotificationService(true)

	user := createTestUser(t, conn)
	_, err := notify.Notify(conn, NotifyInput{RecipientIDs: []uint{user.ID}, Verb: "one"})
	require.NoError(t, err)
	_, err = notify.Notify(conn, NotifyInput{RecipientIDs: []uint{user.ID}, Verb: "two"})
	require.NoError(t, err)

	unsent, err := notify.Unsent(conn, user.ID)
	require.NoError(t, err)
	assert.Len(t, unsent, 2)

	require.NoError(t, notify.MarkAsSent(conn, user.ID))

	unsent, err = notify.Unsent(conn, user.ID)
	require.NoError(t, err)
	assert.Empty(t, unsent)
	sent, err := notify.Sent(conn, user.ID)
	require.NoError(t, err)
	assert.Len(t, sent, 2)
}

func TestNotifyStripsDescriptionMarkup(t *testing.T) {
	conn := testDB(t)
	notify := NewNotificationService(true)

	actor := createTestUser(t, conn)
	recipient := createTestUser(t, conn)

	got, err := notify.Notify(conn, NotifyInput{
		Actor:        models.UserRef(actor.ID),
		RecipientIDs: []uint{recipient.ID},
		Verb:         "reposted your post",
		Description:  `loved it <b>so much</b>`,
		Target:       models.UserRef(recipient.ID),
		Category:     models.CategoryRepost,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "loved it so much", got[0].Description)
}
