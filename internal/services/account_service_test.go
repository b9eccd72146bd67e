package services

import (
	"testing"
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAccountFixture(conn *gorm.DB) (*AccountService, *TokenService, *NotificationService) {
	cfg := testConfig()
	notify := NewNotificationService(true)
	tokens := NewTokenService(cfg)
	mail := NewMailService(cfg)
	return NewAccountService(cfg, tokens, notify, mail), tokens, notify
}

func TestRegisterAndLogin(t *testing.T) {
	conn := testDB(t)
	svc, _, _ := newAccountFixture(conn)

	user, err := svc.Register(conn, RegisterInput{
		Username:  "Wizkid_Fan",
		Email:     "fan@example.com",
		Password:  "password123",
		BirthDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "wizkid_fan", user.UsernameLower)
	assert.True(t, user.IsActive)

	// 用户名大小写不敏感唯一
	_, err = svc.Register(conn, RegisterInput{
		Username:  "WIZKID_FAN",
		Email:     "other@example.com",
		Password:  "password123",
		BirthDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInvalid)

	// 登录忽略用户名大小写
	logged, access, refresh, err := svc.Login(conn, "wizkid_FAN", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	_, _, _, err = svc.Login(conn, "wizkid_fan", "wrong")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRegisterValidation(t *testing.T) {
	conn := testDB(t)
	svc, _, _ := newAccountFixture(conn)

	// 非法用户名
	_, err := svc.Register(conn, RegisterInput{
		Username:  "has spaces",
		Email:     "a@example.com",
		Password:  "password123",
		BirthDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInvalid)

	// 不满 13 岁
	_, err = svc.Register(conn, RegisterInput{
		Username:  "tooyoung",
		Email:     "b@example.com",
		Password:  "password123",
		BirthDate: time.Now().AddDate(-10, 0, 0),
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyAccount(t *testing.T) {
	conn := testDB(t)
	svc, tokens, _ := newAccountFixture(conn)

	user, err := svc.Register(conn, RegisterInput{
		Username:  "verifyme",
		Email:     "verify@example.com",
		Password:  "password123",
		BirthDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	token, err := tokens.CreateActivationToken(user.ID, user.TokenVersion, user.UsernameLower)
	require.NoError(t, err)

	verified, err := svc.VerifyAccount(conn, token)
	require.NoError(t, err)
	assert.True(t, verified.Type.IsVerified)
	assert.NotNil(t, verified.VerifiedOn)

	// 重复验证
	_, err = svc.VerifyAccount(conn, token)
	assert.ErrorIs(t, err, ErrAlreadyVerified)

	// 错的作用域
	access, err := tokens.CreateAccessToken(user.ID, user.TokenVersion)
	require.NoError(t, err)
	_, err = svc.VerifyAccount(conn, access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChangeUsernameCooldown(t *testing.T) {
	conn := testDB(t)
	svc, _, _ := newAccountFixture(conn)

	user := createTestUser(t, conn)
	oldVersion := user.TokenVersion

	changed, err := svc.ChangeUsername(conn, user.ID, "fresh_name")
	require.NoError(t, err)
	assert.Equal(t, "fresh_name", changed.Username)
	assert.Equal(t, oldVersion+1, changed.TokenVersion)

	// 冷却期内再改
	_, err = svc.ChangeUsername(conn, user.ID, "another_name")
	assert.ErrorIs(t, err, ErrNotEditable)

	// 把上次改名时间拨回 16 天前，可以再改
	past := time.Now().Add(-16 * 24 * time.Hour)
	require.NoError(t, conn.Model(&models.User{}).Where("id = ?", user.ID).
		Update("last_changed_username_on", past).Error)
	_, err = svc.ChangeUsername(conn, user.ID, "another_name")
	assert.NoError(t, err)
}

func TestEmailChangeTwoStep(t *testing.T) {
	conn := testDB(t)
	svc, tokens, _ := newAccountFixture(conn)

	user := createTestUser(t, conn)

	// 口令错误
	assert.ErrorIs(t, svc.RequestEmailChange(conn, user.ID, "new@example.com", "wrong"), ErrInvalid)
	// 新旧相同
	assert.ErrorIs(t, svc.RequestEmailChange(conn, user.ID, user.Email, "password123"), ErrSameEmail)
	// 已被活跃账号占用
	other := createTestUser(t, conn)
	assert.ErrorIs(t, svc.RequestEmailChange(conn, user.ID, other.Email, "password123"), ErrEmailInUse)

	require.NoError(t, svc.RequestEmailChange(conn, user.ID, "new@example.com", "password123"))

	token, err := tokens.CreateActivationToken(user.ID, user.TokenVersion, user.UsernameLower)
	require.NoError(t, err)

	changed, err := svc.ConfirmEmailChange(conn, token)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", changed.Email)
	assert.Equal(t, user.TokenVersion+1, changed.TokenVersion)

	// 绑定一次性：再确认报 already_verified
	_, err = svc.ConfirmEmailChange(conn, token)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestMonthlyDownloadWindow(t *testing.T) {
	conn := testDB(t)
	svc, _, _ := newAccountFixture(conn)
	svc.Cfg.MonthlyDownloadLimit = 2

	poster := createTestUser(t, conn)
	user := createTestUser(t, conn)
	require.NoError(t, conn.Preload("Type").First(user, user.ID).Error)

	p1 := createTestPost(t, conn, poster.ID)
	p2 := createTestPost(t, conn, poster.ID)

	// 上个月的下载不占本月额度
	lastMonth := time.Now().AddDate(0, -1, 0)
	old := models.Download{PostKind: p1.Ref().Kind, PostID: p1.ID, UserID: user.ID, CreatedAt: lastMonth}
	require.NoError(t, conn.Create(&old).Error)

	ok, err := svc.CanDownload(conn, user)
	require.NoError(t, err)
	assert.True(t, ok)

	// 本月打满额度
	require.NoError(t, conn.Create(&models.Download{PostKind: p2.Ref().Kind, PostID: p2.ID, UserID: user.ID}).Error)
	p3 := createTestPost(t, conn, poster.ID)
	require.NoError(t, conn.Create(&models.Download{PostKind: p3.Ref().Kind, PostID: p3.ID, UserID: user.ID}).Error)

	ok, err = svc.CanDownload(conn, user)
	require.NoError(t, err)
	assert.False(t, ok)

	// 超管不限量
	user.IsSuperuser = true
	ok, err = svc.CanDownload(conn, user)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSuspendRules(t *testing.T) {
	conn := testDB(t)
	svc, _, _ := newAccountFixture(conn)

	mod := createTestMod(t, conn)
	target := createTestUser(t, conn)

	suspension, err := svc.Suspend(conn, mod.ID, target.ID, 24*time.Hour, "spamming")
	require.NoError(t, err)
	assert.True(t, suspension.IsActive())

	suspended, err := IsSuspended(conn, target.ID)
	require.NoError(t, err)
	assert.True(t, suspended)

	// staff 不可被封
	staff := createTestUser(t, conn)
	require.NoError(t, conn.Model(&models.User{}).Where("id = ?", staff.ID).
		Update("is_staff", true).Error)
	_, err = svc.Suspend(conn, mod.ID, staff.ID, time.Hour, "nope")
	assert.ErrorIs(t, err, ErrNotPermitted)

	// 软删提前终止封禁，记录保留
	require.NoError(t, svc.DeleteSuspension(conn, suspension.ID, false))
	suspended, err = IsSuspended(conn, target.ID)
	require.NoError(t, err)
	assert.False(t, suspended)
	var count int64
	conn.Model(&models.Suspension{}).Count(&count)
	assert.EqualValues(t, 1, count)

	// 已结束的封禁不能再提前终止
	assert.ErrorIs(t, svc.DeleteSuspension(conn, suspension.ID, false), ErrNotEditable)

	// 硬删移除记录
	require.NoError(t, svc.DeleteSuspension(conn, suspension.ID, true))
	conn.Model(&models.Suspension{}).Count(&count)
	assert.Zero(t, count)
}

func TestSoftDeleteUserFreesEmail(t *testing.T) {
	conn := testDB(t)
	svc, _, _ := newAccountFixture(conn)

	user := createTestUser(t, conn)
	require.NoError(t, svc.DeleteUser(conn, user.ID, false))

	var reloaded models.User
	require.NoError(t, conn.First(&reloaded, user.ID).Error)
	assert.False(t, reloaded.IsActive)
	assert.NotNil(t, reloaded.DeactivatedOn)

	// 停用账号不再占用邮箱
	taken, err := activeEmailTaken(conn, user.Email, 0)
	require.NoError(t, err)
	assert.False(t, taken)

	// 停用后不能登录
	_, _, _, err = svc.Login(conn, reloaded.Username, "password123")
	assert.ErrorIs(t, err, ErrNotPermitted)
}

func TestFollowAndBlock(t *testing.T) {
	conn := testDB(t)
	svc, _, notify := newAccountFixture(conn)

	alice := createTestUser(t, conn)
	bob := createTestUser(t, conn)

	assert.ErrorIs(t, svc.FollowUser(conn, alice.ID, alice.ID), ErrSelfFollow)

	require.NoError(t, svc.FollowUser(conn, alice.ID, bob.ID))
	require.NoError(t, svc.FollowUser(conn, bob.ID, alice.ID))

	var a, b models.User
	require.NoError(t, conn.First(&a, alice.ID).Error)
	require.NoError(t, conn.First(&b, bob.ID).Error)
	assert.Equal(t, 1, a.NumFollowers)
	assert.Equal(t, 1, a.NumFollowing)
	assert.Equal(t, 1, b.NumFollowers)
	assert.Equal(t, 1, b.NumFollowing)

	got, err := notify.Unread(conn, bob.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.CategoryFollow, got[0].Category)

	// 拉黑解除双向关注并回退计数
	require.NoError(t, svc.BlockUser(conn, alice.ID, bob.ID))
	require.NoError(t, conn.First(&a, alice.ID).Error)
	require.NoError(t, conn.First(&b, bob.ID).Error)
	assert.Zero(t, a.NumFollowers)
	assert.Zero(t, a.NumFollowing)
	assert.Zero(t, b.NumFollowers)
	assert.Zero(t, b.NumFollowing)

	// 幂等取关不动计数
	require.NoError(t, svc.UnfollowUser(conn, alice.ID, bob.ID))
	require.NoError(t, conn.First(&a, alice.ID).Error)
	assert.Zero(t, a.NumFollowing)

	require.NoError(t, svc.UnblockUser(conn, alice.ID, bob.ID))
	assert.ErrorIs(t, svc.UnblockUser(conn, alice.ID, bob.ID), ErrNotFound)
}
