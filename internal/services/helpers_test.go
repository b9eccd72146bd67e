package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/config"
	"github.com/Sergecodes/rmusiclines-sub000/internal/db"
	"github.com/Sergecodes/rmusiclines-sub000/internal/models"
	"github.com/Sergecodes/rmusiclines-sub000/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB 每个测试一个独立的内存库。限制单连接，
// 避免连接池里每个连接各自看到一个空库
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(conn))
	return conn
}

// testConfig 阈值取小方便测试触发
func testConfig() config.Config {
	return config.Config{
		TokenSecret:   "test-secret",
		TokenIssuer:   "test",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
		ActivationTTL: 3 * 24 * time.Hour,

		FlagsAllowed:              1,
		ContentIsFlaggedCount:     2,
		AutoDeleteFlagsCount:      5,
		UserIsFlaggedCount:        3,
		AutoSuspendUserFlagsCount: 5,
		AutoSuspensionDuration:    24 * time.Hour,
		SiteServicesUsername:      "site_services",

		UsernameChangeCooldown: 15 * 24 * time.Hour,
		EmailChangeBindingTTL:  3 * 24 * time.Hour,
		MonthlyDownloadLimit:   10,

		MaxPhotoBytes:     5 << 20,
		MaxVideoBytes:     250 << 20,
		MaxVideoSeconds:   360,
		MinVideoDimension: 32,
		MaxVideoDimension: 1920,
		MaxPhotosPerPost:  4,
		ThumbnailMaxSize:  128,

		SoftDeleteNotifications: true,
		SiteURL:                 "http://localhost:8080",
	}
}

var testUserSeq int

// createTestUser 建一个已验证的普通用户
func createTestUser(t *testing.T, conn *gorm.DB) *models.User {
	t.Helper()
	testUserSeq++

	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)

	user := models.User{
		Username:  fmt.Sprintf("user%d", testUserSeq),
		Email:     fmt.Sprintf("user%d@example.com", testUserSeq),
		Password:  hash,
		BirthDate: time.Date(1995, 6, 15, 0, 0, 0, 0, time.UTC),
		Type:      models.UserType{IsVerified: true},
	}
	require.NoError(t, conn.Create(&user).Error)
	return &user
}

func createTestMod(t *testing.T, conn *gorm.DB) *models.User {
	t.Helper()
	user := createTestUser(t, conn)
	require.NoError(t, conn.Model(&models.UserType{}).
		Where("user_id = ?", user.ID).
		Update("is_mod", true).Error)
	user.Type.IsMod = true
	return user
}

func createTestArtist(t *testing.T, conn *gorm.DB) *models.Artist {
	t.Helper()
	testUserSeq++
	artist := models.Artist{
		Name:      fmt.Sprintf("Artist %d", testUserSeq),
		Slug:      fmt.Sprintf("artist-%d", testUserSeq),
		Country:   "NG",
		BirthDate: time.Date(1988, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, conn.Create(&artist).Error)
	return &artist
}

// createTestPost 建一条普通帖
func createTestPost(t *testing.T, conn *gorm.DB, posterID uint) *models.NonArtistPost {
	t.Helper()
	post := models.NonArtistPost{
		BasePost: models.BasePost{
			UID:      utils.NewShortUUID(),
			PosterID: posterID,
			Language: "en",
			Body:     "hello world",
		},
	}
	require.NoError(t, conn.Create(&post).Error)
	require.NoError(t, CountPostCreated(conn, models.KindNonArtistPost, posterID, 0))
	return &post
}

func seedSiteServices(t *testing.T, conn *gorm.DB) *models.User {
	t.Helper()
	user, err := db.SeedSiteServices(conn, "site_services")
	require.NoError(t, err)
	return user
}
