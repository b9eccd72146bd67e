package db

import (
	"log"
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Init 建立数据库连接并迁移全部模型
func Init(dsn string) {
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=rmusiclines port=5432 sslmode=disable"
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")
}

// Migrate 执行 AutoMigrate，测试里也用它建内存库
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.UserType{},
		&models.UserFollow{},
		&models.UserBlocking{},
		&models.Suspension{},
		&models.Artist{},
		&models.ArtistTag{},
		&models.ArtistFollow{},
		&models.ArtistPost{},
		&models.NonArtistPost{},
		&models.PostPhoto{},
		&models.PostVideo{},
		&models.Rating{},
		&models.Repost{},
		&models.Bookmark{},
		&models.Download{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Hashtag{},
		&models.PostHashtag{},
		&models.PostMention{},
		&models.Flag{},
		&models.FlagInstance{},
		&models.Notification{},
	)
}

// SeedSiteServices 确保系统服务账号存在（自动封禁的签发者）
func SeedSiteServices(conn *gorm.DB, username string) (*models.User, error) {
	var user models.User
	err := conn.Where("username_lower = ?", username).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	now := time.Now()
	user = models.User{
		Username:    username,
		Email:       username + "@rmusiclines.internal",
		Password:    "!", // 不可登录
		DisplayName: "Site Services",
		BirthDate:   time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		IsStaff:     true,
		IsSuperuser: true,
		VerifiedOn:  &now,
		Type:        models.UserType{IsVerified: true},
	}
	if err := conn.Create(&user).Error; err != nil {
		return nil, err
	}
	log.Printf("Site services account %q created", username)
	return &user, nil
}
