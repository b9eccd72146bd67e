package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 运行时配置，启动时从环境变量加载一次
type Config struct {
	DatabaseURL string
	Port        string

	// 令牌签名
	TokenSecret   string
	TokenIssuer   string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ActivationTTL time.Duration // ACTIVATION 令牌 3 天有效

	// 举报阈值
	FlagsAllowed               int // 超过即进入 FLAGGED
	ContentIsFlaggedCount      int // 通知作者和版主
	AutoDeleteFlagsCount       int // 自动删帖
	UserIsFlaggedCount         int // 通知被举报用户
	AutoSuspendUserFlagsCount  int // 自动封禁 1 天
	AutoSuspensionDuration     time.Duration
	SiteServicesUsername       string // 系统账号，自动封禁的签发者

	// 身份
	UsernameChangeCooldown time.Duration // 改名冷却 15 天
	EmailChangeBindingTTL  time.Duration // 改邮箱绑定 3 天
	MonthlyDownloadLimit   int           // 非会员每月下载上限

	// 媒体
	MediaRoot         string
	TmpDir            string
	MaxPhotoBytes     int64
	MaxVideoBytes     int64
	MaxVideoSeconds   float64
	MinVideoDimension int
	MaxVideoDimension int
	MaxPhotosPerPost  int
	ThumbnailMaxSize  int // 缩略图最长边像素

	// 通知
	SoftDeleteNotifications bool

	// SMTP（留空则关闭邮件发送）
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string
	SiteURL  string
}

// Load 从环境变量构建配置，缺省值按生产默认
func Load() Config {
	return Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        envOr("PORT", "8080"),

		TokenSecret:   envOr("TOKEN_SECRET", "secret_key_change_me"),
		TokenIssuer:   envOr("TOKEN_ISSUER", "rmusiclines"),
		AccessTTL:     envOrDuration("ACCESS_TTL", 4*time.Hour),
		RefreshTTL:    envOrDuration("REFRESH_TTL", 14*24*time.Hour),
		ActivationTTL: envOrDuration("ACTIVATION_TTL", 3*24*time.Hour),

		FlagsAllowed:              envOrInt("FLAGS_ALLOWED", 1),
		ContentIsFlaggedCount:     envOrInt("CONTENT_IS_FLAGGED_COUNT", 2),
		AutoDeleteFlagsCount:      envOrInt("AUTO_DELETE_FLAGS_COUNT", 5),
		UserIsFlaggedCount:        envOrInt("USER_IS_FLAGGED_COUNT", 3),
		AutoSuspendUserFlagsCount: envOrInt("AUTO_SUSPEND_USER_ACCOUNT_FLAGS_COUNT", 5),
		AutoSuspensionDuration:    envOrDuration("AUTO_SUSPENSION_DURATION", 24*time.Hour),
		SiteServicesUsername:      envOr("SITE_SERVICES_USERNAME", "site_services"),

		UsernameChangeCooldown: envOrDuration("USERNAME_CHANGE_COOLDOWN", 15*24*time.Hour),
		EmailChangeBindingTTL:  envOrDuration("EMAIL_CHANGE_BINDING_TTL", 3*24*time.Hour),
		MonthlyDownloadLimit:   envOrInt("MONTHLY_DOWNLOAD_LIMIT", 10),

		MediaRoot:         envOr("MEDIA_ROOT", "storage/media"),
		TmpDir:            envOr("MEDIA_TMP_DIR", "storage/media/tmp"),
		MaxPhotoBytes:     int64(envOrInt("MAX_PHOTO_BYTES", 5<<20)),
		MaxVideoBytes:     int64(envOrInt("MAX_VIDEO_BYTES", 250<<20)),
		MaxVideoSeconds:   float64(envOrInt("MAX_VIDEO_SECONDS", 360)),
		MinVideoDimension: envOrInt("MIN_VIDEO_DIMENSION", 32),
		MaxVideoDimension: envOrInt("MAX_VIDEO_DIMENSION", 1920),
		MaxPhotosPerPost:  envOrInt("MAX_PHOTOS_PER_POST", 4),
		ThumbnailMaxSize:  envOrInt("THUMBNAIL_MAX_SIZE", 128),

		SoftDeleteNotifications: envOrBool("SOFT_DELETE_NOTIFICATIONS", true),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: os.Getenv("SMTP_PORT"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),
		SiteURL:  envOr("SITE_URL", "http://localhost:8080"),
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
