package main

import (
	"log"
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/config"
	"github.com/Sergecodes/rmusiclines-sub000/internal/db"
	"github.com/Sergecodes/rmusiclines-sub000/internal/router"
	"github.com/Sergecodes/rmusiclines-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfg := config.Load()

	// Initialize Database
	db.Init(cfg.DatabaseURL)

	// 自动封禁的签发账号，缺了就补
	if _, err := db.SeedSiteServices(db.DB, cfg.SiteServicesUsername); err != nil {
		log.Fatalf("Failed to seed site services account: %v", err)
	}

	// Services
	tokens := services.NewTokenService(cfg)
	notify := services.NewNotificationService(cfg.SoftDeleteNotifications)
	mail := services.NewMailService(cfg)
	accounts := services.NewAccountService(cfg, tokens, notify, mail)
	staging := services.NewStagingStore(cfg)
	posts := services.NewPostService(cfg, staging, notify, accounts)
	artists := services.NewArtistService(notify)
	flags := services.NewFlagService(cfg, notify)

	// 后台任务：计数校准 + 通知邮件摘要
	reconciler := services.GetReconcileService(db.DB)
	reconciler.StartNightlyReconcile()
	services.NewNotificationEmitter(db.DB, mail, notify, 10*time.Minute).Start()

	// Initialize Gin
	r := gin.Default()
	r.Static("/media", cfg.MediaRoot)

	router.RegisterRoutes(r, router.Services{
		Accounts: accounts,
		Tokens:   tokens,
		Posts:    posts,
		Artists:  artists,
		Flags:    flags,
		Notify:   notify,
		Staging:  staging,
	})

	log.Printf("MusicLines server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
