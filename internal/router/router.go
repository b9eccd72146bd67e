package router

import (
	"github.com/Sergecodes/rmusiclines-sub000/internal/handlers"
	"github.com/Sergecodes/rmusiclines-sub000/internal/middleware"
	"github.com/Sergecodes/rmusiclines-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

// Services 路由层用到的全部服务
type Services struct {
	Accounts *services.AccountService
	Tokens   *services.TokenService
	Posts    *services.PostService
	Artists  *services.ArtistService
	Flags    *services.FlagService
	Notify   *services.NotificationService
	Staging  *services.StagingStore
	// 音频转换器由部署方提供，可以为空
	Converter services.AudioConverter
}

func RegisterRoutes(r *gin.Engine, svc Services) {
	// Handlers
	authHandler := handlers.NewAuthHandler(svc.Accounts, svc.Tokens)
	userHandler := handlers.NewUserHandler(svc.Accounts)
	postHandler := handlers.NewPostHandler(svc.Posts)
	artistHandler := handlers.NewArtistHandler(svc.Artists)
	flagHandler := handlers.NewFlagHandler(svc.Flags)
	notificationHandler := handlers.NewNotificationHandler(svc.Notify)
	mediaHandler := handlers.NewMediaHandler(svc.Staging, svc.Converter)

	r.Use(middleware.LoadUser(svc.Tokens, svc.Notify))

	// 公共路由 (Public Routes)
	r.POST("/auth/signup", authHandler.Register)             // 注册
	r.GET("/auth/activate", authHandler.Activate)            // 邮箱激活
	r.POST("/auth/login", authHandler.Login)                 // 登录
	r.POST("/auth/refresh", authHandler.Refresh)             // 刷新访问令牌
	r.GET("/u/:username", userHandler.Profile)               // 用户主页
	r.GET("/p/:kind/:uid", postHandler.Detail)               // 帖子详情
	r.GET("/artists/:slug", artistHandler.Detail)            // 音乐人主页
	r.GET("/artists/id/:id/posts", artistHandler.Posts)      // 音乐人帖子时间线
	r.GET("/account/confirm-email", userHandler.ConfirmEmailChange)

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/me", userHandler.Me)
		authorized.POST("/account/username", userHandler.ChangeUsername)      // 改名（有冷却期）
		authorized.POST("/account/email", userHandler.RequestEmailChange)     // 申请换邮箱
		authorized.DELETE("/account", userHandler.DeleteAccount)              // 停用/删除账号

		authorized.POST("/users/:id/follow", userHandler.Follow)
		authorized.DELETE("/users/:id/follow", userHandler.Unfollow)
		authorized.POST("/users/:id/block", userHandler.Block)
		authorized.DELETE("/users/:id/block", userHandler.Unblock)

		authorized.POST("/artists/id/:id/follow", artistHandler.Follow)
		authorized.DELETE("/artists/id/:id/follow", artistHandler.Unfollow)

		// 通知
		authorized.GET("/notifications", notificationHandler.List)
		authorized.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)
		authorized.POST("/notifications/:id/unread", notificationHandler.Unread)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)
		authorized.DELETE("/notifications", notificationHandler.DeleteAll)
	}

	// 写操作另外要求没有在身封禁
	writes := r.Group("/")
	writes.Use(middleware.AuthRequired(), middleware.NotSuspended())
	{
		// 发帖前的媒体暂存
		writes.POST("/staging/photos", mediaHandler.UploadPhoto)
		writes.DELETE("/staging/photos/:filename", mediaHandler.DeletePhoto)
		writes.POST("/staging/video", mediaHandler.UploadVideo)
		writes.POST("/staging/audio", mediaHandler.UploadAudio)
		writes.DELETE("/staging/video", mediaHandler.DeleteVideo)
		writes.GET("/staging", mediaHandler.List)
		writes.DELETE("/staging", mediaHandler.Clear)

		// 帖子
		writes.POST("/posts/:kind", postHandler.Create)
		writes.DELETE("/posts/:kind/:id", postHandler.Delete)
		writes.POST("/posts/:kind/:id/rating", postHandler.Rate)
		writes.DELETE("/posts/:kind/:id/rating", postHandler.Unrate)
		writes.POST("/posts/:kind/:id/repost", postHandler.Repost)
		writes.DELETE("/posts/:kind/:id/repost", postHandler.Unrepost)
		writes.POST("/posts/:kind/:id/bookmark", postHandler.Bookmark)
		writes.DELETE("/posts/:kind/:id/bookmark", postHandler.Unbookmark)
		writes.POST("/posts/:kind/:id/download", postHandler.Download)
		writes.POST("/posts/:kind/:id/comments", postHandler.CreateComment)
		writes.POST("/posts/:kind/:id/pinned-comment", postHandler.PinComment)
		writes.POST("/account/pinned-post", postHandler.PinPost)

		// 评论
		writes.DELETE("/comments/:cid", postHandler.DeleteComment)
		writes.POST("/comments/:cid/like", postHandler.LikeComment)
		writes.DELETE("/comments/:cid/like", postHandler.UnlikeComment)

		// 举报
		writes.POST("/flags/:kind/:id", flagHandler.Create)
		writes.DELETE("/flags/:kind/:id", flagHandler.Delete)
	}

	// 版主路由 (Moderator Routes)
	mod := r.Group("/mod")
	mod.Use(middleware.AuthRequired(), middleware.ModRequired())
	{
		mod.GET("/flags", flagHandler.List)                    // 聚合举报列表
		mod.GET("/flags/:id/instances", flagHandler.Instances) // 举报明细
		mod.POST("/flags/:kind/:id/state", flagHandler.Toggle) // 裁决/撤销裁决
		mod.POST("/users/:id/suspend", userHandler.Suspend)    // 封禁用户
		mod.DELETE("/suspensions/:id", userHandler.LiftSuspension)
	}

	// 管理路由 (Staff Routes)
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.StaffRequired())
	{
		admin.POST("/artists", artistHandler.Create)
		admin.PUT("/artists/:id", artistHandler.Update)
	}
}
