package main

import (
	"cms/auth"
	"cms/config"
	"cms/db"
	"cms/handlers"
	"cms/live"
	"cms/logger"
	"cms/models"
	"cms/utils"
	"cms/web"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sessionCookieName = "token"
	publicCacheTime   = 60 // seconds
)

func setupRouter(hub *live.Hub) *gin.Engine {
	if !config.DEBUG_MODE {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	if err := router.SetTrustedProxies(config.TrustedProxies()); err != nil {
		logger.L().Warn("invalid TRUSTED_PROXIES", zap.Error(err))
	}
	if config.DEBUG_MODE {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     config.CorsOrigins(),
		AllowMethods:     []string{"GET", "PUT", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           30 * 24 * time.Hour,
	}))

	sessionStore := gormsessions.NewStore(db.Instance, true, []byte(config.SESSION_KEY))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   config.SESSION_MAX_AGE,
		HttpOnly: true,
		Secure:   config.TLS_DOMAINS != "",
	})
	router.Use(sessions.Sessions(sessionCookieName, sessionStore))
	if !config.DEBUG_MODE {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/media/", "/dashboard/live"})))
	}
	router.Use((&utils.CacheRouter{CacheTime: utils.CacheNoCache}).Handler()) // No cache by default, individual end-points can override that

	// Session handlers
	router.POST("/user/login", handlers.UserLogin)
	router.POST("/user/logout", handlers.UserLogout)
	router.GET("/user/status", handlers.UserStatus)
	router.POST("/user/activate", handlers.UserActivate)

	// Dashboard, every handler needs a signed-in user
	dashboard := &auth.Router{Base: router.Group("/dashboard")}
	managers := models.ContentManagers
	dashboard.GET("/stats", handlers.DashboardStats)
	// Hero slider
	dashboard.GET("/hero/list", handlers.HeroSlideList, managers...)
	dashboard.GET("/hero/get", handlers.HeroSlideGet, managers...)
	dashboard.POST("/hero/create", handlers.HeroSlideCreate, managers...)
	dashboard.POST("/hero/save", handlers.HeroSlideSave, managers...)
	dashboard.POST("/hero/delete", handlers.HeroSlideDelete, managers...)
	dashboard.POST("/hero/toggle", handlers.HeroSlideToggle, managers...)
	dashboard.POST("/hero/move", handlers.HeroSlideMove, managers...)
	// Albums
	dashboard.GET("/album/list", handlers.AlbumList, managers...)
	dashboard.GET("/album/get", handlers.AlbumGet, managers...)
	dashboard.POST("/album/create", handlers.AlbumCreate, managers...)
	dashboard.POST("/album/save", handlers.AlbumSave, managers...)
	dashboard.POST("/album/delete", handlers.AlbumDelete, managers...)
	dashboard.POST("/album/add", handlers.AlbumAddImages, managers...)
	dashboard.POST("/album/images", handlers.AlbumImagesSave, managers...)
	// Menus
	dashboard.GET("/menu/list", handlers.MenuList, managers...)
	dashboard.GET("/menu/tree", handlers.MenuTree, managers...)
	dashboard.POST("/menu/create", handlers.MenuItemCreate, managers...)
	dashboard.POST("/menu/save", handlers.MenuItemSave, managers...)
	dashboard.POST("/menu/delete", handlers.MenuItemDelete, managers...)
	dashboard.POST("/menu/toggle", handlers.MenuItemToggle, managers...)
	dashboard.POST("/menu/move", handlers.MenuItemMove, managers...)
	// Articles, authors are limited to their own inside the handlers
	dashboard.GET("/article/list", handlers.ArticleList)
	dashboard.GET("/article/get", handlers.ArticleGet)
	dashboard.POST("/article/create", handlers.ArticleCreate)
	dashboard.POST("/article/save", handlers.ArticleSave)
	dashboard.POST("/article/delete", handlers.ArticleDelete)
	dashboard.GET("/category/list", handlers.CategoryList)
	dashboard.POST("/category/create", handlers.CategoryCreate, managers...)
	// Media library
	dashboard.GET("/media/list", handlers.MediaList)
	dashboard.POST("/media/upload", handlers.MediaUpload)
	dashboard.POST("/media/delete", handlers.MediaDelete, managers...)
	// Administration
	dashboard.GET("/user/list", handlers.UserList, models.RoleAdmin)
	dashboard.POST("/user/create", handlers.UserCreate, models.RoleAdmin)
	dashboard.POST("/user/save", handlers.UserSave, models.RoleAdmin)
	dashboard.POST("/user/delete", handlers.UserDelete, models.RoleAdmin)
	dashboard.POST("/user/profile", handlers.UserProfile)
	dashboard.POST("/user/theme", handlers.UserTheme)
	dashboard.GET("/settings/get", handlers.SettingsGet, models.RoleAdmin)
	dashboard.POST("/settings/save", handlers.SettingsSave, models.RoleAdmin)
	dashboard.GET("/bucket/list", handlers.BucketList, models.RoleAdmin)
	dashboard.POST("/bucket/save", handlers.BucketSave, models.RoleAdmin)
	dashboard.GET("/audit/list", handlers.AuditList, models.RoleAdmin)
	dashboard.GET("/live", handlers.LiveHandler(hub))

	/*
	 *	Public site
	 */
	public := router.Group("/api")
	public.Use((&utils.CacheRouter{CacheTime: publicCacheTime}).Handler())
	public.GET("/home", web.HomeView)
	public.GET("/articles", web.ArticleListView)
	public.GET("/articles/:slug", web.ArticleView)
	public.GET("/albums", web.AlbumListView)
	public.GET("/albums/:id", web.AlbumView)
	public.GET("/menus/:menu", web.MenuView)
	public.GET("/site-config", web.SiteConfigView)
	// Media sets its own cache headers
	router.GET("/media/:id", handlers.MediaServe)
	router.GET("/media/:id/:variant", handlers.MediaServe)
	router.GET("/robots.txt", web.DisallowRobots)
	return router
}
