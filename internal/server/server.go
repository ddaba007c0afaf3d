package server

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kmatek/photoalbum-api/internal/config"
	"github.com/kmatek/photoalbum-api/internal/handler"
	"github.com/kmatek/photoalbum-api/internal/middleware"
	"github.com/kmatek/photoalbum-api/internal/repository"
	"github.com/kmatek/photoalbum-api/internal/service"
	"github.com/kmatek/photoalbum-api/pkg/mailer"
	"github.com/kmatek/photoalbum-api/pkg/storage"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	albumRepo := repository.NewAlbumRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	likeRepo := repository.NewLikeRepository(db)

	imageStorage := newImageStorage(cfg)

	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)

	codec := service.NewTokenCodec(cfg.SecretKey, cfg.ResetTokenTTL)
	notifier := service.NewNotifier(redisClient, smtpMailer, codec, cfg.SiteDomain, cfg.SuspendNotifications)
	if redisClient != nil {
		go notifier.StartWorker(context.Background())
	}

	accountSvc := service.NewAccountService(userRepo, imageStorage, codec, notifier, redisClient, service.AccountConfig{
		JWTSecret:       cfg.JWTSecret,
		JWTTTL:          time.Duration(cfg.JWTTTLMinutes) * time.Minute,
		ResetRateLimit:  cfg.ResetRateLimit,
		ResetRateWindow: cfg.ResetRateWindow,
	})
	userHandler := handler.NewUserHandler(accountSvc)

	albumSvc := service.NewAlbumService(albumRepo, photoRepo, likeRepo, userRepo, imageStorage, service.AlbumQuotas{
		AlbumsPerOwner: cfg.AlbumQuota,
		PhotosPerAlbum: cfg.PhotoQuota,
	})
	albumHandler := handler.NewAlbumHandler(albumSvc)

	router := gin.New()

	setupCORS(router, cfg)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes (no auth required)
	api.POST("/users", userHandler.Register)
	api.GET("/users/activate/:uid/:token", userHandler.Activate)
	api.POST("/auth/login", userHandler.Login)
	api.POST("/users/reset-password", userHandler.RequestPasswordReset)
	api.POST("/users/reset-password-confirm", userHandler.ConfirmPasswordReset)
	api.GET("/albums", albumHandler.ListAlbums)
	api.GET("/albums/:id", albumHandler.GetAlbum)

	// Protected routes
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/users/me", userHandler.Me)
		protected.PUT("/users/me/image", userHandler.UploadProfileImage)
		protected.POST("/users/change-password", userHandler.ChangePassword)
		protected.DELETE("/users/me", userHandler.DeleteAccount)

		protected.POST("/albums", albumHandler.CreateAlbum)
		protected.PUT("/albums/:id", albumHandler.UpdateAlbum)
		protected.PATCH("/albums/:id", albumHandler.UpdateAlbum)
		protected.DELETE("/albums/:id", albumHandler.DeleteAlbum)

		protected.POST("/albums/:id/photos", albumHandler.UploadPhoto)
		protected.DELETE("/albums/:id/photos/:photo_id", albumHandler.DeletePhoto)

		protected.POST("/albums/:id/like", albumHandler.LikeAlbum)
		protected.DELETE("/albums/:id/like", albumHandler.UnlikeAlbum)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func newImageStorage(cfg *config.Config) storage.ImageStorage {
	if cfg.StoreBackend == "cloudinary" {
		imageStorage, err := storage.NewCloudinaryStorage()
		if err != nil {
			log.Fatalf("failed to initialize cloudinary storage: %v", err)
		}
		return imageStorage
	}
	return storage.NewDiskStorage(cfg.UploadDir)
}

func setupCORS(router *gin.Engine, cfg *config.Config) {
	origins := strings.Split(cfg.AllowedOrigins, ",")

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
