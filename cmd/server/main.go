package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kmatek/photoalbum-api/internal/config"
	"github.com/kmatek/photoalbum-api/internal/model"
	"github.com/kmatek/photoalbum-api/internal/repository"
	"github.com/kmatek/photoalbum-api/internal/server"
	"github.com/kmatek/photoalbum-api/internal/service"
	"github.com/kmatek/photoalbum-api/pkg/database"
	"github.com/kmatek/photoalbum-api/pkg/mailer"
	"github.com/kmatek/photoalbum-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	redisClient := connectRedis(cfg)

	if cfg.AppEnv == "development" {
		if err := seedAdminUser(cfg, db); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	srv := server.NewServer(cfg, db, redisClient)

	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Album{},
		&model.AlbumPhoto{},
		&model.AlbumLike{},
	)
}

func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, rate limiting and the email queue are disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}

	return client
}

func seedAdminUser(cfg *config.Config, db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).
		Where("email = ?", "admin@photoalbum.local").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	userRepo := repository.NewUserRepository(db)
	codec := service.NewTokenCodec(cfg.SecretKey, cfg.ResetTokenTTL)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
	// Seeding never emails anyone.
	notifier := service.NewNotifier(nil, smtpMailer, codec, cfg.SiteDomain, true)

	accounts := service.NewAccountService(userRepo, storage.NewDiskStorage(cfg.UploadDir), codec, notifier, nil, service.AccountConfig{
		JWTSecret:       cfg.JWTSecret,
		ResetRateLimit:  cfg.ResetRateLimit,
		ResetRateWindow: cfg.ResetRateWindow,
	})

	if _, err := accounts.CreateSuperuser(context.Background(), "admin@photoalbum.local", "admin", "Admin123!"); err != nil {
		return err
	}

	log.Println("Admin user seeded successfully")
	log.Println("   Email: admin@photoalbum.local")
	log.Println("   Password: Admin123!")

	return nil
}
