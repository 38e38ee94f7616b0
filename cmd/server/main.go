package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"aitodo/internal/app"
	"aitodo/internal/config"
	"aitodo/internal/server"
	"aitodo/internal/util"
	"aitodo/pkg/sms"
	"aitodo/pkg/storage"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}
	verifyTTL, err := config.ParseVerifyCodeTTL(cfg.VerifyCodeTTL)
	if err != nil {
		log.Fatalf("failed to parse verification code TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	var sender sms.Sender
	switch cfg.SMSProvider {
	case "aliyun":
		sender, err = sms.NewAliyunSender(sms.AliyunConfig{
			AccessKeyID:     cfg.SMSAccessKeyID,
			AccessKeySecret: cfg.SMSAccessKeySecret,
			SignName:        cfg.SMSSignName,
			TemplateCode:    cfg.SMSTemplateCode,
		})
		if err != nil {
			log.Fatalf("failed to init aliyun sms sender: %v", err)
		}
	default:
		sender = sms.LogSender{}
	}

	var images storage.ImageStore
	if cfg.MinioEndpoint != "" {
		images, err = storage.NewMinioImageStore(
			cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init image store: %v", err)
		}
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:    cfg.DatabaseURL,
		Redis:          redisClient,
		SessionTTL:     sessionTTL,
		VerifyCodeTTL:  verifyTTL,
		DebugAuthCode:  cfg.DebugAuthCode,
		HolidayBaseURL: cfg.HolidayBaseURL,
		AIBaseURL:      cfg.AIBaseURL,
		AIAPIKey:       cfg.AIAPIKey,
		AITextModel:    cfg.AITextModel,
		AIVisionModel:  cfg.AIVisionModel,
		AIReferer:      cfg.AIReferer,
		AIAppTitle:     cfg.AIAppTitle,
		SMS:            sender,
		Images:         images,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                      appCore,
		Redis:                    redisClient,
		LoginRateLimitPerMinute:  cfg.LoginRateLimitPerMinute,
		VerifyRateLimitPerMinute: cfg.VerifyRateLimitPerMinute,
		TrustedProxies:           trusted,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("todo server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
