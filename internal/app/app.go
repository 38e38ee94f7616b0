// Package app wires storage, messaging, and AI extraction into the core
// application service.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"aitodo/internal/conversation"
	"aitodo/internal/holiday"
	"aitodo/internal/store"
	"aitodo/pkg/ai"
	"aitodo/pkg/sms"
	"aitodo/pkg/storage"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL    string
	RedisAddr      string
	RedisPassword  string
	SessionTTL     time.Duration
	VerifyCodeTTL  time.Duration
	DebugAuthCode  bool
	HolidayBaseURL string

	AIBaseURL     string
	AIAPIKey      string
	AITextModel   string
	AIVisionModel string
	AIReferer     string
	AIAppTitle    string

	// Injectable for tests; defaulted from the settings above when nil.
	Store         store.Store
	Sessions      store.SessionStore
	Verifications store.VerificationStore
	SMS           sms.Sender
	AI            *ai.Client
	Conversations *conversation.Manager
	Holidays      *holiday.Service
	Images        storage.ImageStore
	Redis         *redis.Client
}

// App is the core application service.
type App struct {
	store         store.Store
	sessions      store.SessionStore
	verifications store.VerificationStore
	sms           sms.Sender
	ai            *ai.Client
	textModel     string
	visionModel   string
	conversations *conversation.Manager
	holidays      *holiday.Service
	images        storage.ImageStore
	debugAuthCode bool
	now           func() time.Time
}

// New constructs the application with database storage, Redis-backed session
// and verification state, and the AI extraction client.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.VerifyCodeTTL == 0 {
		cfg.VerifyCodeTTL = 5 * time.Minute
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	redisClient := cfg.Redis
	needsRedis := cfg.Sessions == nil || cfg.Verifications == nil || cfg.Conversations == nil || cfg.Holidays == nil
	if redisClient == nil && needsRedis {
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, fmt.Errorf("redisAddr is required for session, verification, conversation and holiday state")
		}
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
	}

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = store.NewRedisSessionStore(redisClient, cfg.SessionTTL)
	}
	verifications := cfg.Verifications
	if verifications == nil {
		verifications = store.NewRedisVerificationStore(redisClient, cfg.VerifyCodeTTL)
	}
	conversations := cfg.Conversations
	if conversations == nil {
		conversations = conversation.NewManager(redisClient)
	}
	holidays := cfg.Holidays
	if holidays == nil {
		holidays = holiday.NewService(redisClient, cfg.HolidayBaseURL)
	}

	aiClient := cfg.AI
	if aiClient == nil {
		if cfg.AIBaseURL == "" || cfg.AIAPIKey == "" {
			return nil, fmt.Errorf("AI base URL and API key required")
		}
		aiClient = ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIReferer, cfg.AIAppTitle)
	}

	sender := cfg.SMS
	if sender == nil {
		sender = sms.LogSender{}
	}

	return &App{
		store:         dataStore,
		sessions:      sessions,
		verifications: verifications,
		sms:           sender,
		ai:            aiClient,
		textModel:     cfg.AITextModel,
		visionModel:   cfg.AIVisionModel,
		conversations: conversations,
		holidays:      holidays,
		images:        cfg.Images,
		debugAuthCode: cfg.DebugAuthCode,
		now:           time.Now,
	}, nil
}

// DebugAuthCode reports whether verification codes may be echoed in
// responses. Only ever true in local development.
func (a *App) DebugAuthCode() bool {
	return a.debugAuthCode
}

// Holidays exposes the holiday lookup service.
func (a *App) Holidays() *holiday.Service {
	return a.holidays
}
