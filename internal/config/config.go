package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default location of the YAML config file. The
// CONFIG_PATH environment variable overrides it.
const ConfigPath = "config.yaml"

const (
	defaultSessionTTL    = 168 * time.Hour
	defaultVerifyCodeTTL = 5 * time.Minute
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port          string `yaml:"port"`
	DatabaseURL   string `yaml:"databaseURL"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	LogLevel      string `yaml:"logLevel"`

	SessionTTL    string `yaml:"sessionTTL"`
	VerifyCodeTTL string `yaml:"verifyCodeTTL"`
	// DebugAuthCode echoes verification codes in API responses. Never
	// enable outside local development.
	DebugAuthCode bool `yaml:"debugAuthCode"`

	LoginRateLimitPerMinute  int `yaml:"loginRateLimitPerMinute"`
	VerifyRateLimitPerMinute int `yaml:"verifyRateLimitPerMinute"`

	// TrustedProxies lists the peers (IPs or CIDRs) whose forwarded
	// headers are honored for client-IP audit logging.
	TrustedProxies []string `yaml:"trustedProxies"`

	AIBaseURL     string `yaml:"aiBaseURL"`
	AIAPIKey      string `yaml:"aiAPIKey"`
	AITextModel   string `yaml:"aiTextModel"`
	AIVisionModel string `yaml:"aiVisionModel"`
	AIReferer     string `yaml:"aiReferer"`
	AIAppTitle    string `yaml:"aiAppTitle"`

	HolidayBaseURL string `yaml:"holidayBaseURL"`

	SMSProvider        string `yaml:"smsProvider"` // "aliyun" or "log"
	SMSAccessKeyID     string `yaml:"smsAccessKeyID"`
	SMSAccessKeySecret string `yaml:"smsAccessKeySecret"`
	SMSSignName        string `yaml:"smsSignName"`
	SMSTemplateCode    string `yaml:"smsTemplateCode"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("AI_BASE_URL"); v != "" {
		cfg.AIBaseURL = v
	}
	if v := os.Getenv("AI_API_KEY"); v != "" {
		cfg.AIAPIKey = v
	}
	if v := os.Getenv("AI_TEXT_MODEL"); v != "" {
		cfg.AITextModel = v
	}
	if v := os.Getenv("AI_VISION_MODEL"); v != "" {
		cfg.AIVisionModel = v
	}
	if v := os.Getenv("HOLIDAY_BASE_URL"); v != "" {
		cfg.HolidayBaseURL = v
	}
	if v := os.Getenv("SMS_PROVIDER"); v != "" {
		cfg.SMSProvider = v
	}
	if v := os.Getenv("SMS_ACCESS_KEY_ID"); v != "" {
		cfg.SMSAccessKeyID = v
	}
	if v := os.Getenv("SMS_ACCESS_KEY_SECRET"); v != "" {
		cfg.SMSAccessKeySecret = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("DEBUG_AUTH_CODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DebugAuthCode = b
		}
	}
	if v := os.Getenv("LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("VERIFY_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.VerifyRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitCSV(v)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required for sessions and verification codes")
	}
	if cfg.AIBaseURL == "" {
		return errors.New("config: aiBaseURL is required (set in config.yaml or AI_BASE_URL)")
	}
	if cfg.AIAPIKey == "" {
		return errors.New("config: aiAPIKey is required (set in config.yaml or AI_API_KEY)")
	}
	if cfg.AITextModel == "" || cfg.AIVisionModel == "" {
		return errors.New("config: aiTextModel and aiVisionModel are required (set in config.yaml)")
	}
	if cfg.SMSProvider == "aliyun" {
		if cfg.SMSAccessKeyID == "" || cfg.SMSAccessKeySecret == "" || cfg.SMSSignName == "" || cfg.SMSTemplateCode == "" {
			return errors.New("config: aliyun sms requires smsAccessKeyID, smsAccessKeySecret, smsSignName and smsTemplateCode")
		}
	}
	if cfg.LoginRateLimitPerMinute < 0 || cfg.VerifyRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	return nil
}

// ParseSessionTTL parses the session TTL, defaulting to seven days.
func ParseSessionTTL(ttlStr string) (time.Duration, error) {
	if ttlStr == "" {
		return defaultSessionTTL, nil
	}
	dur, err := time.ParseDuration(ttlStr)
	if err != nil {
		return 0, fmt.Errorf("invalid sessionTTL duration: %w", err)
	}
	return dur, nil
}

// ParseVerifyCodeTTL parses the verification-code TTL, defaulting to five
// minutes.
func ParseVerifyCodeTTL(ttlStr string) (time.Duration, error) {
	if ttlStr == "" {
		return defaultVerifyCodeTTL, nil
	}
	dur, err := time.ParseDuration(ttlStr)
	if err != nil {
		return 0, fmt.Errorf("invalid verifyCodeTTL duration: %w", err)
	}
	return dur, nil
}
