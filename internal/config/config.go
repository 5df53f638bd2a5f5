package config

import (
	"os"
	"strconv"
	"time"

	"boostd/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	DatabaseURL   string // optional, history is disabled without it
	JWTSecret     string
	AllowedOrigin string

	BoostAPIURL     string
	BoostAPITimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Session tuning
	TickInterval   time.Duration
	RevealDelay    time.Duration
	SessionLockTTL time.Duration

	// Rate limits
	APIRateLimit   int
	APIRateWindow  int
	GameRateLimit  int
	GameRateWindow int

	Log logger.Options
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	boostAPIURL := os.Getenv("BOOST_API_URL")
	if boostAPIURL == "" {
		logger.Fatal("BOOST_API_URL is not set")
	}

	return &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     jwtSecret,
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),

		BoostAPIURL:     boostAPIURL,
		BoostAPITimeout: time.Duration(getInt("BOOST_API_TIMEOUT_SECONDS", 15)) * time.Second,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntAllowZero("REDIS_DB", 0),

		TickInterval:   time.Duration(getInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		RevealDelay:    time.Duration(getInt("MATCH_REVEAL_DELAY_MS", 1000)) * time.Millisecond,
		SessionLockTTL: time.Duration(getInt("SESSION_LOCK_TTL_SECONDS", 120)) * time.Second,

		APIRateLimit:   getInt("API_RATE_LIMIT", 60),
		APIRateWindow:  getInt("API_RATE_WINDOW_SECONDS", 60),
		GameRateLimit:  getInt("GAME_RATE_LIMIT", 30),  // макс игр за ->
		GameRateWindow: getInt("GAME_RATE_WINDOW", 60), // -> 60 секунд

		Log: logger.Options{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "console"),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  getInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: getInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getInt("LOG_MAX_AGE_DAYS", 7),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getInt returns a positive integer from env or def.
func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getIntAllowZero(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
