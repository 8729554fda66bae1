package config

import (
	"os"
	"strconv"
	"time"

	"cyber_cricket/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	DatabaseURL   string // empty means in-memory store
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JWTSecret     string
	LogLevel      string
	LogJSON       bool
	AllowedOrigin string

	// Game rules
	MinParticipants int
	MaxParticipants int
	FinalSurvivors  int

	// Orchestrator pacing
	SpeakDelay       time.Duration
	VoteDelay        time.Duration
	RecoveryCooldown time.Duration
	SyncInterval     time.Duration

	// Responder
	AITimeout     time.Duration
	AIMaxAttempts int

	// HTTP limits
	APIRateLimit  int
	APIRateWindow time.Duration

	// Remote game service used by cmd/orchestrator
	GameServiceURL string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	return load(jwtSecret)
}

// LoadClient is Load for processes that never verify tokens (cmd/orchestrator).
func LoadClient() *Config {
	_ = godotenv.Load()
	return load(os.Getenv("JWT_SECRET"))
}

func load(jwtSecret string) *Config {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	serviceURL := os.Getenv("GAME_SERVICE_URL")
	if serviceURL == "" {
		serviceURL = "http://127.0.0.1:" + port
	}

	cfg := &Config{
		AppPort:          port,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          envInt("REDIS_DB", 0),
		JWTSecret:        jwtSecret,
		LogLevel:         envString("LOG_LEVEL", "info"),
		LogJSON:          os.Getenv("LOG_JSON") == "true",
		AllowedOrigin:    os.Getenv("ALLOWED_ORIGIN"),
		MinParticipants:  envInt("MIN_PARTICIPANTS", 2),
		MaxParticipants:  envInt("MAX_PARTICIPANTS", 10),
		FinalSurvivors:   envInt("FINAL_SURVIVORS", 2),
		SpeakDelay:       envMillis("SPEAK_DELAY_MS", 800*time.Millisecond),
		VoteDelay:        envMillis("VOTE_DELAY_MS", 1200*time.Millisecond),
		RecoveryCooldown: envMillis("RECOVERY_COOLDOWN_MS", 3*time.Second),
		SyncInterval:     envMillis("SYNC_INTERVAL_MS", 2*time.Second),
		AITimeout:        time.Duration(envInt("AI_TIMEOUT_SECONDS", 60)) * time.Second,
		AIMaxAttempts:    envInt("AI_MAX_ATTEMPTS", 3),
		APIRateLimit:     envInt("API_RATE_LIMIT", 120),
		APIRateWindow:    time.Duration(envInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		GameServiceURL:   serviceURL,
	}

	// speak < vote < cooldown must hold; fall back to defaults if misconfigured
	if cfg.SpeakDelay >= cfg.VoteDelay || cfg.VoteDelay >= cfg.RecoveryCooldown {
		logger.Warn("invalid orchestrator delays, using defaults",
			"speak", cfg.SpeakDelay, "vote", cfg.VoteDelay, "cooldown", cfg.RecoveryCooldown)
		cfg.SpeakDelay = 800 * time.Millisecond
		cfg.VoteDelay = 1200 * time.Millisecond
		cfg.RecoveryCooldown = 3 * time.Second
	}

	if cfg.MinParticipants < 2 {
		cfg.MinParticipants = 2
	}
	if cfg.FinalSurvivors < 1 {
		cfg.FinalSurvivors = 1
	}

	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}
