package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	DiscordToken string

	// Riot API
	RiotAPIKey    string
	DefaultRegion string

	// Twitch API
	TwitchClientID     string
	TwitchClientSecret string

	// Subscription store
	StoreBackend string
	DatabaseURL  string
	DatabasePath string
	RedisAddr    string

	// Health server, disabled when empty
	Port string

	// Scheduling
	Timezone         *time.Location
	PresenceInterval time.Duration
	StreamInterval   time.Duration
	ReminderInterval time.Duration

	// Default ping role for watch notifications
	WatchPingRoleID string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:       firstNonEmpty(os.Getenv("DISCORD_TOKEN"), os.Getenv("DISCORD_BOT_TOKEN")),
		RiotAPIKey:         strings.TrimSpace(os.Getenv("RIOT_API_KEY")),
		DefaultRegion:      strings.ToLower(getEnvOrDefault("DEFAULT_REGION", "euw")),
		TwitchClientID:     os.Getenv("TWITCH_CLIENT_ID"),
		TwitchClientSecret: os.Getenv("TWITCH_CLIENT_SECRET"),
		StoreBackend:       strings.ToLower(getEnvOrDefault("STORE_BACKEND", "auto")),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DatabasePath:       getEnvOrDefault("DATABASE_PATH", "./data/streams.db"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		Port:               os.Getenv("PORT"),
		WatchPingRoleID:    os.Getenv("WATCH_PING_ROLE_ID"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
	}

	loc, err := time.LoadLocation(getEnvOrDefault("TIMEZONE", "Europe/Paris"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Timezone = loc

	intervals := []struct {
		key    string
		def    string
		target *time.Duration
	}{
		{"PRESENCE_INTERVAL", "5m", &cfg.PresenceInterval},
		{"STREAM_INTERVAL", "2m", &cfg.StreamInterval},
		{"REMINDER_INTERVAL", "1m", &cfg.ReminderInterval},
	}
	for _, iv := range intervals {
		d, err := time.ParseDuration(getEnvOrDefault(iv.key, iv.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", iv.key, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", iv.key)
		}
		*iv.target = d
	}

	switch cfg.StoreBackend {
	case "auto", "postgres", "redis", "sqlite", "memory":
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q", cfg.StoreBackend)
	}

	// Validate required fields
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}

	return cfg, nil
}

// TwitchEnabled reports whether Twitch credentials are configured
func (c *Config) TwitchEnabled() bool {
	return c.TwitchClientID != "" && c.TwitchClientSecret != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
