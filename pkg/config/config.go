package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort          string
	Environment         string
	FirebaseProject     string
	FirebaseDatabaseURL string
	ServiceAccountJSON  string
	ServiceAccountPath  string
	StorageBucket       string
	StoreBackend        string // "firebase" or "memory"
	AllowedOrigins      []string

	Chat ChatPolicy
	Bot  BotConfig
}

// ChatPolicy holds the moderation and liveness thresholds shared by every session.
type ChatPolicy struct {
	MaxMessageChars      int
	MaxMessageWords      int
	RepeatCooldown       time.Duration
	GuestMessageQuota    int
	PresenceFreshness    time.Duration
	PresenceHeartbeat    time.Duration
	PresencePollInterval time.Duration
	TypingIdle           time.Duration
}

type BotConfig struct {
	Name        string
	GiphyAPIKey string
	HFAPIToken  string
	HFModel     string
	Timeout     time.Duration
	RPS         float64
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		FirebaseProject:     getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseDatabaseURL: getEnv("FIREBASE_DATABASE_URL", ""),
		ServiceAccountJSON:  getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath:  getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageBucket:       getEnv("STORAGE_BUCKET", ""),
		StoreBackend:        getEnv("STORE_BACKEND", "firebase"),
		AllowedOrigins:      getEnvAsList("ALLOWED_ORIGINS", "*"),
		Chat: ChatPolicy{
			MaxMessageChars:      getEnvAsInt("MAX_MESSAGE_CHARS", 70),
			MaxMessageWords:      getEnvAsInt("MAX_MESSAGE_WORDS", 30),
			RepeatCooldown:       getEnvAsDuration("REPEAT_COOLDOWN", 15*time.Second),
			GuestMessageQuota:    getEnvAsInt("GUEST_MESSAGE_QUOTA", 20),
			PresenceFreshness:    getEnvAsDuration("PRESENCE_FRESHNESS", 60*time.Second),
			PresenceHeartbeat:    getEnvAsDuration("PRESENCE_HEARTBEAT", 30*time.Second),
			PresencePollInterval: getEnvAsDuration("PRESENCE_POLL_INTERVAL", 2*time.Second),
			TypingIdle:           getEnvAsDuration("TYPING_IDLE", 2*time.Second),
		},
		Bot: BotConfig{
			Name:        getEnv("BOT_NAME", "ChatBot"),
			GiphyAPIKey: getEnv("GIPHY_API_KEY", ""),
			HFAPIToken:  getEnv("HF_API_TOKEN", ""),
			HFModel:     getEnv("HF_MODEL", "gpt2"),
			Timeout:     getEnvAsDuration("CONTENT_API_TIMEOUT", 8*time.Second),
			RPS:         getEnvAsFloat("CONTENT_API_RPS", 5),
		},
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		floatValue, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration syntax ("15s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
