package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 70, cfg.Chat.MaxMessageChars)
	assert.Equal(t, 30, cfg.Chat.MaxMessageWords)
	assert.Equal(t, 15*time.Second, cfg.Chat.RepeatCooldown)
	assert.Equal(t, 20, cfg.Chat.GuestMessageQuota)
	assert.Equal(t, 60*time.Second, cfg.Chat.PresenceFreshness)
	assert.Equal(t, 2*time.Second, cfg.Chat.TypingIdle)
	assert.Equal(t, "ChatBot", cfg.Bot.Name)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAX_MESSAGE_CHARS", "120")
	t.Setenv("REPEAT_COOLDOWN", "30")
	t.Setenv("PRESENCE_FRESHNESS", "5m")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.Chat.MaxMessageChars)
	assert.Equal(t, 30*time.Second, cfg.Chat.RepeatCooldown)
	assert.Equal(t, 5*time.Minute, cfg.Chat.PresenceFreshness)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "memory", cfg.StoreBackend)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_MESSAGE_WORDS", "lots")
	t.Setenv("TYPING_IDLE", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Chat.MaxMessageWords)
	assert.Equal(t, 2*time.Second, cfg.Chat.TypingIdle)
}
