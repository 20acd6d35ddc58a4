package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGroupBucketExhausts(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("ada", ActionCreateGroup)
		require.True(t, ok, "attempt %d", i)
	}

	ok, wait := rl.Allow("ada", ActionCreateGroup)
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, 2*time.Minute)

	// buckets are per user
	ok, _ = rl.Allow("bob", ActionCreateGroup)
	assert.True(t, ok)
}

func TestBucketRefills(t *testing.T) {
	tb := NewTokenBucket(1, 1, 20*time.Millisecond)

	ok, _ := tb.Allow()
	require.True(t, ok)
	ok, _ = tb.Allow()
	require.False(t, ok)

	require.Eventually(t, func() bool {
		ok, _ := tb.Allow()
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestGetStatus(t *testing.T) {
	rl := NewRateLimiter()
	tokens, max := rl.GetStatus("ada", ActionTyping)
	assert.Zero(t, tokens)
	assert.Zero(t, max)

	rl.Allow("ada", ActionTyping)
	tokens, max = rl.GetStatus("ada", ActionTyping)
	assert.Equal(t, 29, tokens)
	assert.Equal(t, 30, max)
}

func TestCleanupDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter()
	rl.Allow("ada", ActionUpload)

	assert.Equal(t, 0, rl.Cleanup(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, rl.Cleanup(time.Millisecond))

	_, max := rl.GetStatus("ada", ActionUpload)
	assert.Zero(t, max)
}

func TestRunStopsWithContext(t *testing.T) {
	rl := NewRateLimiter()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rl.Run(ctx, time.Millisecond) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
