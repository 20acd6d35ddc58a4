package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupchat/internal/adapter/repository"
	"groupchat/internal/domain/entity"
)

func TestTypingTrackerDropsIndicatorsNobodyClears(t *testing.T) {
	store := repository.NewMemoryStore()
	sink := &recordingSink{}
	tracker := NewTypingTracker(store.Typing(), sink, 200*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// left behind by a peer that disconnected without clearing it
	scope := entity.GlobalScope().Key()
	require.NoError(t, store.Typing().Set(ctx, &entity.TypingIndicator{
		User:      "Ghost",
		Timestamp: time.Now().UnixMilli(),
		Scope:     scope,
	}))

	require.NoError(t, tracker.Watch(ctx, entity.GlobalScope(), "Ada"))
	defer tracker.Stop(ctx)

	require.Eventually(t, func() bool {
		for _, e := range sink.Of(EventTypingUsers) {
			if update := e.(TypingUpdate); len(update.Users) == 1 && update.Users[0] == "Ghost" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		update, ok := sink.Last(EventTypingUsers).(TypingUpdate)
		return ok && update.Scope == scope && len(update.Users) == 0
	}, 2*time.Second, 10*time.Millisecond)

	// the record itself is untouched; only the view expired it
	snapshots := make(chan []*entity.TypingIndicator, 1)
	unsub, err := store.Typing().Subscribe(ctx, scope, func(list []*entity.TypingIndicator) {
		select {
		case snapshots <- list:
		default:
		}
	})
	require.NoError(t, err)
	defer unsub()
	assert.Len(t, <-snapshots, 1)

	// an unchanged list is not re-sent on every sweep
	count := len(sink.Of(EventTypingUsers))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, count, len(sink.Of(EventTypingUsers)))
}
