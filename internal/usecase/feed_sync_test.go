package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupchat/internal/adapter/repository"
	"groupchat/internal/domain/entity"
	"groupchat/internal/domain/service"
	"groupchat/pkg/errors"
)

func TestFeedScrollHintSkipsFirstSnapshot(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Messages().Create(ctx, &entity.ChatMessage{ID: "m1", Timestamp: time.Now().UnixMilli(), Text: "old"}))

	sink := &recordingSink{}
	feed := NewFeedSynchronizer(store.Messages(), store.Groups(), store.Presence(), sink, time.Minute)
	require.NoError(t, feed.Start(ctx, "Ada", time.UTC))
	defer feed.Stop()

	require.Eventually(t, func() bool { return len(sink.Of(EventFeed)) == 1 }, time.Second, 5*time.Millisecond)
	first := sink.Of(EventFeed)[0].(FeedUpdate)
	assert.False(t, first.Scroll)
	assert.Equal(t, PhaseSteady, feed.Phase())

	require.NoError(t, store.Messages().Create(ctx, &entity.ChatMessage{ID: "m2", Timestamp: time.Now().UnixMilli(), Text: "new"}))
	require.Eventually(t, func() bool { return len(sink.Of(EventFeed)) == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, sink.Of(EventFeed)[1].(FeedUpdate).Scroll)

	assert.True(t, errors.Is(feed.Start(ctx, "Ada", time.UTC), "INVALID_STATE"))
}

func TestFeedSelectFiltersView(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UnixMilli()
	require.NoError(t, store.Messages().Create(ctx, &entity.ChatMessage{ID: "g", Timestamp: now, Channel: entity.ChannelGlobal}))
	require.NoError(t, store.Messages().Create(ctx, &entity.ChatMessage{ID: "a", Timestamp: now, Channel: entity.ChannelAI}))

	sink := &recordingSink{}
	feed := NewFeedSynchronizer(store.Messages(), store.Groups(), store.Presence(), sink, time.Minute)
	require.NoError(t, feed.Start(ctx, "Ada", time.UTC))
	defer feed.Stop()

	require.Eventually(t, func() bool { return feed.Phase() == PhaseSteady }, time.Second, 5*time.Millisecond)
	view := feed.View()
	require.Len(t, view.Sections, 1)
	assert.Equal(t, "g", view.Sections[0].Messages[0].ID)

	feed.Select(service.Selection{Channel: entity.ChannelAI})
	view = feed.View()
	require.Len(t, view.Sections, 1)
	assert.Equal(t, "a", view.Sections[0].Messages[0].ID)
}

func TestFeedStopDetachesListeners(t *testing.T) {
	store := repository.NewMemoryStore()
	sink := &recordingSink{}
	feed := NewFeedSynchronizer(store.Messages(), store.Groups(), store.Presence(), sink, time.Minute)

	require.NoError(t, feed.Start(context.Background(), "Ada", time.UTC))
	assert.Equal(t, 1, store.Subscribers()["groups"])

	feed.Stop()
	assert.Equal(t, 0, store.Subscribers()["messages"])
	assert.Equal(t, 0, store.Subscribers()["groups"])
	assert.Equal(t, 0, store.Subscribers()["presence"])
	assert.Equal(t, PhaseIdle, feed.Phase())
}

func TestPresenceManagerLifecycle(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	m := NewPresenceManager(store.Presence(), 10*time.Millisecond)

	ticks := make(chan struct{}, 16)
	require.NoError(t, m.Start(ctx, entity.PresenceRecord{User: "Ada"}, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	}))
	assert.True(t, m.Running())
	assert.True(t, errors.Is(m.Start(ctx, entity.PresenceRecord{User: "Ada"}, nil), "INVALID_STATE"))

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("heartbeat never ticked")
	}

	records, err := store.Presence().List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Ada", records[0].User)
	assert.NotZero(t, records[0].LastActive)

	require.NoError(t, m.Stop(ctx))
	assert.False(t, m.Running())
	records, err = store.Presence().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, m.Stop(ctx))
}
