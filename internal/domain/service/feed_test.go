package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupchat/internal/domain/entity"
)

func at(t *testing.T, loc *time.Location, value string) int64 {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	require.NoError(t, err)
	return ts.UnixMilli()
}

func TestGroupByDateOneSectionPerLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	msgs := []*entity.ChatMessage{
		{ID: "c", Timestamp: at(t, loc, "2024-03-02 00:10")},
		{ID: "a", Timestamp: at(t, loc, "2024-03-01 08:00")},
		{ID: "d", Timestamp: at(t, loc, "2024-03-04 12:00")},
		{ID: "b", Timestamp: at(t, loc, "2024-03-01 23:59")},
		{ID: "e", Timestamp: at(t, loc, "2024-03-02 00:05")},
	}

	sections := GroupByDate(msgs, loc)
	require.Len(t, sections, 3)

	assert.Equal(t, "2024-03-01", sections[0].Date)
	assert.Equal(t, "2024-03-02", sections[1].Date)
	assert.Equal(t, "2024-03-04", sections[2].Date)

	ids := func(s DateSection) []string {
		out := []string{}
		for _, m := range s.Messages {
			out = append(out, m.ID)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b"}, ids(sections[0]))
	assert.Equal(t, []string{"e", "c"}, ids(sections[1]))
	assert.Equal(t, []string{"d"}, ids(sections[2]))

	for _, s := range sections {
		for i, m := range s.Messages {
			assert.Equal(t, s.Date, m.Time().In(loc).Format("2006-01-02"))
			if i > 0 {
				assert.LessOrEqual(t, s.Messages[i-1].Timestamp, m.Timestamp)
			}
		}
	}
}

func TestGroupByDateUsesViewerTimezone(t *testing.T) {
	ts := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC).UnixMilli()
	msgs := []*entity.ChatMessage{{ID: "x", Timestamp: ts}}

	assert.Equal(t, "2024-03-01", GroupByDate(msgs, time.UTC)[0].Date)
	assert.Equal(t, "2024-03-02", GroupByDate(msgs, time.FixedZone("UTC+2", 2*60*60))[0].Date)
	assert.Empty(t, GroupByDate(nil, time.UTC))
}

func TestFilterForView(t *testing.T) {
	msgs := []*entity.ChatMessage{
		{ID: "legacy"},
		{ID: "global", Channel: entity.ChannelGlobal},
		{ID: "ai", Channel: entity.ChannelAI},
		{ID: "g1", GroupID: "g1", Channel: entity.ChannelGroup},
		{ID: "g2", GroupID: "g2", Channel: entity.ChannelGroup},
	}

	idsOf := func(list []*entity.ChatMessage) []string {
		out := []string{}
		for _, m := range list {
			out = append(out, m.ID)
		}
		return out
	}

	assert.Equal(t, []string{"legacy", "global"}, idsOf(FilterForView(msgs, Selection{Channel: entity.ChannelGlobal})))
	assert.Equal(t, []string{"ai"}, idsOf(FilterForView(msgs, Selection{Channel: entity.ChannelAI})))
	assert.Equal(t, []string{"g1"}, idsOf(FilterForView(msgs, Selection{Channel: entity.ChannelGroup, GroupID: "g1"})))
	assert.Equal(t, []string{"legacy", "global"}, idsOf(FilterForView(msgs, Selection{})))
}

func TestOnlineUsersFreshness(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	records := []*entity.PresenceRecord{
		{User: "fresh", LastActive: now.Add(-10 * time.Second).UnixMilli()},
		{User: "edge", LastActive: now.Add(-60 * time.Second).UnixMilli()},
		{User: "stale", LastActive: now.Add(-5 * time.Minute).UnixMilli()},
		{User: "me", LastActive: now.UnixMilli()},
		{User: "almost", LastActive: now.Add(-59 * time.Second).UnixMilli()},
	}

	online := OnlineUsers(records, "me", now, 60*time.Second)
	names := []string{}
	for _, r := range online {
		names = append(names, r.User)
	}
	assert.Equal(t, []string{"almost", "fresh"}, names)
}

func TestActiveTypers(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	indicators := []*entity.TypingIndicator{
		{User: "bob", Timestamp: now.Add(-500 * time.Millisecond).UnixMilli()},
		{User: "carol", Timestamp: now.Add(-3 * time.Second).UnixMilli()},
		{User: "ada", Timestamp: now.UnixMilli()},
		{User: "alice", Timestamp: now.Add(-1 * time.Second).UnixMilli()},
	}
	assert.Equal(t, []string{"alice", "bob"}, ActiveTypers(indicators, "ada", now, 2*time.Second))
}
