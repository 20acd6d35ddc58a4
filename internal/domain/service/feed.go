package service

import (
	"sort"
	"time"

	"groupchat/internal/domain/entity"
)

// Selection is what the viewer is looking at: a group, or a shared channel
// when GroupID is empty.
type Selection struct {
	Channel entity.Channel `json:"channel"`
	GroupID string         `json:"group_id,omitempty"`
}

func (s Selection) Scope() entity.Scope {
	if s.GroupID != "" {
		return entity.GroupScope(s.GroupID)
	}
	ch := s.Channel
	if ch == "" || ch == entity.ChannelGroup {
		ch = entity.ChannelGlobal
	}
	return entity.Scope{Channel: ch}
}

type DateSection struct {
	Date     string                `json:"date"` // YYYY-MM-DD in the viewer's timezone
	Messages []*entity.ChatMessage `json:"messages"`
}

// SortMessages orders messages by timestamp ascending, breaking ties by id
// so repeated snapshots render identically.
func SortMessages(messages []*entity.ChatMessage) []*entity.ChatMessage {
	out := make([]*entity.ChatMessage, len(messages))
	copy(out, messages)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FilterForView keeps the messages visible under sel.
func FilterForView(messages []*entity.ChatMessage, sel Selection) []*entity.ChatMessage {
	out := make([]*entity.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if sel.GroupID != "" {
			if m.GroupID == sel.GroupID {
				out = append(out, m)
			}
			continue
		}
		if m.GroupID == "" && m.EffectiveChannel() == sel.Scope().Channel {
			out = append(out, m)
		}
	}
	return out
}

// GroupByDate sorts messages and splits them into one section per local
// calendar date in loc. Sections are in ascending date order.
func GroupByDate(messages []*entity.ChatMessage, loc *time.Location) []DateSection {
	if loc == nil {
		loc = time.UTC
	}
	sorted := SortMessages(messages)

	var sections []DateSection
	for _, m := range sorted {
		day := m.Time().In(loc).Format("2006-01-02")
		if n := len(sections); n > 0 && sections[n-1].Date == day {
			sections[n-1].Messages = append(sections[n-1].Messages, m)
			continue
		}
		sections = append(sections, DateSection{Date: day, Messages: []*entity.ChatMessage{m}})
	}
	return sections
}

// BuildView is the full derivation used by every feed consumer.
func BuildView(messages []*entity.ChatMessage, sel Selection, loc *time.Location) []DateSection {
	return GroupByDate(FilterForView(messages, sel), loc)
}

// OnlineUsers returns the records of other users refreshed within freshness,
// sorted by name.
func OnlineUsers(records []*entity.PresenceRecord, self string, now time.Time, freshness time.Duration) []*entity.PresenceRecord {
	out := make([]*entity.PresenceRecord, 0, len(records))
	for _, r := range records {
		if r.User == self || !r.IsOnline(now, freshness) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out
}

// ActiveTypers returns other users whose indicator is younger than idle.
func ActiveTypers(indicators []*entity.TypingIndicator, self string, now time.Time, idle time.Duration) []string {
	names := make([]string, 0, len(indicators))
	for _, t := range indicators {
		if t.User == self || !t.IsActive(now, idle) {
			continue
		}
		names = append(names, t.User)
	}
	sort.Strings(names)
	return names
}
