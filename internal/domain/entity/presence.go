package entity

import "time"

type PresenceRecord struct {
	User       string `json:"user"`
	LastActive int64  `json:"lastActive"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
}

// IsOnline reports whether the record was refreshed within the freshness window.
func (p *PresenceRecord) IsOnline(now time.Time, freshness time.Duration) bool {
	return now.Sub(time.UnixMilli(p.LastActive)) < freshness
}

type TypingIndicator struct {
	User      string `json:"user"`
	Timestamp int64  `json:"timestamp"`
	Scope     string `json:"scope"`
}

func (t *TypingIndicator) IsActive(now time.Time, idle time.Duration) bool {
	return now.Sub(time.UnixMilli(t.Timestamp)) < idle
}
