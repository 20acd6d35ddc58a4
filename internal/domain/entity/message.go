package entity

import "time"

// ChatMessage is one entry of the append-only message log.
// User-authored messages carry either Text or ImageURL, never both; bot
// messages carry Text only.
type ChatMessage struct {
	ID              string  `json:"id" firestore:"id"`
	User            string  `json:"user" firestore:"user"`
	Timestamp       int64   `json:"timestamp" firestore:"timestamp"` // epoch millis
	Text            string  `json:"text,omitempty" firestore:"text,omitempty"`
	FormattedText   string  `json:"formattedText,omitempty" firestore:"formattedText,omitempty"`
	ImageURL        string  `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	AvatarURL       string  `json:"avatarUrl,omitempty" firestore:"avatarUrl,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty" firestore:"backgroundColor,omitempty"`
	TextColor       string  `json:"textColor,omitempty" firestore:"textColor,omitempty"`
	GroupID         string  `json:"groupId,omitempty" firestore:"groupId,omitempty"`
	Channel         Channel `json:"channel,omitempty" firestore:"channel,omitempty"`
	IsBot           bool    `json:"isBot,omitempty" firestore:"isBot,omitempty"`
}

func (m *ChatMessage) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// EffectiveChannel treats messages written without a discriminator as global.
func (m *ChatMessage) EffectiveChannel() Channel {
	if m.GroupID != "" {
		return ChannelGroup
	}
	if m.Channel == "" {
		return ChannelGlobal
	}
	return m.Channel
}

func (m *ChatMessage) HasMedia() bool {
	return m.ImageURL != ""
}
