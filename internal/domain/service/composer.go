package service

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"groupchat/internal/domain/entity"
)

const (
	DefaultBackgroundColor = "#b7ebf2"
	DefaultTextColor       = "#000000"
)

// AllowedEmoji is the fixed set of emoji that make an otherwise non-Latin
// message acceptable.
var AllowedEmoji = []string{
	"😀", "😃", "😄", "😁", "😂", "🤣", "😊", "😉", "😍", "🥰", "😘", "😎",
	"🤔", "😢", "😭", "😡", "😱", "😴", "👍", "👎", "👏", "🙏", "👋", "💪",
	"🎉", "🔥", "💯", "✨", "❤️", "❤", "💔", "🌟",
}

type Reason string

const (
	ReasonEmpty               Reason = "empty"
	ReasonTooLong             Reason = "too long"
	ReasonCooldown            Reason = "cooldown"
	ReasonUnsupportedLanguage Reason = "unsupported language"
	ReasonProfanity           Reason = "profanity detected"
	ReasonGuestQuota          Reason = "guest quota reached"
)

// Rejection explains why input was not turned into a message. Silent
// rejections are still reported so callers can decide whether to show them.
type Rejection struct {
	Reason Reason `json:"reason"`
	Silent bool   `json:"silent"`
}

func (r *Rejection) Error() string {
	return "message rejected: " + string(r.Reason)
}

type Policy struct {
	MaxChars int
	MaxWords int
	Cooldown time.Duration
}

type Author struct {
	Name      string
	AvatarURL string
}

type ComposeInput struct {
	Text    string
	Toggles FormatToggles
	Author  Author
	Scope   entity.Scope
}

// Composer runs the moderation pipeline for a single session. It remembers
// the last successfully sent text for the repeat cooldown.
type Composer struct {
	policy     Policy
	classifier ProfanityClassifier

	mu       sync.Mutex
	lastText string
	lastSent time.Time
}

func NewComposer(policy Policy, classifier ProfanityClassifier) *Composer {
	return &Composer{
		policy:     policy,
		classifier: classifier,
	}
}

// Compose validates input and builds the message to write. Checks run in
// order and the first failing one wins. Compose does not record the send;
// call Commit once the write succeeded.
func (c *Composer) Compose(in ComposeInput, now time.Time) (*entity.ChatMessage, *Rejection) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, &Rejection{Reason: ReasonEmpty, Silent: true}
	}

	if c.tooLong(text) {
		return nil, &Rejection{Reason: ReasonTooLong}
	}

	if c.inCooldown(text, now) {
		return nil, &Rejection{Reason: ReasonCooldown, Silent: true}
	}

	if !containsAllowedEmoji(text) && !containsLatinLetter(text) {
		return nil, &Rejection{Reason: ReasonUnsupportedLanguage}
	}

	if c.classifier != nil && c.classifier.IsProfane(text) {
		return nil, &Rejection{Reason: ReasonProfanity}
	}

	msg := &entity.ChatMessage{
		ID:              uuid.New().String(),
		User:            in.Author.Name,
		Timestamp:       now.UnixMilli(),
		Text:            text,
		FormattedText:   ApplyFormatting(EscapeHTML(text), in.Toggles),
		AvatarURL:       in.Author.AvatarURL,
		BackgroundColor: DefaultBackgroundColor,
		TextColor:       DefaultTextColor,
	}
	applyScope(msg, in.Scope)
	return msg, nil
}

// Commit records a successful send, restarting the cooldown window. Media
// sends commit an empty text, which clears the repeat state.
func (c *Composer) Commit(text string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastText = normalize(text)
	c.lastSent = at
}

func (c *Composer) tooLong(text string) bool {
	if c.policy.MaxWords > 0 && len(strings.Fields(text)) > c.policy.MaxWords {
		return true
	}
	if c.policy.MaxChars > 0 && len([]rune(text)) > c.policy.MaxChars {
		return true
	}
	return false
}

func (c *Composer) inCooldown(text string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastText == "" {
		return false
	}
	return normalize(text) == c.lastText && now.Sub(c.lastSent) < c.policy.Cooldown
}

// NewMediaMessage builds an image or GIF message. Media skips text moderation.
func NewMediaMessage(imageURL string, author Author, scope entity.Scope, now time.Time) *entity.ChatMessage {
	msg := &entity.ChatMessage{
		ID:              uuid.New().String(),
		User:            author.Name,
		Timestamp:       now.UnixMilli(),
		ImageURL:        imageURL,
		AvatarURL:       author.AvatarURL,
		BackgroundColor: DefaultBackgroundColor,
		TextColor:       DefaultTextColor,
	}
	applyScope(msg, scope)
	return msg
}

// NewBotMessage builds a text-only reply in the scope of the triggering message.
func NewBotMessage(text string, bot Author, trigger *entity.ChatMessage, now time.Time) *entity.ChatMessage {
	return &entity.ChatMessage{
		ID:              uuid.New().String(),
		User:            bot.Name,
		Timestamp:       now.UnixMilli(),
		Text:            text,
		FormattedText:   EscapeHTML(text),
		AvatarURL:       bot.AvatarURL,
		BackgroundColor: DefaultBackgroundColor,
		TextColor:       DefaultTextColor,
		GroupID:         trigger.GroupID,
		Channel:         trigger.Channel,
		IsBot:           true,
	}
}

func applyScope(msg *entity.ChatMessage, scope entity.Scope) {
	if scope.GroupID != "" {
		msg.GroupID = scope.GroupID
		msg.Channel = entity.ChannelGroup
		return
	}
	msg.Channel = scope.Channel
	if msg.Channel == "" {
		msg.Channel = entity.ChannelGlobal
	}
}

func normalize(text string) string {
	text = norm.NFC.String(strings.TrimSpace(text))
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func containsAllowedEmoji(text string) bool {
	for _, e := range AllowedEmoji {
		if strings.Contains(text, e) {
			return true
		}
	}
	return false
}

func containsLatinLetter(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) && unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}
