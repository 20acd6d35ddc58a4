package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupchat/internal/domain/entity"
)

type wordClassifier struct {
	words []string
}

func (w wordClassifier) IsProfane(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range w.words {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func newTestComposer() *Composer {
	return NewComposer(Policy{MaxChars: 70, MaxWords: 30, Cooldown: 15 * time.Second}, wordClassifier{words: []string{"darn"}})
}

func input(text string) ComposeInput {
	return ComposeInput{
		Text:   text,
		Author: Author{Name: "Ada", AvatarURL: AvatarURL("Ada")},
		Scope:  entity.GlobalScope(),
	}
}

func TestComposeBuildsPayload(t *testing.T) {
	c := newTestComposer()
	now := time.UnixMilli(1_700_000_000_000)

	msg, rej := c.Compose(input("  hello  "), now)
	require.Nil(t, rej)
	require.NotNil(t, msg)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, "hello", msg.FormattedText)
	assert.Equal(t, "Ada", msg.User)
	assert.Equal(t, now.UnixMilli(), msg.Timestamp)
	assert.Equal(t, DefaultBackgroundColor, msg.BackgroundColor)
	assert.Equal(t, DefaultTextColor, msg.TextColor)
	assert.Equal(t, entity.ChannelGlobal, msg.Channel)
	assert.Empty(t, msg.GroupID)
	assert.Empty(t, msg.ImageURL)
}

func TestComposeScopesGroupMessages(t *testing.T) {
	c := newTestComposer()
	in := input("hi team")
	in.Scope = entity.GroupScope("g1")

	msg, rej := c.Compose(in, time.Now())
	require.Nil(t, rej)
	assert.Equal(t, "g1", msg.GroupID)
	assert.Equal(t, entity.ChannelGroup, msg.Channel)
}

func TestComposeRejectsEmptySilently(t *testing.T) {
	c := newTestComposer()
	for _, text := range []string{"", "   ", "\n\t"} {
		msg, rej := c.Compose(input(text), time.Now())
		assert.Nil(t, msg)
		require.NotNil(t, rej)
		assert.Equal(t, ReasonEmpty, rej.Reason)
		assert.True(t, rej.Silent)
	}
}

func TestComposeRejectsTooLong(t *testing.T) {
	c := newTestComposer()

	cases := map[string]string{
		"chars": strings.Repeat("a", 71),
		"words": strings.TrimSpace(strings.Repeat("a ", 31)),
		"both":  strings.Repeat("darn ", 40),
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			msg, rej := c.Compose(input(text), time.Now())
			assert.Nil(t, msg)
			require.NotNil(t, rej)
			assert.Equal(t, ReasonTooLong, rej.Reason)
			assert.Equal(t, "too long", string(rej.Reason))
			assert.False(t, rej.Silent)
		})
	}

	_, rej := c.Compose(input(strings.Repeat("a", 70)), time.Now())
	assert.Nil(t, rej)
}

func TestComposeRepeatCooldown(t *testing.T) {
	c := newTestComposer()
	t0 := time.UnixMilli(1_700_000_000_000)

	msg, rej := c.Compose(input("hello"), t0)
	require.Nil(t, rej)
	c.Commit(msg.Text, t0)

	_, rej = c.Compose(input(" hello "), t0.Add(5*time.Second))
	require.NotNil(t, rej)
	assert.Equal(t, ReasonCooldown, rej.Reason)
	assert.True(t, rej.Silent)

	_, rej = c.Compose(input("something else"), t0.Add(5*time.Second))
	assert.Nil(t, rej)

	_, rej = c.Compose(input("hello"), t0.Add(15*time.Second))
	assert.Nil(t, rej)
}

func TestComposeCooldownFollowsLastSuccessfulSend(t *testing.T) {
	c := newTestComposer()
	t0 := time.UnixMilli(1_700_000_000_000)

	c.Commit("hello", t0)
	c.Commit("bye", t0.Add(time.Second))

	_, rej := c.Compose(input("hello"), t0.Add(2*time.Second))
	assert.Nil(t, rej)
	_, rej = c.Compose(input("bye"), t0.Add(2*time.Second))
	require.NotNil(t, rej)
	assert.Equal(t, ReasonCooldown, rej.Reason)
}

func TestComposeRejectsUnsupportedLanguage(t *testing.T) {
	c := newTestComposer()
	for _, text := range []string{"!!!", "???...", "123", "привет", "你好", "مرحبا"} {
		_, rej := c.Compose(input(text), time.Now())
		require.NotNil(t, rej, text)
		assert.Equal(t, ReasonUnsupportedLanguage, rej.Reason, text)
	}

	for _, text := range []string{"👍", "привет 👍", "café", "ok!"} {
		_, rej := c.Compose(input(text), time.Now())
		assert.Nil(t, rej, text)
	}
}

func TestComposeRejectsProfanity(t *testing.T) {
	c := newTestComposer()
	_, rej := c.Compose(input("oh darn it"), time.Now())
	require.NotNil(t, rej)
	assert.Equal(t, ReasonProfanity, rej.Reason)
	assert.False(t, rej.Silent)
}

func TestComposeAppliesFormatting(t *testing.T) {
	c := newTestComposer()
	in := input(`a<b & "c"`)
	in.Toggles = FormatToggles{Bold: true, Italic: true}

	msg, rej := c.Compose(in, time.Now())
	require.Nil(t, rej)
	assert.Equal(t, `<b><i>a&lt;b &amp; &quot;c&quot;</i></b>`, msg.FormattedText)
	assert.Equal(t, `a<b & "c"`, msg.Text)
	assert.Equal(t, EscapeHTML(msg.Text), StripMarkup(msg.FormattedText))
}

func TestNewBotMessageKeepsTriggerScope(t *testing.T) {
	trigger := &entity.ChatMessage{ID: "m1", Channel: entity.ChannelAI}
	bot := NewBotMessage("hi <there>", Author{Name: "ChatBot"}, trigger, time.Now())

	assert.True(t, bot.IsBot)
	assert.Equal(t, "ChatBot", bot.User)
	assert.Equal(t, entity.ChannelAI, bot.Channel)
	assert.Equal(t, "hi <there>", bot.Text)
	assert.Equal(t, "hi &lt;there&gt;", bot.FormattedText)
	assert.Empty(t, bot.ImageURL)
}

func TestNewMediaMessageHasNoText(t *testing.T) {
	msg := NewMediaMessage("https://media.example/cat.gif", Author{Name: "Ada"}, entity.Scope{Channel: entity.ChannelAI}, time.Now())
	assert.Empty(t, msg.Text)
	assert.Equal(t, "https://media.example/cat.gif", msg.ImageURL)
	assert.Equal(t, entity.ChannelAI, msg.Channel)
}

func TestProfanityFilterFlagsObviousWords(t *testing.T) {
	f := NewProfanityFilter()
	assert.True(t, f.IsProfane("what the fuck"))
	assert.False(t, f.IsProfane("have a nice day"))
}
