package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"groupchat/internal/domain/entity"
)

func TestBotCommands(t *testing.T) {
	cases := []struct {
		text    string
		command string
		reply   string
		api     string
	}{
		{"/fact", "fact", "Chuck Norris counted to infinity. Twice.", "fact"},
		{"  /JOKE ", "joke", "I'm reading a book about anti-gravity. It's impossible to put down.", "joke"},
		{"/advice", "advice", "Measure twice, cut once.", "advice"},
		{"/weather New York", "weather", "New York: +21°C", "weather"},
		{"/crypto btc", "crypto", "BTC is trading at $64250.50", "crypto"},
		{"/translate good morning ES", "translate", "[es] good morning", "translate"},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			content := newFakeContent()
			d := NewBotDispatcher(content, "ChatBot")

			reply, ok := d.Reply(context.Background(), tc.text, entity.ChannelGlobal)
			assert.True(t, ok)
			assert.Equal(t, tc.command, reply.Command)
			assert.Equal(t, tc.reply, reply.Text)
			assert.Equal(t, 1, content.Calls(tc.api))
		})
	}
}

func TestBotFallbacks(t *testing.T) {
	cases := map[string]string{
		"/fact":          fallbackFact,
		"/joke":          fallbackJoke,
		"/advice":        fallbackAdvice,
		"/weather Paris": fallbackGeneric,
		"/crypto eth":    fallbackGeneric,
	}
	apis := map[string]string{
		"/fact": "fact", "/joke": "joke", "/advice": "advice",
		"/weather Paris": "weather", "/crypto eth": "crypto",
	}

	for text, want := range cases {
		content := newFakeContent()
		content.Fail(apis[text])
		d := NewBotDispatcher(content, "ChatBot")

		reply, ok := d.Reply(context.Background(), text, entity.ChannelAI)
		assert.True(t, ok, text)
		assert.Equal(t, want, reply.Text, text)
		assert.Equal(t, 1, content.Calls(apis[text]), text)
	}
}

func TestBotUsageMessagesMakeNoCalls(t *testing.T) {
	content := newFakeContent()
	d := NewBotDispatcher(content, "ChatBot")

	for _, text := range []string{"/weather", "/crypto", "/translate hola", "/help"} {
		reply, ok := d.Reply(context.Background(), text, entity.ChannelGlobal)
		assert.True(t, ok, text)
		assert.NotEmpty(t, reply.Text, text)
	}
	assert.Zero(t, content.Calls("weather")+content.Calls("crypto")+content.Calls("translate"))
}

func TestBotTriggers(t *testing.T) {
	d := NewBotDispatcher(newFakeContent(), "ChatBot")

	cases := map[string]string{
		"Hello everyone":        "greeting",
		"hey":                   "greeting",
		"thanks a lot":          "thanks",
		"ok bye":                "farewell",
		"can someone help me?":  "help",
		"can someone helpme":    "help",
		"this is helpful":       "help",
		"is this a bot":         "bot",
		"chatbot are you there": "bot",
		"i love robots":         "bot",
	}
	for text, command := range cases {
		reply, ok := d.Reply(context.Background(), text, entity.ChannelGlobal)
		assert.True(t, ok, text)
		assert.Equal(t, command, reply.Command, text)
		if command == "help" || command == "bot" {
			assert.Equal(t, helpText, reply.Text, text)
		}
	}

	// greetings need a whole word: no "hi" inside "this" or "shield"
	_, ok := d.Reply(context.Background(), "this shield is sturdy", entity.ChannelGlobal)
	assert.False(t, ok)
}

func TestBotStaysQuiet(t *testing.T) {
	content := newFakeContent()
	d := NewBotDispatcher(content, "ChatBot")

	_, ok := d.Reply(context.Background(), "just chatting", entity.ChannelGlobal)
	assert.False(t, ok)

	_, ok = d.Reply(context.Background(), "/joke", entity.ChannelGroup)
	assert.False(t, ok)
	assert.Zero(t, content.Calls("joke"))

	reply, ok := d.Reply(context.Background(), "just chatting", entity.ChannelAI)
	assert.True(t, ok)
	assert.Equal(t, "completion", reply.Command)
}
