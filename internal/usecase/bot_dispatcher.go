package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"groupchat/internal/domain/entity"
	"groupchat/internal/infrastructure/metrics"
	"groupchat/pkg/logger"
)

const (
	fallbackFact    = "Try Again Later or use other commands: /advice, /joke"
	fallbackJoke    = "Try Again Later or use other commands: /advice, /fact"
	fallbackAdvice  = "Try Again Later or use other commands: /joke, /fact"
	fallbackGeneric = "Try again later or use another command."

	helpText = "You can use the /joke, /fact, and /advice commands for interesting jokes, fact, and advice! " +
		"Also try /weather <city>, /crypto <symbol> and /translate <text> <lang>."
)

// BotReply is what the dispatcher decided to say and which rule produced it.
type BotReply struct {
	Command string
	Text    string
}

type trigger struct {
	name  string
	match func(lower string) bool
	reply func(botName string) string
}

func words(pattern string) func(string) bool {
	return regexp.MustCompile(`\b(` + pattern + `)\b`).MatchString
}

func substring(needle string) func(string) bool {
	return func(lower string) bool { return strings.Contains(lower, needle) }
}

// Greetings, thanks and farewells match whole words so "this" is no "hi".
// "help" and "bot" match anywhere in the text.
var triggers = []trigger{
	{
		name:  "greeting",
		match: words(`hello|hi|hey`),
		reply: func(bot string) string { return "Hello! I'm " + bot + ". Type /help to see what I can do." },
	},
	{
		name:  "thanks",
		match: words(`thanks|thank you|thx`),
		reply: func(string) string { return "You're welcome!" },
	},
	{
		name:  "farewell",
		match: words(`bye|goodbye`),
		reply: func(string) string { return "Goodbye! Come back soon." },
	},
	{
		name:  "help",
		match: substring("help"),
		reply: func(string) string { return helpText },
	},
	{
		name:  "bot",
		match: substring("bot"),
		reply: func(string) string { return helpText },
	},
}

// BotDispatcher maps outgoing user text onto a bot reply.
type BotDispatcher struct {
	content ContentProvider
	botName string
}

func NewBotDispatcher(content ContentProvider, botName string) *BotDispatcher {
	return &BotDispatcher{
		content: content,
		botName: botName,
	}
}

// Reply returns the bot's answer to text sent in channel, or false when the
// bot stays quiet. Content API failures are turned into fallback text.
func (d *BotDispatcher) Reply(ctx context.Context, text string, channel entity.Channel) (BotReply, bool) {
	if !channel.BotEnabled() {
		return BotReply{}, false
	}

	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	if lower == "" {
		return BotReply{}, false
	}

	fields := strings.Fields(trimmed)
	command := strings.ToLower(fields[0])
	args := fields[1:]

	switch command {
	case "/fact":
		if len(args) == 0 {
			return d.fetch(ctx, "fact", fallbackFact, d.content.RandomFact)
		}
	case "/joke":
		if len(args) == 0 {
			return d.fetch(ctx, "joke", fallbackJoke, d.content.RandomJoke)
		}
	case "/advice":
		if len(args) == 0 {
			return d.fetch(ctx, "advice", fallbackAdvice, d.content.RandomAdvice)
		}
	case "/help":
		return BotReply{Command: "help", Text: helpText}, true
	case "/weather":
		if len(args) == 0 {
			return BotReply{Command: "weather", Text: "Usage: /weather <city>"}, true
		}
		city := strings.Join(args, " ")
		return d.fetch(ctx, "weather", fallbackGeneric, func(ctx context.Context) (string, error) {
			return d.content.Weather(ctx, city)
		})
	case "/crypto":
		if len(args) != 1 {
			return BotReply{Command: "crypto", Text: "Usage: /crypto <symbol>"}, true
		}
		symbol := strings.ToUpper(args[0])
		return d.fetch(ctx, "crypto", fallbackGeneric, func(ctx context.Context) (string, error) {
			price, err := d.content.CryptoPrice(ctx, symbol)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s is trading at $%.2f", symbol, price), nil
		})
	case "/translate":
		if len(args) < 2 {
			return BotReply{Command: "translate", Text: "Usage: /translate <text> <lang>"}, true
		}
		phrase := strings.Join(args[:len(args)-1], " ")
		lang := strings.ToLower(args[len(args)-1])
		return d.fetch(ctx, "translate", fallbackGeneric, func(ctx context.Context) (string, error) {
			return d.content.Translate(ctx, phrase, lang)
		})
	}

	for _, t := range triggers {
		if t.match(lower) {
			return BotReply{Command: t.name, Text: t.reply(d.botName)}, true
		}
	}

	if channel == entity.ChannelAI {
		return d.fetch(ctx, "completion", fallbackGeneric, func(ctx context.Context) (string, error) {
			return d.content.Complete(ctx, trimmed)
		})
	}
	return BotReply{}, false
}

func (d *BotDispatcher) fetch(ctx context.Context, command, fallback string, call func(context.Context) (string, error)) (BotReply, bool) {
	text, err := call(ctx)
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		if err != nil {
			logger.LogAPIFailure(command, err)
		}
		metrics.ContentAPIFailures.WithLabelValues(command).Inc()
		return BotReply{Command: command, Text: fallback}, true
	}
	return BotReply{Command: command, Text: text}, true
}
