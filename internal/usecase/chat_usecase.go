package usecase

import (
	"context"
	"time"

	"groupchat/internal/domain/entity"
	"groupchat/internal/domain/repository"
	"groupchat/internal/domain/service"
	"groupchat/internal/infrastructure/metrics"
	"groupchat/pkg/errors"
	"groupchat/pkg/logger"
)

type ChatUseCase struct {
	messageRepo repository.MessageRepository
	bot         *BotDispatcher
	botAuthor   service.Author
	clock       func() time.Time
}

func NewChatUseCase(messageRepo repository.MessageRepository, bot *BotDispatcher, botName string) *ChatUseCase {
	return &ChatUseCase{
		messageRepo: messageRepo,
		bot:         bot,
		botAuthor: service.Author{
			Name:      botName,
			AvatarURL: service.AvatarURL(botName),
		},
		clock: time.Now,
	}
}

func (uc *ChatUseCase) BotName() string {
	return uc.botAuthor.Name
}

// Publish appends a composed message to the log.
func (uc *ChatUseCase) Publish(ctx context.Context, msg *entity.ChatMessage) error {
	if err := uc.messageRepo.Create(ctx, msg); err != nil {
		logger.Error("Publish: failed to write message %s: %v", msg.ID, err)
		return errors.Internal("Failed to send message", err)
	}

	kind := "text"
	if msg.IsBot {
		kind = "bot"
	} else if msg.HasMedia() {
		kind = "media"
	}
	metrics.MessagesSent.WithLabelValues(string(msg.EffectiveChannel()), kind).Inc()
	return nil
}

// DispatchBotReply writes the bot's answer to trigger, if it has one. The
// reply is dropped when ctx ends before it is ready.
func (uc *ChatUseCase) DispatchBotReply(ctx context.Context, trigger *entity.ChatMessage) (*entity.ChatMessage, error) {
	if trigger.IsBot || trigger.GroupID != "" || !trigger.EffectiveChannel().BotEnabled() || trigger.Text == "" {
		return nil, nil
	}

	reply, ok := uc.bot.Reply(ctx, trigger.Text, trigger.EffectiveChannel())
	if !ok || reply.Text == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		logger.Debug("Discarding %s reply to %s: %v", reply.Command, trigger.ID, err)
		return nil, err
	}

	now := uc.clock()
	if now.UnixMilli() <= trigger.Timestamp {
		now = time.UnixMilli(trigger.Timestamp + 1)
	}
	msg := service.NewBotMessage(reply.Text, uc.botAuthor, trigger, now)
	if msg.Channel == "" {
		msg.Channel = entity.ChannelGlobal
	}

	if err := uc.Publish(ctx, msg); err != nil {
		return nil, err
	}
	metrics.BotReplies.WithLabelValues(reply.Command).Inc()
	return msg, nil
}

// ListView reads the log once and derives the view for sel.
func (uc *ChatUseCase) ListView(ctx context.Context, sel service.Selection, loc *time.Location, limit int) ([]service.DateSection, int, error) {
	messages, err := uc.messageRepo.List(ctx)
	if err != nil {
		return nil, 0, err
	}

	visible := service.SortMessages(service.FilterForView(messages, sel))
	total := len(visible)
	if limit > 0 && len(visible) > limit {
		visible = visible[len(visible)-limit:]
	}
	return service.GroupByDate(visible, loc), total, nil
}
