package handler

import (
	"time"

	"groupchat/internal/domain/repository"
	"groupchat/internal/usecase"
)

var (
	authHandler     *AuthHandler
	chatHandler     *ChatHandler
	groupHandler    *GroupHandler
	presenceHandler *PresenceHandler
)

func Setup(
	chatUseCase *usecase.ChatUseCase,
	groupUseCase *usecase.GroupUseCase,
	presenceRepo repository.PresenceRepository,
	presenceFreshness time.Duration,
) {
	authHandler = NewAuthHandler()
	chatHandler = NewChatHandler(chatUseCase, groupUseCase)
	groupHandler = NewGroupHandler(groupUseCase)
	presenceHandler = NewPresenceHandler(presenceRepo, presenceFreshness)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetGroupHandler() *GroupHandler {
	return groupHandler
}

func GetPresenceHandler() *PresenceHandler {
	return presenceHandler
}
