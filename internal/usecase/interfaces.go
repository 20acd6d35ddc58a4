package usecase

import (
	"context"

	"groupchat/internal/domain/entity"
)

// TokenVerifier checks an identity token issued by the auth provider.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*entity.AuthClaims, error)
}

// ContentProvider fronts the third-party APIs the bot draws replies from.
// Every method performs at most one outbound call.
type ContentProvider interface {
	RandomFact(ctx context.Context) (string, error)
	RandomJoke(ctx context.Context) (string, error)
	RandomAdvice(ctx context.Context) (string, error)
	Weather(ctx context.Context, city string) (string, error)
	CryptoPrice(ctx context.Context, symbol string) (float64, error)
	Translate(ctx context.Context, text, targetLang string) (string, error)
	SearchGIFs(ctx context.Context, query string, limit int) ([]string, error)
	Complete(ctx context.Context, prompt string) (string, error)
}

// EventSink receives server-to-client events for one connection.
type EventSink interface {
	Emit(event string, data interface{})
}

// Events emitted to a session's sink.
const (
	EventSession     = "session"
	EventFeed        = "feed"
	EventGroups      = "groups"
	EventOnlineUsers = "online_users"
	EventTypingUsers = "typing_users"
	EventFormat      = "format"
	EventRejected    = "rejected"
	EventConfirmJoin = "confirm_join"
	EventJoined      = "joined"
	EventGIFs        = "gifs"
	EventError       = "error"
)
