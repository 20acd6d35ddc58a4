package repository

import (
	"context"

	"groupchat/internal/domain/entity"
)

// PresenceRepository stores one record per user at "presence/{user}".
type PresenceRepository interface {
	Upsert(ctx context.Context, record *entity.PresenceRecord) error
	Remove(ctx context.Context, user string) error
	List(ctx context.Context) ([]*entity.PresenceRecord, error)
	Subscribe(ctx context.Context, fn PresenceSnapshotFunc) (Unsubscribe, error)
}

// TypingRepository stores indicators at "typing/{scope}/{user}".
type TypingRepository interface {
	Set(ctx context.Context, indicator *entity.TypingIndicator) error
	Clear(ctx context.Context, scope, user string) error
	Subscribe(ctx context.Context, scope string, fn TypingSnapshotFunc) (Unsubscribe, error)
}
