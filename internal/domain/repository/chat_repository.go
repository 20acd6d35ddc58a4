package repository

import (
	"context"

	"groupchat/internal/domain/entity"
)

// Unsubscribe detaches a snapshot listener. It is safe to call more than once.
type Unsubscribe func()

// Snapshot callbacks always receive the full collection, never a diff.
type (
	MessageSnapshotFunc  func(messages []*entity.ChatMessage)
	GroupSnapshotFunc    func(groups []*entity.Group)
	PresenceSnapshotFunc func(records []*entity.PresenceRecord)
	TypingSnapshotFunc   func(indicators []*entity.TypingIndicator)
)

// MessageRepository is the append-only message log at path "messages".
type MessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	List(ctx context.Context) ([]*entity.ChatMessage, error)
	Subscribe(ctx context.Context, fn MessageSnapshotFunc) (Unsubscribe, error)
}

// GroupRepository stores groups at path "groups". Groups only ever gain members.
type GroupRepository interface {
	Create(ctx context.Context, group *entity.Group) error
	GetByID(ctx context.Context, id string) (*entity.Group, error)
	List(ctx context.Context) ([]*entity.Group, error)
	// AddMember appends member to the group's member set; adding an existing
	// member leaves the set unchanged.
	AddMember(ctx context.Context, groupID, member string) error
	Subscribe(ctx context.Context, fn GroupSnapshotFunc) (Unsubscribe, error)
}
