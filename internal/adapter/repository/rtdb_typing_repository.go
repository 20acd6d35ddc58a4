package repository

import (
	"context"
	"sort"
	"time"

	"firebase.google.com/go/v4/db"

	"groupchat/internal/domain/entity"
	"groupchat/internal/domain/repository"
	"groupchat/pkg/errors"
)

const typingPath = "typing"

type rtdbTypingRepository struct {
	client   *db.Client
	interval time.Duration
}

// NewRTDBTypingRepository stores indicators under "typing/{scope}/{user}".
func NewRTDBTypingRepository(client *db.Client, interval time.Duration) repository.TypingRepository {
	return &rtdbTypingRepository{
		client:   client,
		interval: interval,
	}
}

func (r *rtdbTypingRepository) ref(scope string) *db.Ref {
	return r.client.NewRef(typingPath).Child(rtdbKey(scope))
}

func (r *rtdbTypingRepository) Set(ctx context.Context, indicator *entity.TypingIndicator) error {
	if indicator.User == "" || indicator.Scope == "" {
		return errors.BadRequest("Typing indicator needs a user and scope", nil)
	}
	if err := r.ref(indicator.Scope).Child(rtdbKey(indicator.User)).Set(ctx, indicator); err != nil {
		return errors.Internal("Failed to set typing indicator", err)
	}
	return nil
}

func (r *rtdbTypingRepository) Clear(ctx context.Context, scope, user string) error {
	if err := r.ref(scope).Child(rtdbKey(user)).Delete(ctx); err != nil {
		return errors.Internal("Failed to clear typing indicator", err)
	}
	return nil
}

func (r *rtdbTypingRepository) list(ctx context.Context, scope string) ([]*entity.TypingIndicator, error) {
	var raw map[string]*entity.TypingIndicator
	if err := r.ref(scope).Get(ctx, &raw); err != nil {
		return nil, errors.Internal("Failed to read typing indicators", err)
	}

	indicators := make([]*entity.TypingIndicator, 0, len(raw))
	for key, indicator := range raw {
		if indicator == nil {
			continue
		}
		if indicator.User == "" {
			indicator.User = key
		}
		indicator.Scope = scope
		indicators = append(indicators, indicator)
	}
	sort.Slice(indicators, func(i, j int) bool { return indicators[i].User < indicators[j].User })
	return indicators, nil
}

func (r *rtdbTypingRepository) Subscribe(ctx context.Context, scope string, fn repository.TypingSnapshotFunc) (repository.Unsubscribe, error) {
	load := func(ctx context.Context) ([]*entity.TypingIndicator, error) {
		return r.list(ctx, scope)
	}
	return pollSnapshots(ctx, "typing/"+scope, r.interval, load, func(indicators []*entity.TypingIndicator) {
		fn(indicators)
	})
}
