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

const presencePath = "presence"

type rtdbPresenceRepository struct {
	client   *db.Client
	interval time.Duration
}

// NewRTDBPresenceRepository stores presence under "presence/{user}".
// Subscribers are refreshed every interval.
func NewRTDBPresenceRepository(client *db.Client, interval time.Duration) repository.PresenceRepository {
	return &rtdbPresenceRepository{
		client:   client,
		interval: interval,
	}
}

func (r *rtdbPresenceRepository) Upsert(ctx context.Context, record *entity.PresenceRecord) error {
	if record.User == "" {
		return errors.BadRequest("Presence user is required", nil)
	}
	if err := r.client.NewRef(presencePath).Child(rtdbKey(record.User)).Set(ctx, record); err != nil {
		return errors.Internal("Failed to update presence", err)
	}
	return nil
}

func (r *rtdbPresenceRepository) Remove(ctx context.Context, user string) error {
	if err := r.client.NewRef(presencePath).Child(rtdbKey(user)).Delete(ctx); err != nil {
		return errors.Internal("Failed to remove presence", err)
	}
	return nil
}

func (r *rtdbPresenceRepository) List(ctx context.Context) ([]*entity.PresenceRecord, error) {
	var raw map[string]*entity.PresenceRecord
	if err := r.client.NewRef(presencePath).Get(ctx, &raw); err != nil {
		return nil, errors.Internal("Failed to read presence", err)
	}

	records := make([]*entity.PresenceRecord, 0, len(raw))
	for key, record := range raw {
		if record == nil {
			continue
		}
		if record.User == "" {
			record.User = key
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].User < records[j].User })
	return records, nil
}

func (r *rtdbPresenceRepository) Subscribe(ctx context.Context, fn repository.PresenceSnapshotFunc) (repository.Unsubscribe, error) {
	return pollSnapshots(ctx, "presence", r.interval, r.List, func(records []*entity.PresenceRecord) {
		fn(records)
	})
}
