package repository

import (
	"context"
	"sort"
	"sync"

	"groupchat/internal/domain/entity"
	"groupchat/internal/domain/repository"
	"groupchat/pkg/errors"
)

// MemoryStore is a process-local stand-in for the Firebase collections.
// Every subscription receives the full collection after each write.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string]*entity.ChatMessage
	groups   map[string]*entity.Group
	presence map[string]*entity.PresenceRecord
	typing   map[string]map[string]*entity.TypingIndicator

	messageFeed  *snapshotFeed[*entity.ChatMessage]
	groupFeed    *snapshotFeed[*entity.Group]
	presenceFeed *snapshotFeed[*entity.PresenceRecord]
	typingMu     sync.Mutex
	typingFeeds  map[string]*snapshotFeed[*entity.TypingIndicator]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages:     make(map[string]*entity.ChatMessage),
		groups:       make(map[string]*entity.Group),
		presence:     make(map[string]*entity.PresenceRecord),
		typing:       make(map[string]map[string]*entity.TypingIndicator),
		messageFeed:  newSnapshotFeed[*entity.ChatMessage](),
		groupFeed:    newSnapshotFeed[*entity.Group](),
		presenceFeed: newSnapshotFeed[*entity.PresenceRecord](),
		typingFeeds:  make(map[string]*snapshotFeed[*entity.TypingIndicator]),
	}
}

func (s *MemoryStore) Messages() repository.MessageRepository  { return &memoryMessageRepository{s} }
func (s *MemoryStore) Groups() repository.GroupRepository      { return &memoryGroupRepository{s} }
func (s *MemoryStore) Presence() repository.PresenceRepository { return &memoryPresenceRepository{s} }
func (s *MemoryStore) Typing() repository.TypingRepository     { return &memoryTypingRepository{s} }

type memoryMessageRepository struct{ s *MemoryStore }

func (r *memoryMessageRepository) Create(ctx context.Context, message *entity.ChatMessage) error {
	if message.ID == "" {
		return errors.BadRequest("Message id is required", nil)
	}

	r.s.mu.Lock()
	if _, exists := r.s.messages[message.ID]; exists {
		r.s.mu.Unlock()
		return errors.Conflict("Message already exists")
	}
	stored := *message
	r.s.messages[message.ID] = &stored
	r.s.messageFeed.publish(r.s.messagesLocked())
	r.s.mu.Unlock()
	return nil
}

func (r *memoryMessageRepository) List(ctx context.Context) ([]*entity.ChatMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.messagesLocked(), nil
}

func (r *memoryMessageRepository) Subscribe(ctx context.Context, fn repository.MessageSnapshotFunc) (repository.Unsubscribe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.messageFeed.subscribe(ctx, r.s.messagesLocked(), fn), nil
}

func (s *MemoryStore) messagesLocked() []*entity.ChatMessage {
	out := make([]*entity.ChatMessage, 0, len(s.messages))
	for _, m := range s.messages {
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type memoryGroupRepository struct{ s *MemoryStore }

func (r *memoryGroupRepository) Create(ctx context.Context, group *entity.Group) error {
	if group.ID == "" {
		return errors.BadRequest("Group id is required", nil)
	}

	r.s.mu.Lock()
	if _, exists := r.s.groups[group.ID]; exists {
		r.s.mu.Unlock()
		return errors.Conflict("Group already exists")
	}
	r.s.groups[group.ID] = copyGroup(group)
	r.s.groupFeed.publish(r.s.groupsLocked())
	r.s.mu.Unlock()
	return nil
}

func (r *memoryGroupRepository) GetByID(ctx context.Context, id string) (*entity.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.groups[id]
	if !ok {
		return nil, errors.NotFound("Group", nil)
	}
	return copyGroup(g), nil
}

func (r *memoryGroupRepository) List(ctx context.Context) ([]*entity.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.groupsLocked(), nil
}

func (r *memoryGroupRepository) AddMember(ctx context.Context, groupID, member string) error {
	r.s.mu.Lock()
	g, ok := r.s.groups[groupID]
	if !ok {
		r.s.mu.Unlock()
		return errors.NotFound("Group", nil)
	}
	if g.HasMember(member) {
		r.s.mu.Unlock()
		return nil
	}
	g.Members = append(g.Members, member)
	r.s.groupFeed.publish(r.s.groupsLocked())
	r.s.mu.Unlock()
	return nil
}

func (r *memoryGroupRepository) Subscribe(ctx context.Context, fn repository.GroupSnapshotFunc) (repository.Unsubscribe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.groupFeed.subscribe(ctx, r.s.groupsLocked(), fn), nil
}

func (s *MemoryStore) groupsLocked() []*entity.Group {
	out := make([]*entity.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, copyGroup(g))
	}
	sortGroups(out)
	return out
}

func copyGroup(g *entity.Group) *entity.Group {
	c := *g
	c.Members = append([]string(nil), g.Members...)
	return &c
}

type memoryPresenceRepository struct{ s *MemoryStore }

func (r *memoryPresenceRepository) Upsert(ctx context.Context, record *entity.PresenceRecord) error {
	if record.User == "" {
		return errors.BadRequest("Presence user is required", nil)
	}

	r.s.mu.Lock()
	stored := *record
	r.s.presence[record.User] = &stored
	r.s.presenceFeed.publish(r.s.presenceLocked())
	r.s.mu.Unlock()
	return nil
}

func (r *memoryPresenceRepository) Remove(ctx context.Context, user string) error {
	r.s.mu.Lock()
	if _, ok := r.s.presence[user]; !ok {
		r.s.mu.Unlock()
		return nil
	}
	delete(r.s.presence, user)
	r.s.presenceFeed.publish(r.s.presenceLocked())
	r.s.mu.Unlock()
	return nil
}

func (r *memoryPresenceRepository) List(ctx context.Context) ([]*entity.PresenceRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.presenceLocked(), nil
}

func (r *memoryPresenceRepository) Subscribe(ctx context.Context, fn repository.PresenceSnapshotFunc) (repository.Unsubscribe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.presenceFeed.subscribe(ctx, r.s.presenceLocked(), fn), nil
}

func (s *MemoryStore) presenceLocked() []*entity.PresenceRecord {
	out := make([]*entity.PresenceRecord, 0, len(s.presence))
	for _, p := range s.presence {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out
}

type memoryTypingRepository struct{ s *MemoryStore }

func (r *memoryTypingRepository) Set(ctx context.Context, indicator *entity.TypingIndicator) error {
	if indicator.Scope == "" || indicator.User == "" {
		return errors.BadRequest("Typing scope and user are required", nil)
	}

	r.s.mu.Lock()
	scoped, ok := r.s.typing[indicator.Scope]
	if !ok {
		scoped = make(map[string]*entity.TypingIndicator)
		r.s.typing[indicator.Scope] = scoped
	}
	stored := *indicator
	scoped[indicator.User] = &stored
	r.s.typingFeed(indicator.Scope).publish(r.s.typingLocked(indicator.Scope))
	r.s.mu.Unlock()
	return nil
}

func (r *memoryTypingRepository) Clear(ctx context.Context, scope, user string) error {
	r.s.mu.Lock()
	scoped, ok := r.s.typing[scope]
	if !ok {
		r.s.mu.Unlock()
		return nil
	}
	if _, ok := scoped[user]; !ok {
		r.s.mu.Unlock()
		return nil
	}
	delete(scoped, user)
	r.s.typingFeed(scope).publish(r.s.typingLocked(scope))
	r.s.mu.Unlock()
	return nil
}

func (r *memoryTypingRepository) Subscribe(ctx context.Context, scope string, fn repository.TypingSnapshotFunc) (repository.Unsubscribe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.typingFeed(scope).subscribe(ctx, r.s.typingLocked(scope), fn), nil
}

func (s *MemoryStore) typingLocked(scope string) []*entity.TypingIndicator {
	scoped := s.typing[scope]
	out := make([]*entity.TypingIndicator, 0, len(scoped))
	for _, t := range scoped {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out
}

func (s *MemoryStore) typingFeed(scope string) *snapshotFeed[*entity.TypingIndicator] {
	s.typingMu.Lock()
	defer s.typingMu.Unlock()
	f, ok := s.typingFeeds[scope]
	if !ok {
		f = newSnapshotFeed[*entity.TypingIndicator]()
		s.typingFeeds[scope] = f
	}
	return f
}

// Subscribers reports live listeners per collection; used to check teardown.
func (s *MemoryStore) Subscribers() map[string]int {
	out := map[string]int{
		"messages": s.messageFeed.size(),
		"groups":   s.groupFeed.size(),
		"presence": s.presenceFeed.size(),
	}
	s.typingMu.Lock()
	for scope, f := range s.typingFeeds {
		out["typing/"+scope] = f.size()
	}
	s.typingMu.Unlock()
	return out
}
