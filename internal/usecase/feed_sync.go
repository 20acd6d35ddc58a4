package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"groupchat/internal/domain/entity"
	"groupchat/internal/domain/repository"
	"groupchat/internal/domain/service"
	"groupchat/pkg/errors"
	"groupchat/pkg/logger"
)

// StreamPhase tracks where a subscription is in its lifecycle.
type StreamPhase int

const (
	PhaseIdle StreamPhase = iota
	PhaseJustSubscribed
	PhaseSteady
)

func (p StreamPhase) String() string {
	switch p {
	case PhaseJustSubscribed:
		return "just_subscribed"
	case PhaseSteady:
		return "steady"
	default:
		return "idle"
	}
}

// FeedUpdate is the derived message view sent to the client.
type FeedUpdate struct {
	Selection service.Selection     `json:"selection"`
	Sections  []service.DateSection `json:"sections"`
	Scroll    bool                  `json:"scroll"`
}

// FeedSynchronizer mirrors the messages, groups and presence collections for
// one session. Local collections are only ever replaced by snapshot handlers.
type FeedSynchronizer struct {
	messages  repository.MessageRepository
	groups    repository.GroupRepository
	presence  repository.PresenceRepository
	sink      EventSink
	freshness time.Duration
	clock     func() time.Time

	mu        sync.Mutex
	running   bool
	self      string
	loc       *time.Location
	unsubs    []repository.Unsubscribe
	msgs      []*entity.ChatMessage
	groupList []*entity.Group
	records   []*entity.PresenceRecord
	selection service.Selection
	msgPhase  StreamPhase
}

func NewFeedSynchronizer(
	messages repository.MessageRepository,
	groups repository.GroupRepository,
	presence repository.PresenceRepository,
	sink EventSink,
	freshness time.Duration,
) *FeedSynchronizer {
	return &FeedSynchronizer{
		messages:  messages,
		groups:    groups,
		presence:  presence,
		sink:      sink,
		freshness: freshness,
		clock:     time.Now,
		loc:       time.UTC,
		selection: service.Selection{Channel: entity.ChannelGlobal},
	}
}

// Start subscribes to all three streams on behalf of self, rendering dates in loc.
func (f *FeedSynchronizer) Start(ctx context.Context, self string, loc *time.Location) error {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return errors.InvalidState("feed already subscribed")
	}
	if loc == nil {
		loc = time.UTC
	}
	f.running = true
	f.self = self
	f.loc = loc
	f.msgPhase = PhaseJustSubscribed
	f.mu.Unlock()

	var unsubs []repository.Unsubscribe
	fail := func(err error) error {
		for _, u := range unsubs {
			u()
		}
		f.mu.Lock()
		f.running = false
		f.msgPhase = PhaseIdle
		f.mu.Unlock()
		return errors.Internal("Failed to subscribe to chat feed", err)
	}

	u, err := f.messages.Subscribe(ctx, f.onMessages)
	if err != nil {
		return fail(err)
	}
	unsubs = append(unsubs, u)

	u, err = f.groups.Subscribe(ctx, f.onGroups)
	if err != nil {
		return fail(err)
	}
	unsubs = append(unsubs, u)

	u, err = f.presence.Subscribe(ctx, f.onPresence)
	if err != nil {
		return fail(err)
	}
	unsubs = append(unsubs, u)

	f.mu.Lock()
	f.unsubs = unsubs
	f.mu.Unlock()
	return nil
}

// Stop detaches every listener and drops the cached collections.
func (f *FeedSynchronizer) Stop() {
	f.mu.Lock()
	unsubs := f.unsubs
	f.unsubs = nil
	f.running = false
	f.msgPhase = PhaseIdle
	f.msgs = nil
	f.groupList = nil
	f.records = nil
	f.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

// Select changes the active view and re-emits it.
func (f *FeedSynchronizer) Select(sel service.Selection) {
	f.mu.Lock()
	f.selection = sel
	update := f.viewLocked(false)
	running := f.running
	f.mu.Unlock()

	if running {
		f.sink.Emit(EventFeed, update)
	}
}

// View returns the current derived feed without side effects.
func (f *FeedSynchronizer) View() FeedUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked(false)
}

func (f *FeedSynchronizer) Phase() StreamPhase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgPhase
}

func (f *FeedSynchronizer) Groups() []*entity.Group {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.Group, len(f.groupList))
	copy(out, f.groupList)
	return out
}

// OnlineUsers recomputes the online view against the current time.
func (f *FeedSynchronizer) OnlineUsers() []*entity.PresenceRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return service.OnlineUsers(f.records, f.self, f.clock(), f.freshness)
}

// RefreshPresence re-emits the online users so records age out between snapshots.
func (f *FeedSynchronizer) RefreshPresence() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	online := service.OnlineUsers(f.records, f.self, f.clock(), f.freshness)
	f.mu.Unlock()

	f.sink.Emit(EventOnlineUsers, online)
}

func (f *FeedSynchronizer) viewLocked(scroll bool) FeedUpdate {
	return FeedUpdate{
		Selection: f.selection,
		Sections:  service.BuildView(f.msgs, f.selection, f.loc),
		Scroll:    scroll,
	}
}

func (f *FeedSynchronizer) onMessages(messages []*entity.ChatMessage) {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.msgs = messages
	scroll := f.msgPhase == PhaseSteady
	f.msgPhase = PhaseSteady
	update := f.viewLocked(scroll)
	f.mu.Unlock()

	logger.Debug("Feed snapshot: %d messages, scroll=%t", len(messages), scroll)
	f.sink.Emit(EventFeed, update)
}

func (f *FeedSynchronizer) onGroups(groups []*entity.Group) {
	sorted := make([]*entity.Group, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt != sorted[j].CreatedAt {
			return sorted[i].CreatedAt < sorted[j].CreatedAt
		}
		return sorted[i].ID < sorted[j].ID
	})

	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.groupList = sorted
	f.mu.Unlock()

	f.sink.Emit(EventGroups, sorted)
}

func (f *FeedSynchronizer) onPresence(records []*entity.PresenceRecord) {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.records = records
	online := service.OnlineUsers(records, f.self, f.clock(), f.freshness)
	f.mu.Unlock()

	f.sink.Emit(EventOnlineUsers, online)
}
