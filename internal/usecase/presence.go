package usecase

import (
	"context"
	"slices"
	"sync"
	"time"

	"groupchat/internal/domain/entity"
	"groupchat/internal/domain/repository"
	"groupchat/internal/domain/service"
	"groupchat/pkg/errors"
	"groupchat/pkg/logger"
)

const cleanupTimeout = 5 * time.Second

// PresenceManager keeps one user's presence record fresh while a session is active.
type PresenceManager struct {
	repo     repository.PresenceRepository
	interval time.Duration
	clock    func() time.Time

	mu     sync.Mutex
	user   string
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPresenceManager(repo repository.PresenceRepository, interval time.Duration) *PresenceManager {
	return &PresenceManager{
		repo:     repo,
		interval: interval,
		clock:    time.Now,
	}
}

// Start writes the record immediately and then on every heartbeat. onTick
// runs after each heartbeat write. Starting twice is rejected.
func (m *PresenceManager) Start(ctx context.Context, record entity.PresenceRecord, onTick func()) error {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return errors.InvalidState("presence heartbeat already running")
	}
	hbCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.user = record.User
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	record.LastActive = m.clock().UnixMilli()
	if err := m.repo.Upsert(ctx, &record); err != nil {
		cancel()
		close(done)
		m.mu.Lock()
		m.cancel = nil
		m.done = nil
		m.mu.Unlock()
		return errors.Internal("Failed to publish presence", err)
	}

	go m.heartbeat(hbCtx, record, onTick, done)
	return nil
}

func (m *PresenceManager) heartbeat(ctx context.Context, record entity.PresenceRecord, onTick func(), done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			record.LastActive = m.clock().UnixMilli()
			if err := m.repo.Upsert(ctx, &record); err != nil && ctx.Err() == nil {
				logger.Warn("Presence heartbeat for %s failed: %v", record.User, err)
			}
			if onTick != nil {
				onTick()
			}
		}
	}
}

func (m *PresenceManager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Stop ends the heartbeat and removes the record. Stopping an idle manager is a no-op.
func (m *PresenceManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	cancel, done, user := m.cancel, m.done, m.user
	m.cancel = nil
	m.done = nil
	m.user = ""
	m.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	if err := m.repo.Remove(ctx, user); err != nil {
		return errors.Internal("Failed to remove presence", err)
	}
	return nil
}

// TypingTracker publishes this session's typing indicator and watches the
// indicators of the active scope.
type TypingTracker struct {
	repo  repository.TypingRepository
	sink  EventSink
	idle  time.Duration
	clock func() time.Time

	mu         sync.Mutex
	ctx        context.Context
	user       string
	current    string // scope key of the published indicator
	timer      *time.Timer
	watchScope string
	unsub      repository.Unsubscribe
	stopSweep  context.CancelFunc
	latest     []*entity.TypingIndicator
	shown      []string
	generation int
}

func NewTypingTracker(repo repository.TypingRepository, sink EventSink, idle time.Duration) *TypingTracker {
	return &TypingTracker{
		repo:  repo,
		sink:  sink,
		idle:  idle,
		clock: time.Now,
	}
}

// Keystroke upserts the indicator for (scope, user) and restarts the idle timer.
func (t *TypingTracker) Keystroke(ctx context.Context, user string, scope entity.Scope) error {
	key := scope.Key()

	t.mu.Lock()
	previous := t.current
	prevUser := t.user
	t.ctx = ctx
	t.user = user
	t.current = key
	t.generation++
	gen := t.generation
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.idle, func() { t.expire(gen) })
	t.mu.Unlock()

	if previous != "" && previous != key {
		if err := t.repo.Clear(ctx, previous, prevUser); err != nil {
			logger.Warn("Clearing typing indicator in %s failed: %v", previous, err)
		}
	}

	indicator := &entity.TypingIndicator{
		User:      user,
		Timestamp: t.clock().UnixMilli(),
		Scope:     key,
	}
	if err := t.repo.Set(ctx, indicator); err != nil {
		return errors.Internal("Failed to publish typing indicator", err)
	}
	return nil
}

func (t *TypingTracker) expire(gen int) {
	t.mu.Lock()
	if gen != t.generation || t.current == "" {
		t.mu.Unlock()
		return
	}
	ctx, scope, user := t.ctx, t.current, t.user
	t.current = ""
	t.timer = nil
	t.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}
	if err := t.repo.Clear(ctx, scope, user); err != nil {
		logger.Warn("Expiring typing indicator in %s failed: %v", scope, err)
	}
}

// Clear removes the published indicator, if any.
func (t *TypingTracker) Clear(ctx context.Context) error {
	t.mu.Lock()
	scope, user := t.current, t.user
	t.current = ""
	t.generation++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	if scope == "" {
		return nil
	}
	return t.repo.Clear(ctx, scope, user)
}

// Watch follows the indicators of scope, replacing any previous subscription.
// The list is re-evaluated on every snapshot and on a sweep timer, so an
// indicator nobody clears still drops out once it goes idle.
func (t *TypingTracker) Watch(ctx context.Context, scope entity.Scope, self string) error {
	key := scope.Key()

	t.mu.Lock()
	old, stopSweep := t.unsub, t.stopSweep
	t.unsub = nil
	t.stopSweep = nil
	t.watchScope = key
	t.latest = nil
	t.shown = nil
	t.mu.Unlock()

	if stopSweep != nil {
		stopSweep()
	}
	if old != nil {
		old()
	}

	unsub, err := t.repo.Subscribe(ctx, key, func(indicators []*entity.TypingIndicator) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.watchScope != key {
			return
		}
		t.latest = indicators
		t.publishLocked(key, self, true)
	})
	if err != nil {
		return errors.Internal("Failed to watch typing indicators", err)
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.unsub = unsub
	t.stopSweep = cancel
	t.mu.Unlock()

	go t.sweep(sweepCtx, key, self)
	return nil
}

func (t *TypingTracker) sweep(ctx context.Context, key, self string) {
	interval := t.idle / 2
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.watchScope == key {
				t.publishLocked(key, self, false)
			}
			t.mu.Unlock()
		}
	}
}

// publishLocked emits the active typers of the latest snapshot. Unless
// force is set, nothing is emitted when the list did not change.
func (t *TypingTracker) publishLocked(key, self string, force bool) {
	users := service.ActiveTypers(t.latest, self, t.clock(), t.idle)
	if !force && slices.Equal(users, t.shown) {
		return
	}
	t.shown = users
	t.sink.Emit(EventTypingUsers, TypingUpdate{Scope: key, Users: users})
}

// Stop clears the indicator and ends the watch.
func (t *TypingTracker) Stop(ctx context.Context) {
	if err := t.Clear(ctx); err != nil {
		logger.Warn("Clearing typing indicator on stop failed: %v", err)
	}

	t.mu.Lock()
	unsub, stopSweep := t.unsub, t.stopSweep
	t.unsub = nil
	t.stopSweep = nil
	t.watchScope = ""
	t.latest = nil
	t.shown = nil
	t.mu.Unlock()

	if stopSweep != nil {
		stopSweep()
	}
	if unsub != nil {
		unsub()
	}
}

type TypingUpdate struct {
	Scope string   `json:"scope"`
	Users []string `json:"users"`
}
