package repository

import (
	"context"
	"sync"

	"groupchat/internal/domain/repository"
)

// snapshotFeed fans full snapshots out to subscribers. Each subscriber has
// its own goroutine; when it falls behind, only the latest snapshot is kept.
type snapshotFeed[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]*subscriber[T]
}

type subscriber[T any] struct {
	fn     func([]T)
	signal chan struct{}
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	pending []T
	has     bool
}

func newSnapshotFeed[T any]() *snapshotFeed[T] {
	return &snapshotFeed[T]{subs: make(map[int]*subscriber[T])}
}

// subscribe registers fn and immediately queues initial as its first snapshot.
func (f *snapshotFeed[T]) subscribe(ctx context.Context, initial []T, fn func([]T)) repository.Unsubscribe {
	sub := &subscriber[T]{
		fn:     fn,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = sub
	f.mu.Unlock()

	sub.offer(initial)
	go sub.run(ctx)

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
		sub.stop()
	}
}

func (f *snapshotFeed[T]) publish(snapshot []T) {
	f.mu.Lock()
	subs := make([]*subscriber[T], 0, len(f.subs))
	for _, s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.Unlock()

	for _, s := range subs {
		s.offer(snapshot)
	}
}

func (f *snapshotFeed[T]) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (s *subscriber[T]) offer(snapshot []T) {
	s.mu.Lock()
	s.pending = snapshot
	s.has = true
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.stop()
			return
		case <-s.done:
			return
		case <-s.signal:
		}

		s.mu.Lock()
		snapshot, has := s.pending, s.has
		s.pending, s.has = nil, false
		s.mu.Unlock()

		if !has {
			continue
		}
		select {
		case <-s.done:
			return
		default:
		}
		s.fn(snapshot)
	}
}

func (s *subscriber[T]) stop() {
	s.once.Do(func() { close(s.done) })
}
