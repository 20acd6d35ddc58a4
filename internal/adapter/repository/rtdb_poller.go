package repository

import (
	"context"
	"reflect"
	"strings"
	"time"

	"groupchat/internal/domain/repository"
	"groupchat/pkg/logger"
)

const defaultPollInterval = 2 * time.Second

// keyReplacer maps characters the Realtime Database forbids in keys.
var keyReplacer = strings.NewReplacer(".", "_", "#", "_", "$", "_", "[", "_", "]", "_", "/", "_")

func rtdbKey(s string) string {
	return keyReplacer.Replace(s)
}

// pollSnapshots emulates a value listener: it loads once synchronously, then
// reloads every interval and delivers only when the result changed.
func pollSnapshots[T any](ctx context.Context, name string, interval time.Duration, load func(context.Context) ([]T, error), deliver func([]T)) (repository.Unsubscribe, error) {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	last, err := load(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		deliver(last)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				next, err := load(ctx)
				if err != nil {
					if ctx.Err() == nil {
						logger.Warn("RTDB %s poll failed: %v", name, err)
					}
					continue
				}
				if reflect.DeepEqual(next, last) {
					continue
				}
				last = next
				if ctx.Err() != nil {
					return
				}
				deliver(next)
			}
		}
	}()

	return repository.Unsubscribe(cancel), nil
}
