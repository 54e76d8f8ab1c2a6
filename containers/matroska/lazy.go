package matroska

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"
)

// lazy memoizes the outcome of a fetch. Concurrent callers share one
// in-flight fetch. Outcomes caused by context cancellation are not stored.
type lazy[T any] struct {
	group singleflight.Group

	mu    sync.Mutex
	done  bool
	value T
	err   error
}

func (l *lazy[T]) peek() (T, error, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.value, l.err, l.done
}

// get returns the memoized outcome, fetching it if needed. A caller that
// joined a fetch canceled by another caller's context fetches again.
func (l *lazy[T]) get(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	for {
		if value, err, done := l.peek(); done {
			return value, err
		}

		fetched := false
		result, err, _ := l.group.Do("", func() (interface{}, error) {
			fetched = true

			if value, err, done := l.peek(); done {
				return value, err
			}

			value, err := fetch(ctx)
			if !isContextError(err) {
				l.mu.Lock()
				l.value, l.err, l.done = value, err, true
				l.mu.Unlock()
			}

			return value, err
		})

		if !fetched && isContextError(err) && ctx.Err() == nil {
			continue
		}

		value, _ := result.(T)

		return value, err
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
