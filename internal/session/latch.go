package session

import (
	"context"
	"sync"
)

// Latch is a single-write cell. The first TrySet wins; Wait and Done observe it.
type Latch[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
}

func NewLatch[T any]() *Latch[T] {
	return &Latch[T]{done: make(chan struct{})}
}

func (l *Latch[T]) TrySet(v T) bool {
	set := false
	l.once.Do(func() {
		l.value = v
		close(l.done)
		set = true
	})
	return set
}

func (l *Latch[T]) Done() <-chan struct{} {
	return l.done
}

func (l *Latch[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-l.done:
		return l.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (l *Latch[T]) Value() (T, bool) {
	select {
	case <-l.done:
		return l.value, true
	default:
		var zero T
		return zero, false
	}
}
