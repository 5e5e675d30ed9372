package inventory

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Locker serializes work on named keys. Lock acquires every key or none and
// returns a release func that must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (func(), error)
}

func recipeKey(id uint) string     { return fmt.Sprintf("recipe:%d", id) }
func ingredientKey(id uint) string { return fmt.Sprintf("ingredient:%d", id) }

// normalizeKeys sorts and dedupes keys so every caller acquires in the same order.
func normalizeKeys(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

// LocalLocker is an in-process keyed lock. Waiting honours ctx cancellation.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	held chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*lockSlot)}
}

func (l *LocalLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalizeKeys(keys)
	acquired := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := l.acquire(ctx, key); err != nil {
			for i := len(acquired) - 1; i >= 0; i-- {
				l.release(acquired[i], true)
			}
			return nil, err
		}
		acquired = append(acquired, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(acquired) - 1; i >= 0; i-- {
				l.release(acquired[i], true)
			}
		})
	}, nil
}

func (l *LocalLocker) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{held: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.held <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.release(key, false)
		return ctx.Err()
	}
}

func (l *LocalLocker) release(key string, held bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot := l.slots[key]
	if slot == nil {
		return
	}
	if held {
		<-slot.held
	}
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}
