// Package cache stores compiled pattern sets between processes and keeps
// track of every key it wrote so they can be removed without flushing
// unrelated data.
package cache

import (
	"context"
	"errors"
	"fmt"
)

// DefaultIndexKey is the set listing every key written through a Tracker.
const DefaultIndexKey = "censor_cache_keys"

var ErrCacheMiss = errors.New("cache miss")

// Store is a keyed byte store with string sets.
type Store interface {
	// Get returns ErrCacheMiss when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	AddMember(ctx context.Context, set, member string) error
	Members(ctx context.Context, set string) ([]string, error)
}

// Tracker registers every key it writes under an index set.
type Tracker struct {
	store Store
	index string
}

func NewTracker(store Store, index string) *Tracker {
	return &Tracker{store: store, index: index}
}

func (t *Tracker) Get(ctx context.Context, key string) ([]byte, error) {
	return t.store.Get(ctx, key)
}

// Put registers key in the index, then stores value under it. A key is
// never written without being tracked, so Clear always reaches it.
func (t *Tracker) Put(ctx context.Context, key string, value []byte) error {
	if err := t.store.AddMember(ctx, t.index, key); err != nil {
		return fmt.Errorf("track %s: %w", key, err)
	}
	if err := t.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Keys returns the keys registered so far.
func (t *Tracker) Keys(ctx context.Context) ([]string, error) {
	return t.store.Members(ctx, t.index)
}

// Clear deletes the registered keys and the index itself.
func (t *Tracker) Clear(ctx context.Context) error {
	keys, err := t.store.Members(ctx, t.index)
	if err != nil {
		return fmt.Errorf("list %s: %w", t.index, err)
	}
	return t.store.Delete(ctx, append(keys, t.index)...)
}
