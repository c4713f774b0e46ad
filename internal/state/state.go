// Package state holds a value that is changed only through reducers and
// mirrored to durable storage after every change.
//
// A Store serializes its reducers: each one sees the result of the previous
// one, and persistence happens inside the same critical section, so two
// overlapping requests can never lose each other's update.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	applog "storefront/internal/log"
	"storefront/internal/storage"
)

type Store[S any] struct {
	mu     sync.Mutex
	bucket storage.Bucket
	key    string
	value  S
}

// Load rehydrates the value persisted under key. Missing or malformed data
// yields the zero value. normalize, when non-nil, repairs whatever was
// decoded before it becomes visible.
func Load[S any](ctx context.Context, b storage.Bucket, key string, normalize func(S) S) *Store[S] {
	st := &Store[S]{bucket: b, key: key}
	raw, err := b.Get(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		applog.Warn(nil, "state.load.fail", err, map[string]any{"key": key, "sid": b.Scope()})
	default:
		var v S
		if err := json.Unmarshal(raw, &v); err != nil {
			applog.Warn(nil, "state.decode.fail", err, map[string]any{"key": key, "sid": b.Scope()})
		} else {
			st.value = v
		}
	}
	if normalize != nil {
		st.value = normalize(st.value)
	}
	return st
}

// Get returns the current value. Reducers never mutate a value in place, so
// the result stays valid after later dispatches.
func (s *Store[S]) Get() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Dispatch applies reduce and persists the result. Persistence errors are
// logged; the in-memory value is updated regardless.
func (s *Store[S]) Dispatch(ctx context.Context, reduce func(S) S) S {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = reduce(s.value)
	s.persist(ctx)
	return s.value
}

func (s *Store[S]) persist(ctx context.Context) {
	raw, err := json.Marshal(s.value)
	if err != nil {
		applog.Error(nil, "state.encode.fail", err, map[string]any{"key": s.key, "sid": s.bucket.Scope()})
		return
	}
	if err := s.bucket.Set(context.WithoutCancel(ctx), s.key, raw); err != nil {
		applog.Error(nil, "state.persist.fail", err, map[string]any{"key": s.key, "sid": s.bucket.Scope()})
	}
}
