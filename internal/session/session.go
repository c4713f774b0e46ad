// Package session maps visitor session ids to their stores.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cart"
	applog "storefront/internal/log"
	"storefront/internal/storage"
	"storefront/internal/wishlist"
)

// Session is everything one browser owns.
type Session struct {
	ID       string
	Cart     *cart.Store
	Wishlist *wishlist.Store
	Auth     *auth.Store

	lastUsed atomic.Int64
}

func (s *Session) touch(t time.Time) { s.lastUsed.Store(t.UnixNano()) }

func (s *Session) idleSince() time.Time { return time.Unix(0, s.lastUsed.Load()) }

// Registry creates sessions on first use and forgets idle ones. A forgotten
// session is rehydrated from storage the next time its id shows up.
type Registry struct {
	store storage.Storage
	api   auth.Backend
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(s storage.Storage, api auth.Backend) *Registry {
	return &Registry{
		store:    s,
		api:      api,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for sid, loading it from storage when needed. The
// auth store is initialised before Get returns.
func (r *Registry) Get(ctx context.Context, sid string) *Session {
	r.mu.Lock()
	s, ok := r.sessions[sid]
	r.mu.Unlock()

	if !ok {
		fresh := r.load(ctx, sid)
		r.mu.Lock()
		if s, ok = r.sessions[sid]; !ok {
			s = fresh
			r.sessions[sid] = s
		}
		r.mu.Unlock()
	}
	s.touch(r.now())
	s.Auth.Init(ctx)
	return s
}

func (r *Registry) load(ctx context.Context, sid string) *Session {
	b := storage.Scope(r.store, sid)
	return &Session{
		ID:       sid,
		Cart:     cart.New(ctx, b),
		Wishlist: wishlist.New(ctx, b),
		Auth:     auth.New(b, r.api),
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions unused for longer than maxIdle and returns how many
// went.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, maxIdle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(maxIdle); n > 0 {
				applog.Info(nil, "session.sweep", map[string]any{"evicted": n, "live": r.Len()})
			}
		}
	}
}
