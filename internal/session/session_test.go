package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/backend"
	"storefront/internal/domain"
	"storefront/internal/storage"
)

type countingBackend struct {
	mu    sync.Mutex
	calls int
}

func (b *countingBackend) Login(context.Context, string, string) (backend.Tokens, error) {
	return backend.Tokens{}, backend.ErrUnauthorized
}

func (b *countingBackend) Register(context.Context, backend.RegisterRequest) (backend.Tokens, error) {
	return backend.Tokens{}, backend.ErrUnauthorized
}

func (b *countingBackend) CurrentUser(context.Context, string) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return &domain.User{ID: 1, Username: "ann", Role: domain.RoleBuyer}, nil
}

func TestGetReturnsSameSession(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(storage.NewMemory(), &countingBackend{})

	a := r.Get(ctx, "s1")
	b := r.Get(ctx, "s1")
	c := r.Get(ctx, "s2")
	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, r.Len())
}

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(storage.NewMemory(), &countingBackend{})

	r.Get(ctx, "s1").Cart.AddItem(ctx, domain.Product{ID: "1", Price: 10})
	assert.Equal(t, 1, r.Get(ctx, "s1").Cart.ItemCount())
	assert.Equal(t, 0, r.Get(ctx, "s2").Cart.ItemCount())
}

func TestSweepEvictsIdleAndRehydrates(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	api := &countingBackend{}
	r := NewRegistry(mem, api)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	s := r.Get(ctx, "old")
	s.Cart.AddItem(ctx, domain.Product{ID: "7", Price: 3})
	s.Wishlist.AddItem(ctx, domain.Product{ID: "8"})
	require.NoError(t, storage.Scope(mem, "old").Set(ctx, storage.KeyAccessToken, []byte(`"tok"`)))

	now = now.Add(10 * time.Minute)
	r.Get(ctx, "fresh")

	assert.Equal(t, 1, r.Sweep(5*time.Minute))
	assert.Equal(t, 1, r.Len())

	again := r.Get(ctx, "old")
	assert.NotSame(t, s, again)
	assert.Equal(t, 1, again.Cart.ItemCount())
	assert.True(t, again.Wishlist.IsInWishlist("8"))
	assert.True(t, again.Auth.Snapshot().LoggedIn())
}

func TestAuthInitRunsOncePerSession(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, storage.Scope(mem, "s1").Set(ctx, storage.KeyAccessToken, []byte(`"tok"`)))
	api := &countingBackend{}
	r := NewRegistry(mem, api)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Get(ctx, "s1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, api.calls)
	assert.Equal(t, "ann", r.Get(ctx, "s1").Auth.Snapshot().User.Username)
}

func TestRunStopsWithContext(t *testing.T) {
	r := NewRegistry(storage.NewMemory(), &countingBackend{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
