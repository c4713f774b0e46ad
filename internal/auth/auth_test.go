package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/backend"
	"storefront/internal/domain"
	"storefront/internal/storage"
)

type fakeBackend struct {
	mu       sync.Mutex
	login    func(u, p string) (backend.Tokens, error)
	register func(r backend.RegisterRequest) (backend.Tokens, error)
	current  func(token string) (*domain.User, error)
	calls    int
}

func (f *fakeBackend) Login(_ context.Context, u, p string) (backend.Tokens, error) {
	return f.login(u, p)
}

func (f *fakeBackend) Register(_ context.Context, r backend.RegisterRequest) (backend.Tokens, error) {
	return f.register(r)
}

func (f *fakeBackend) CurrentUser(_ context.Context, token string) (*domain.User, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.current(token)
}

var alice = &domain.User{ID: 1, Username: "alice", Role: domain.RoleBuyer}

func okBackend() *fakeBackend {
	return &fakeBackend{
		login: func(u, p string) (backend.Tokens, error) {
			if p != "secret" {
				return backend.Tokens{}, &backend.StatusError{Status: 400, Message: "Invalid credentials"}
			}
			return backend.Tokens{Access: "tok-" + u, User: &domain.User{ID: 1, Username: u}}, nil
		},
		register: func(r backend.RegisterRequest) (backend.Tokens, error) {
			return backend.Tokens{Access: "tok-new", User: &domain.User{ID: 2, Username: r.Username}}, nil
		},
		current: func(token string) (*domain.User, error) {
			if token == "tok-alice" {
				return alice, nil
			}
			return nil, &backend.StatusError{Status: 401}
		},
	}
}

func TestLoginSuccessPersists(t *testing.T) {
	ctx := context.Background()
	b := storage.Scope(storage.NewMemory(), "sid")
	s := New(b, okBackend())

	require.True(t, s.Login(ctx, "alice", "secret"))
	snap := s.Snapshot()
	assert.Equal(t, "tok-alice", snap.Token)
	assert.Equal(t, alice, snap.User)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)

	raw, err := b.Get(ctx, storage.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, `"tok-alice"`, string(raw))
	_, err = b.Get(ctx, storage.KeyUser)
	require.NoError(t, err)
}

func TestLoginInvalidCredentials(t *testing.T) {
	s := New(storage.Scope(storage.NewMemory(), "sid"), okBackend())
	assert.False(t, s.Login(context.Background(), "alice", "wrong"))
	snap := s.Snapshot()
	assert.Equal(t, "Invalid credentials", snap.Error)
	assert.Nil(t, snap.User)
	assert.Empty(t, snap.Token)
	assert.False(t, snap.LoggedIn())
}

func TestLoginNetworkFailureUsesGenericMessage(t *testing.T) {
	fb := okBackend()
	fb.login = func(string, string) (backend.Tokens, error) { return backend.Tokens{}, errors.New("dial tcp: refused") }
	s := New(storage.Scope(storage.NewMemory(), "sid"), fb)
	assert.False(t, s.Login(context.Background(), "alice", "secret"))
	assert.Equal(t, msgLoginFailed, s.Snapshot().Error)
}

func TestLoginTokenRejectedByProfileFetch(t *testing.T) {
	ctx := context.Background()
	b := storage.Scope(storage.NewMemory(), "sid")
	s := New(b, okBackend())
	// "bob" gets tok-bob which CurrentUser rejects
	assert.False(t, s.Login(ctx, "bob", "secret"))
	assert.Empty(t, s.Token())
	_, err := b.Get(ctx, storage.KeyAccessToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLoginKeepsLoginUserWhenProfileFetchFails(t *testing.T) {
	fb := okBackend()
	fb.current = func(string) (*domain.User, error) { return nil, errors.New("timeout") }
	s := New(storage.Scope(storage.NewMemory(), "sid"), fb)
	require.True(t, s.Login(context.Background(), "carol", "secret"))
	assert.Equal(t, "carol", s.Snapshot().User.Username)
}

func TestLogoutClearsEverything(t *testing.T) {
	ctx := context.Background()
	b := storage.Scope(storage.NewMemory(), "sid")
	s := New(b, okBackend())
	require.True(t, s.Login(ctx, "alice", "secret"))
	s.Logout(ctx)
	assert.False(t, s.Snapshot().LoggedIn())
	assert.Nil(t, s.Snapshot().User)
	_, err := b.Get(ctx, storage.KeyUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInitRehydratesValidToken(t *testing.T) {
	ctx := context.Background()
	b := storage.Scope(storage.NewMemory(), "sid")
	require.NoError(t, b.Set(ctx, storage.KeyAccessToken, []byte(`"tok-alice"`)))
	fb := okBackend()
	s := New(b, fb)
	s.Init(ctx)
	s.Init(ctx)
	assert.Equal(t, alice, s.Snapshot().User)
	assert.Equal(t, 1, fb.calls)
	assert.False(t, s.Snapshot().Loading)
}

func TestInitInvalidTokenClears(t *testing.T) {
	ctx := context.Background()
	b := storage.Scope(storage.NewMemory(), "sid")
	require.NoError(t, b.Set(ctx, storage.KeyAccessToken, []byte(`"expired"`)))
	require.NoError(t, b.Set(ctx, storage.KeyUser, []byte(`{"id":1}`)))
	s := New(b, okBackend())
	s.Init(ctx)
	assert.False(t, s.Snapshot().LoggedIn())
	_, err := b.Get(ctx, storage.KeyAccessToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInitBackendDownFailsSafe(t *testing.T) {
	ctx := context.Background()
	b := storage.Scope(storage.NewMemory(), "sid")
	require.NoError(t, b.Set(ctx, storage.KeyAccessToken, []byte(`"tok-alice"`)))
	fb := okBackend()
	fb.current = func(string) (*domain.User, error) { return nil, errors.New("connection refused") }
	s := New(b, fb)
	s.Init(ctx)
	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.LoggedIn())
	// persisted token survives for a later retry
	_, err := b.Get(ctx, storage.KeyAccessToken)
	assert.NoError(t, err)
}

func TestInitMalformedTokenIgnored(t *testing.T) {
	ctx := context.Background()
	b := storage.Scope(storage.NewMemory(), "sid")
	require.NoError(t, b.Set(ctx, storage.KeyAccessToken, []byte(`{{`)))
	fb := okBackend()
	s := New(b, fb)
	s.Init(ctx)
	assert.False(t, s.Snapshot().LoggedIn())
	assert.Equal(t, 0, fb.calls)
}

func TestLoadingVisibleDuringLogin(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	fb := okBackend()
	fb.login = func(u, p string) (backend.Tokens, error) {
		close(entered)
		<-release
		return backend.Tokens{}, errors.New("late")
	}
	s := New(storage.Scope(storage.NewMemory(), "sid"), fb)
	done := make(chan bool)
	go func() { done <- s.Login(context.Background(), "alice", "secret") }()

	<-entered
	assert.True(t, s.Snapshot().Loading)
	close(release)
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("login did not return")
	}
	assert.False(t, s.Snapshot().Loading)
}

func TestCheckToken(t *testing.T) {
	ctx := context.Background()
	s := New(storage.Scope(storage.NewMemory(), "sid"), okBackend())
	assert.False(t, s.CheckToken(ctx))
	require.True(t, s.Login(ctx, "alice", "secret"))
	assert.True(t, s.CheckToken(ctx))
}

func TestRegister(t *testing.T) {
	fb := okBackend()
	fb.current = func(string) (*domain.User, error) { return &domain.User{ID: 2, Username: "dan", Role: domain.RoleVendor}, nil }
	s := New(storage.Scope(storage.NewMemory(), "sid"), fb)
	require.True(t, s.Register(context.Background(), backend.RegisterRequest{Username: "dan"}))
	assert.Equal(t, domain.RoleVendor, s.Snapshot().User.Role)

	fb.register = func(backend.RegisterRequest) (backend.Tokens, error) {
		return backend.Tokens{}, &backend.StatusError{Status: 400}
	}
	s2 := New(storage.Scope(storage.NewMemory(), "sid2"), fb)
	assert.False(t, s2.Register(context.Background(), backend.RegisterRequest{}))
	assert.Equal(t, msgRegisterFailed, s2.Snapshot().Error)
}

func TestRejectOverwritesError(t *testing.T) {
	s := New(storage.Scope(storage.NewMemory(), "sid"), okBackend())
	assert.False(t, s.Login(context.Background(), "alice", "wrong"))
	assert.Equal(t, "Invalid credentials", s.Snapshot().Error)

	s.Reject("Invalid username or password")
	snap := s.Snapshot()
	assert.Equal(t, "Invalid username or password", snap.Error)
	assert.False(t, snap.LoggedIn())
	assert.False(t, snap.Loading)
}

// Against the real client: the backend's error text reaches Snapshot().Error.
func TestLoginAgainstHTTPBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"No active account found with the given credentials"}`)
	}))
	defer srv.Close()

	s := New(storage.Scope(storage.NewMemory(), "sid"), backend.New(backend.Options{BaseURL: srv.URL}))
	assert.False(t, s.Login(context.Background(), "alice", "nope"))
	assert.Equal(t, "No active account found with the given credentials", s.Snapshot().Error)
	assert.Nil(t, s.Snapshot().User)
}
