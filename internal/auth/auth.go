// Package auth keeps a visitor's login session: the backend's bearer token and
// the profile it belongs to. Credentials are checked by the backend only.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/storage"
)

const (
	msgLoginFailed    = "Login failed"
	msgRegisterFailed = "Registration failed"
)

// Backend is the part of the backend client the session needs.
type Backend interface {
	Login(ctx context.Context, username, password string) (backend.Tokens, error)
	Register(ctx context.Context, r backend.RegisterRequest) (backend.Tokens, error)
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
}

// Snapshot is a consistent read of the session.
type Snapshot struct {
	User    *domain.User `json:"user"`
	Token   string       `json:"-"`
	Loading bool         `json:"loading"`
	Error   string       `json:"error,omitempty"`
}

func (s Snapshot) LoggedIn() bool { return s.Token != "" }

type Store struct {
	// ops serializes Init, Login, Register, Logout and CheckToken so that
	// overlapping calls resolve in call order.
	ops sync.Mutex

	mu      sync.RWMutex
	user    *domain.User
	token   string
	loading bool
	err     string

	bucket storage.Bucket
	api    Backend
	once   sync.Once
}

func New(b storage.Bucket, api Backend) *Store {
	return &Store{bucket: b, api: api}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{User: s.user, Token: s.token, Loading: s.loading, Error: s.err}
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) set(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
}

// Init rehydrates a persisted token and validates it against the backend.
// Only the first call does any work.
func (s *Store) Init(ctx context.Context) {
	s.once.Do(func() {
		s.ops.Lock()
		defer s.ops.Unlock()
		s.init(ctx)
	})
}

func (s *Store) init(ctx context.Context) {
	token := s.loadToken(ctx)
	if token == "" {
		return
	}
	s.set(func() { s.loading = true })
	defer s.set(func() { s.loading = false })

	u, err := s.api.CurrentUser(ctx, token)
	switch {
	case err == nil:
		s.set(func() { s.token, s.user = token, u })
		s.persistUser(ctx, u)
	case errors.Is(err, backend.ErrUnauthorized):
		applog.Security(nil, "auth.session.invalid", map[string]any{"sid": s.bucket.Scope()})
		s.clear(ctx)
	default:
		// keep what is persisted so the next start tries again
		applog.Warn(nil, "auth.session.check.fail", err, map[string]any{"sid": s.bucket.Scope()})
	}
}

// Login exchanges credentials for a token. Failures never escape: they land
// in Snapshot().Error and the result is false.
func (s *Store) Login(ctx context.Context, username, password string) bool {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.set(func() { s.loading, s.err = true, "" })
	defer s.set(func() { s.loading = false })

	toks, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.fail(msgLoginFailed, err)
		return false
	}
	return s.establish(ctx, toks, msgLoginFailed)
}

func (s *Store) Register(ctx context.Context, r backend.RegisterRequest) bool {
	s.ops.Lock()
	defer s.ops.Unlock()

	s.set(func() { s.loading, s.err = true, "" })
	defer s.set(func() { s.loading = false })

	toks, err := s.api.Register(ctx, r)
	if err != nil {
		s.fail(msgRegisterFailed, err)
		return false
	}
	return s.establish(ctx, toks, msgRegisterFailed)
}

// establish stores a fresh token, then refreshes the profile behind it.
func (s *Store) establish(ctx context.Context, toks backend.Tokens, fallback string) bool {
	if toks.Access == "" {
		s.set(func() { s.err = fallback })
		return false
	}
	s.set(func() { s.token, s.user = toks.Access, toks.User })
	s.persistToken(ctx, toks.Access)
	if toks.User != nil {
		s.persistUser(ctx, toks.User)
	}

	u, err := s.api.CurrentUser(ctx, toks.Access)
	switch {
	case err == nil:
		s.set(func() { s.user = u })
		s.persistUser(ctx, u)
	case errors.Is(err, backend.ErrUnauthorized):
		s.clear(ctx)
		s.set(func() { s.err = fallback })
		return false
	default:
		applog.Warn(nil, "auth.profile.fetch.fail", err, map[string]any{"sid": s.bucket.Scope()})
	}
	if u := s.Snapshot().User; u != nil && !u.Role.Valid() {
		applog.Security(nil, "auth.role.unknown", map[string]any{"sid": s.bucket.Scope(), "role": string(u.Role)})
	}
	return true
}

func (s *Store) fail(fallback string, err error) {
	msg := backend.Message(err, fallback)
	s.set(func() { s.err = msg })
	applog.Security(nil, "auth.login.fail", map[string]any{"sid": s.bucket.Scope(), "reason": msg})
}

// Reject records a login or register attempt refused before it reached the
// backend, so the session's error always reflects the latest attempt.
func (s *Store) Reject(msg string) {
	s.ops.Lock()
	defer s.ops.Unlock()
	s.set(func() { s.err = msg })
}

// Logout drops the session and everything persisted for it.
func (s *Store) Logout(ctx context.Context) {
	s.ops.Lock()
	defer s.ops.Unlock()
	s.clear(ctx)
}

// CheckToken re-validates the current token. Any failure logs out.
func (s *Store) CheckToken(ctx context.Context) bool {
	s.ops.Lock()
	defer s.ops.Unlock()

	token := s.Token()
	if token == "" {
		return false
	}
	u, err := s.api.CurrentUser(ctx, token)
	if err != nil {
		applog.Warn(nil, "auth.token.check.fail", err, map[string]any{"sid": s.bucket.Scope()})
		s.clear(ctx)
		return false
	}
	s.set(func() { s.user = u })
	s.persistUser(ctx, u)
	return true
}

func (s *Store) clear(ctx context.Context) {
	s.set(func() { s.token, s.user = "", nil })
	if err := s.bucket.Delete(context.WithoutCancel(ctx), storage.KeyAccessToken, storage.KeyUser); err != nil {
		applog.Error(nil, "auth.storage.clear.fail", err, map[string]any{"sid": s.bucket.Scope()})
	}
}

func (s *Store) loadToken(ctx context.Context) string {
	raw, err := s.bucket.Get(ctx, storage.KeyAccessToken)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			applog.Warn(nil, "auth.storage.load.fail", err, map[string]any{"sid": s.bucket.Scope()})
		}
		return ""
	}
	var token string
	if json.Unmarshal(raw, &token) != nil {
		return ""
	}
	return token
}

func (s *Store) persistToken(ctx context.Context, token string) {
	raw, _ := json.Marshal(token)
	if err := s.bucket.Set(context.WithoutCancel(ctx), storage.KeyAccessToken, raw); err != nil {
		applog.Error(nil, "auth.storage.save.fail", err, map[string]any{"sid": s.bucket.Scope(), "key": storage.KeyAccessToken})
	}
}

func (s *Store) persistUser(ctx context.Context, u *domain.User) {
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := s.bucket.Set(context.WithoutCancel(ctx), storage.KeyUser, raw); err != nil {
		applog.Error(nil, "auth.storage.save.fail", err, map[string]any{"sid": s.bucket.Scope(), "key": storage.KeyUser})
	}
}
