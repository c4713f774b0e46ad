// Package storage is the durable per-session key/value store that backs the
// cart, wishlist and auth stores. Values are opaque JSON blobs.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Keys persisted for every session.
const (
	KeyCartItems     = "cart_items"
	KeyWishlistItems = "wishlist_items"
	KeyAccessToken   = "access_token"
	KeyUser          = "user"
)

var ErrNotFound = errors.New("storage: key not found")

// Storage holds values under (scope, key). Scope is the session id.
type Storage interface {
	Get(ctx context.Context, scope, key string) ([]byte, error)
	Set(ctx context.Context, scope, key string, value []byte) error
	Delete(ctx context.Context, scope string, keys ...string) error
	Close() error
}

// Bucket binds a Storage to one scope.
type Bucket struct {
	s     Storage
	scope string
}

func Scope(s Storage, scope string) Bucket { return Bucket{s: s, scope: scope} }

func (b Bucket) Scope() string { return b.scope }

func (b Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	return b.s.Get(ctx, b.scope, key)
}

func (b Bucket) Set(ctx context.Context, key string, value []byte) error {
	return b.s.Set(ctx, b.scope, key, value)
}

func (b Bucket) Delete(ctx context.Context, keys ...string) error {
	return b.s.Delete(ctx, b.scope, keys...)
}

// Open picks a backend by kind: "sqlite" (dsn is a file path or :memory:),
// "redis" (dsn is a redis:// URL) or "memory".
func Open(kind, dsn string) (Storage, error) {
	switch kind {
	case "", "sqlite":
		return OpenSQLite(dsn)
	case "redis":
		return OpenRedis(dsn)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("storage: unknown kind %q", kind)
	}
}
