package storage

import (
	"context"
	"sync"
)

// Memory keeps everything in process. State is lost on restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: map[string]map[string][]byte{}}
}

func (m *Memory) Get(_ context.Context, scope, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[scope][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(_ context.Context, scope, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv, ok := m.data[scope]
	if !ok {
		kv = map[string][]byte{}
		m.data[scope] = kv
	}
	kv[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, scope string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv := m.data[scope]
	for _, k := range keys {
		delete(kv, k)
	}
	if len(kv) == 0 {
		delete(m.data, scope)
	}
	return nil
}

func (m *Memory) Close() error { return nil }
