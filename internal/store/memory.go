package store

import (
	"context"
	"sync"

	"github.com/alexbotov/showcase/pkg/showcase"
)

// Memory is an in-process Store. It keeps encoded copies, so later changes
// to a saved context do not leak into the store.
type Memory struct {
	codec payloadCodec
	mu    sync.RWMutex
	data  map[string][]byte
}

// NewMemory creates an empty in-memory store. key may be nil.
func NewMemory(key *[32]byte) *Memory {
	return &Memory{
		codec: payloadCodec{key: key},
		data:  make(map[string][]byte),
	}
}

func (m *Memory) Save(ctx context.Context, key string, wc *showcase.Context) error {
	payload, err := m.codec.encode(wc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = payload
	m.mu.Unlock()
	return nil
}

func (m *Memory) Load(ctx context.Context, key string) (*showcase.Context, error) {
	m.mu.RLock()
	payload, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.codec.decode(payload)
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
