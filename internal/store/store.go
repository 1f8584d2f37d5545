// Package store persists showcase contexts so a walk can be resumed after the
// process restarts. Restoring a context replays nothing over the network.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexbotov/showcase/internal/config"
	"github.com/alexbotov/showcase/pkg/showcase"
)

var ErrNotFound = errors.New("stored context not found")

// Store saves and loads showcase contexts by key
type Store interface {
	Save(ctx context.Context, key string, wc *showcase.Context) error
	Load(ctx context.Context, key string) (*showcase.Context, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open creates the store described by cfg
func Open(cfg config.StoreConfig) (Store, error) {
	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case "", "file":
		dir, err := cfg.Directory()
		if err != nil {
			return nil, err
		}
		return NewFile(dir, key)
	case "memory":
		return NewMemory(key), nil
	case "postgres":
		db, err := New("postgres", cfg.DSN, key)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

// payloadCodec turns contexts into stored bytes, sealing them when a key is set.
type payloadCodec struct {
	key *[32]byte
}

func (c payloadCodec) encode(wc *showcase.Context) ([]byte, error) {
	data, err := json.Marshal(wc)
	if err != nil {
		return nil, fmt.Errorf("store: encode context: %w", err)
	}
	if c.key == nil {
		return data, nil
	}
	return Seal(c.key, data)
}

func (c payloadCodec) decode(data []byte) (*showcase.Context, error) {
	if c.key != nil {
		var err error
		if data, err = Unseal(c.key, data); err != nil {
			return nil, err
		}
	}
	wc := new(showcase.Context)
	if err := json.Unmarshal(data, wc); err != nil {
		return nil, fmt.Errorf("store: decode context: %w", err)
	}
	return wc, nil
}
