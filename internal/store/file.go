package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/alexbotov/showcase/pkg/showcase"
)

// File is a Store keeping one file per key in a directory. Writes go through
// a temporary file and a rename, so a crash never leaves half a context.
type File struct {
	dir   string
	codec payloadCodec
}

// NewFile creates a file store in dir, creating the directory if needed.
// key may be nil.
func NewFile(dir string, key *[32]byte) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &File{dir: dir, codec: payloadCodec{key: key}}, nil
}

// path maps key to a single file name inside the store directory
func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".ctx")
}

func (f *File) Save(ctx context.Context, key string, wc *showcase.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := f.codec.encode(wc)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, ".save-*")
	if err != nil {
		return fmt.Errorf("failed to save context: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save context: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save context: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("failed to save context: %w", err)
	}
	return nil
}

func (f *File) Load(ctx context.Context, key string) (*showcase.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load context: %w", err)
	}
	return f.codec.decode(payload)
}

func (f *File) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete context: %w", err)
	}
	return nil
}

func (f *File) Close() error { return nil }

var _ Store = (*File)(nil)
