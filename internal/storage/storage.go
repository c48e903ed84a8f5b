// Package storage defines the Provider interface for media object backends.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open and Delete when the key does not exist.
var ErrNotFound = errors.New("storage object not found")

// Provider abstracts object storage operations.
type Provider interface {
	// Put writes data to storage under the given key, replacing any existing object.
	Put(ctx context.Context, key string, reader io.Reader) error
	// Open returns a reader for the given storage key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error
	// AccessPath returns a consumer-accessible reference for a storage key.
	AccessPath(key string) string
}

// Exists reports whether key is present in p.
func Exists(ctx context.Context, p Provider, key string) (bool, error) {
	rc, err := p.Open(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	_ = rc.Close()
	return true, nil
}
