package kv

import (
	"context"
	"errors"
)

// Storage is the local key-value space the stores persist into.
// Get reports ok=false for a missing key; that is not an error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

var ErrUnavailable = errors.New("storage unavailable")
