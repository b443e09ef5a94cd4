package kv

import "context"

type prefixed struct {
	next   Storage
	prefix string
}

// Prefixed scopes every key of next under prefix, giving each client its own
// key space on a shared backend.
func Prefixed(next Storage, prefix string) Storage {
	return &prefixed{next: next, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.next.Get(ctx, p.key(key))
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.next.Set(ctx, p.key(key), value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.next.Remove(ctx, p.key(key))
}

func (p *prefixed) key(key string) string {
	return p.prefix + ":" + key
}
