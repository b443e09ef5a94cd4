package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type getResult struct {
	value string
	ok    bool
}

// BreakerStorage fails fast with ErrUnavailable once the wrapped backend has
// failed repeatedly, and probes it again after the open timeout.
type BreakerStorage struct {
	next Storage
	cb   *gobreaker.CircuitBreaker[getResult]
}

type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

func NewBreakerStorage(next Storage, cfg BreakerConfig, logger *zap.Logger) *BreakerStorage {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("storage breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &BreakerStorage{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[getResult](settings),
	}
}

func (b *BreakerStorage) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := b.cb.Execute(func() (getResult, error) {
		value, ok, err := b.next.Get(ctx, key)
		return getResult{value: value, ok: ok}, err
	})
	if err != nil {
		return "", false, b.wrap(err)
	}
	return res.value, res.ok, nil
}

func (b *BreakerStorage) Set(ctx context.Context, key, value string) error {
	_, err := b.cb.Execute(func() (getResult, error) {
		return getResult{}, b.next.Set(ctx, key, value)
	})
	return b.wrap(err)
}

func (b *BreakerStorage) Remove(ctx context.Context, key string) error {
	_, err := b.cb.Execute(func() (getResult, error) {
		return getResult{}, b.next.Remove(ctx, key)
	})
	return b.wrap(err)
}

func (b *BreakerStorage) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerStorage) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
