package blob

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"

	"github.com/yeisme/photoarchive/pkg/configs"
)

// breakerStore 对后端调用包一层 gobreaker，ErrNotExist 与非法名称不计为失败.
type breakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker 包装 Store.
func WithBreaker(next Store, cfg configs.CircuitBreakerConfig) Store {
	settings := gobreaker.Settings{
		Name:        "blob-store",
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    cfg.Interval(),
		Timeout:     cfg.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.Trips(counts.Requests, counts.TotalFailures)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotExist) || errors.Is(err, ErrInvalidName)
		},
	}

	return &breakerStore{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breakerStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Put(ctx, name, data, contentType)
	})

	return err
}

func (b *breakerStore) Get(ctx context.Context, name string) ([]byte, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.Get(ctx, name)
	})
	if err != nil {
		return nil, err
	}

	data, _ := v.([]byte)

	return data, nil
}

func (b *breakerStore) Exists(ctx context.Context, name string) (bool, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.Exists(ctx, name)
	})
	if err != nil {
		return false, err
	}

	ok, _ := v.(bool)

	return ok, nil
}

func (b *breakerStore) Remove(ctx context.Context, name string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Remove(ctx, name)
	})

	return err
}
