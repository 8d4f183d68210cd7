// Package cache 提供基于 KV 存储的泛型缓存，值以 JSON（sonic）编码.
//
// 基本用法:
//
//	c := cache.NewCache(kvStore, "verify")
//
//	err := cache.Set(ctx, c, "attempts:42", record, 15*time.Minute)
//	record, err := cache.Get[AttemptRecord](ctx, c, "attempts:42")
//	if cache.IsMiss(err) {
//		// 未命中
//	}
//
// 键会被加上命名空间前缀，不同用途的缓存互不干扰.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/photoarchive/pkg/internal/storage/kv"
)

// Cache 基于KV存储的缓存实现.
type Cache struct {
	kvStore   kv.KVStore
	namespace string
}

// NewCache 创建一个新的缓存实例，namespace 为空时不加前缀.
func NewCache(kvStore kv.KVStore, namespace string) *Cache {
	return &Cache{kvStore: kvStore, namespace: namespace}
}

func (c *Cache) key(key string) string {
	if c.namespace == "" {
		return key
	}

	return c.namespace + ":" + key
}

// IsMiss 判断错误是否为缓存未命中.
func IsMiss(err error) bool {
	return errors.Is(err, kv.ErrNotFound)
}

// Get 泛型获取缓存值.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var value T

	data, err := c.kvStore.Get(ctx, c.key(key))
	if err != nil {
		return value, err
	}

	if err := sonic.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 泛型设置缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, c.key(key), data, ttl)
}

// Incr 原子地为计数键加一并返回新值，ttl 只在计数创建时生效.
// 计数以十进制文本存储，可以用 Get[int64] 读取.
func (c *Cache) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return c.kvStore.Incr(ctx, c.key(key), ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, c.key(key))
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, c.key(key))
}

// GetOrSet 获取缓存值，未命中时调用 getter 并回写；回写失败不影响返回值.
// 非未命中的读取错误直接返回.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	value, err := Get[T](ctx, c, key)
	if err == nil {
		return value, nil
	}

	if !IsMiss(err) {
		return value, err
	}

	value, err = getter()
	if err != nil {
		return value, err
	}

	_ = Set(ctx, c, key, value, ttl)

	return value, nil
}

// Clear 删除当前命名空间下的全部键.
func (c *Cache) Clear(ctx context.Context) error {
	keys, err := c.kvStore.Keys(ctx, c.key("*"))
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := c.kvStore.Delete(ctx, key); err != nil {
			return err
		}
	}

	return nil
}
