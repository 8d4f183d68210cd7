package kv

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/photoarchive/pkg/configs"
)

// GroupcacheKV 本地数据为准，本地未命中时通过 groupcache 向对等节点读取.
// 对等节点返回的值会被 groupcache 缓存，因此跨节点读取可能短暂滞后.
type GroupcacheKV struct {
	group *groupcache.Group
	peers *groupcache.HTTPPool
	data  map[string][]byte
	mu    sync.RWMutex
}

type groupcacheGetter struct {
	kv *GroupcacheKV
}

func (g groupcacheGetter) Get(_ context.Context, key string, dest groupcache.Sink) error {
	value, err := g.kv.local(key)
	if err != nil {
		return err
	}

	return dest.SetBytes(value)
}

var (
	groupsMu sync.Mutex
	groups   = map[string]*GroupcacheKV{}
)

// NewGroupcacheKV 创建 Groupcache KV 实例，同名 group 在进程内复用.
func NewGroupcacheKV(_ context.Context, config any) (KVStore, error) {
	gcConfig, ok := config.(*configs.GroupcacheKVConfig)
	if !ok || gcConfig == nil {
		return nil, fmt.Errorf("invalid Groupcache config")
	}

	groupsMu.Lock()
	defer groupsMu.Unlock()

	if existing, ok := groups[gcConfig.Name]; ok {
		return existing, nil
	}

	kv := &GroupcacheKV{data: make(map[string][]byte)}
	kv.group = groupcache.NewGroup(gcConfig.Name, gcConfig.CacheBytes, groupcacheGetter{kv: kv})

	if len(gcConfig.Peers) > 0 {
		kv.peers = groupcache.NewHTTPPoolOpts(gcConfig.Self, &groupcache.HTTPPoolOptions{})
		kv.peers.Set(gcConfig.Peers...)
	}

	groups[gcConfig.Name] = kv

	return kv, nil
}

func (g *GroupcacheKV) local(key string) ([]byte, error) {
	g.mu.RLock()
	raw, ok := g.data[key]
	g.mu.RUnlock()

	if !ok {
		return nil, notFound(key)
	}

	val, expired, err := decodeWithTTL(raw, time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		g.mu.Lock()
		delete(g.data, key)
		g.mu.Unlock()

		return nil, notFound(key)
	}

	return append([]byte(nil), val...), nil
}

// Get 先读本地，未命中时走 groupcache.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	if val, err := g.local(key); err == nil {
		return val, nil
	}

	if g.peers == nil {
		return nil, notFound(key)
	}

	var data []byte
	if err := g.group.Get(ctx, key, groupcache.AllocatingByteSliceSink(&data)); err != nil {
		return nil, notFound(key)
	}

	return data, nil
}

// Set 写入本地数据.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.data[key] = append([]byte(nil), encoded...)
	g.mu.Unlock()

	return nil
}

// Incr 在本地写锁内加一，计数只对本节点生效.
func (g *GroupcacheKV) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	encoded, n, err := incrWithTTL(g.data[key], ttl, time.Now())
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}

	g.data[key] = encoded

	return n, nil
}

// Delete 删除本地键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.data, key)
	g.mu.Unlock()

	return nil
}

// Exists 检查本地键是否存在.
func (g *GroupcacheKV) Exists(_ context.Context, key string) (bool, error) {
	_, err := g.local(key)
	return err == nil, nil
}

// Keys 返回本地匹配 glob 模式的键.
func (g *GroupcacheKV) Keys(_ context.Context, pattern string) ([]string, error) {
	g.mu.RLock()
	candidates := make([]string, 0, len(g.data))

	for key := range g.data {
		if pattern != "" {
			if ok, _ := path.Match(pattern, key); !ok {
				continue
			}
		}

		candidates = append(candidates, key)
	}
	g.mu.RUnlock()

	keys := candidates[:0]

	for _, key := range candidates {
		if _, err := g.local(key); err == nil {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Close groupcache 没有显式的关闭方法.
func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
