package kv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/photoarchive/pkg/configs"
)

// NATSKV 基于 NATS JetStream KV 的实现，TTL 通过值包装惰性判断.
type NATSKV struct {
	kv   nats.KeyValue
	conn *nats.Conn
}

// NewNATSKV 创建 NATS KV 实例，bucket 不存在时自动创建.
func NewNATSKV(_ context.Context, config any) (KVStore, error) {
	natsConfig, ok := config.(*configs.NATSKVConfig)
	if !ok || natsConfig == nil {
		return nil, fmt.Errorf("invalid NATS config")
	}

	opts := []nats.Option{nats.Name("photoarchive-kv")}
	if natsConfig.User != "" {
		opts = append(opts, nats.UserInfo(natsConfig.User, natsConfig.Password))
	}

	nc, err := nats.Connect(natsConfig.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	bucket, err := js.KeyValue(natsConfig.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		bucket, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: natsConfig.Bucket})
	}

	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create/get KV bucket: %w", err)
	}

	return &NATSKV{kv: bucket, conn: nc}, nil
}

func (n *NATSKV) load(key string) ([]byte, error) {
	entry, err := n.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, notFound(key)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	val, expired, err := decodeWithTTL(entry.Value(), time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		_ = n.kv.Delete(key)
		return nil, notFound(key)
	}

	return val, nil
}

// Get 获取键的值.
func (n *NATSKV) Get(_ context.Context, key string) ([]byte, error) {
	return n.load(key)
}

// Set 设置键的值.
func (n *NATSKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(key, encoded); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return nil
}

// maxIncrRetries 乐观并发冲突时的最大重试次数.
const maxIncrRetries = 16

// Incr 基于 revision 的 CAS 循环实现原子加一.
func (n *NATSKV) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	for range maxIncrRetries {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		var (
			raw      []byte
			revision uint64
		)

		entry, err := n.kv.Get(key)

		switch {
		case errors.Is(err, nats.ErrKeyNotFound):
		case err != nil:
			return 0, fmt.Errorf("failed to get key: %w", err)
		default:
			raw, revision = entry.Value(), entry.Revision()
		}

		encoded, count, err := incrWithTTL(raw, ttl, time.Now())
		if err != nil {
			return 0, fmt.Errorf("incr %s: %w", key, err)
		}

		if revision == 0 {
			_, err = n.kv.Create(key, encoded)
		} else {
			_, err = n.kv.Update(key, encoded, revision)
		}

		if err == nil {
			return count, nil
		}

		if !errors.Is(err, nats.ErrKeyExists) && !isWrongSequence(err) {
			return 0, fmt.Errorf("failed to incr key: %w", err)
		}
	}

	return 0, fmt.Errorf("incr %s: too much contention", key)
}

// isWrongSequence 判断 Update 是否因 revision 过期而失败.
func isWrongSequence(err error) bool {
	var apiErr *nats.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == nats.JSErrCodeStreamWrongLastSequence
	}

	return false
}

// Delete 删除键.
func (n *NATSKV) Delete(_ context.Context, key string) error {
	if err := n.kv.Delete(key); err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Exists 检查键是否存在.
func (n *NATSKV) Exists(_ context.Context, key string) (bool, error) {
	_, err := n.load(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	return err == nil, err
}

// Keys 返回匹配 glob 模式的未过期键.
func (n *NATSKV) Keys(_ context.Context, pattern string) ([]string, error) {
	keys, err := n.kv.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get keys: %w", err)
	}

	result := make([]string, 0, len(keys))

	for _, key := range keys {
		if pattern != "" {
			if ok, _ := path.Match(pattern, key); !ok {
				continue
			}
		}

		if _, err := n.load(key); err != nil {
			continue
		}

		result = append(result, key)
	}

	return result, nil
}

// Close 关闭 NATS 连接.
func (n *NATSKV) Close() error {
	n.conn.Close()
	return nil
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
