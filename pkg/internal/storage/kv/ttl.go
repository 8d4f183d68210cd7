package kv

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
)

// ttlMagic 标记带过期时间包装的值，供不支持原生 TTL 的后端使用.
const ttlMagic = "PATTL1:"

type ttlValue struct {
	V []byte `json:"v"`
	E int64  `json:"e,omitempty"` // unix 秒，0 表示不过期
}

// encodeWithTTL ttl>0 时包装值，否则原样返回.
func encodeWithTTL(value []byte, ttl time.Duration) ([]byte, error) {
	if ttl <= 0 {
		return value, nil
	}

	b, err := sonic.Marshal(ttlValue{V: value, E: time.Now().Add(ttl).Unix()})
	if err != nil {
		return nil, fmt.Errorf("marshal ttl value: %w", err)
	}

	return append([]byte(ttlMagic), b...), nil
}

// decodeWithTTL 解包并判断是否过期，返回 (value, expired, error).
func decodeWithTTL(b []byte, now time.Time) ([]byte, bool, error) {
	if !bytes.HasPrefix(b, []byte(ttlMagic)) {
		return b, false, nil
	}

	var tv ttlValue
	if err := sonic.Unmarshal(b[len(ttlMagic):], &tv); err != nil {
		return nil, false, fmt.Errorf("unmarshal ttl value: %w", err)
	}

	if tv.E > 0 && now.Unix() >= tv.E {
		return nil, true, nil
	}

	return tv.V, false, nil
}

// incrWithTTL 基于已存储的原始值计算加一后的编码值.
// raw 为 nil、已过期时计数从 1 开始并按 ttl 设置过期，否则保留原有过期时间.
func incrWithTTL(raw []byte, ttl time.Duration, now time.Time) ([]byte, int64, error) {
	tv := ttlValue{}

	switch {
	case raw == nil:
	case bytes.HasPrefix(raw, []byte(ttlMagic)):
		if err := sonic.Unmarshal(raw[len(ttlMagic):], &tv); err != nil {
			return nil, 0, fmt.Errorf("unmarshal ttl value: %w", err)
		}

		if tv.E > 0 && now.Unix() >= tv.E {
			tv = ttlValue{}
		}
	default:
		tv.V = raw
	}

	var n int64

	if len(tv.V) > 0 {
		cur, err := strconv.ParseInt(string(tv.V), 10, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("value is not an integer: %w", err)
		}

		n = cur
	} else if ttl > 0 {
		tv.E = now.Add(ttl).Unix()
	}

	n++
	tv.V = []byte(strconv.FormatInt(n, 10))

	if tv.E == 0 {
		return tv.V, n, nil
	}

	b, err := sonic.Marshal(tv)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal ttl value: %w", err)
	}

	return append([]byte(ttlMagic), b...), n, nil
}
