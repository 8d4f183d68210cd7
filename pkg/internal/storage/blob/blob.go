// Package blob 定义文件字节存储接口，提供 S3 与本地文件系统实现.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/yeisme/photoarchive/pkg/configs"
	s3c "github.com/yeisme/photoarchive/pkg/internal/storage/s3"
)

// ErrNotExist 对象不存在.
var ErrNotExist = errors.New("blob: object does not exist")

// ErrInvalidName 存储名非法（为空、绝对路径或包含 ..）.
var ErrInvalidName = errors.New("blob: invalid storage name")

// Store 按存储名读写文件字节.
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	// Get 不存在时返回包装了 ErrNotExist 的错误.
	Get(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
	// Remove 删除不存在的对象不视为错误.
	Remove(ctx context.Context, name string) error
}

// CleanName 校验并规范化存储名.
func CleanName(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}

	return cleaned, nil
}

// New 按配置选择实现，breaker 开启时包一层熔断器.
func New(cfg configs.BlobConfig, cb configs.CircuitBreakerConfig, s3Client *s3c.Client) (Store, error) {
	var store Store

	switch cfg.Type {
	case configs.BlobTypeS3:
		if s3Client == nil {
			return nil, errors.New("blob: s3 backend selected but s3 client is not initialised")
		}

		store = NewS3Store(s3Client.Client, s3Client.Bucket)
	case configs.BlobTypeFS, "":
		fsStore, err := NewOsFsStore(cfg.FSRoot)
		if err != nil {
			return nil, err
		}

		store = fsStore
	default:
		return nil, fmt.Errorf("unsupported blob type: %s", cfg.Type)
	}

	if cfg.Breaker {
		store = WithBreaker(store, cb)
	}

	return store, nil
}
