// Package storage 聚合元数据库、字节存储、KV 与消息队列客户端.
//
// Example:
//
//	mgr, err := storage.New(ctx, configs.GetConfig())
//	if err != nil {
//		// 处理错误
//	}
//	defer mgr.Close()
//
//	repo := repository.NewAccountRepository(mgr.DB.DB)
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/photoarchive/pkg/configs"
	"github.com/yeisme/photoarchive/pkg/internal/storage/blob"
	dbc "github.com/yeisme/photoarchive/pkg/internal/storage/db"
	"github.com/yeisme/photoarchive/pkg/internal/storage/kv"
	"github.com/yeisme/photoarchive/pkg/internal/storage/mq"
	s3c "github.com/yeisme/photoarchive/pkg/internal/storage/s3"
	nlog "github.com/yeisme/photoarchive/pkg/log"
	"github.com/yeisme/photoarchive/pkg/metrics"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB   *dbc.Client
	S3   *s3c.Client // 仅在 blob.type=s3 时初始化
	Blob blob.Store
	KV   *kv.Client
	MQ   *mq.Client
}

// New 按配置初始化全部存储，任一失败时关闭已创建的连接.
func New(ctx context.Context, cfg *configs.AppConfig) (mgr *Manager, err error) {
	m := &Manager{}

	defer func() {
		if err != nil {
			_ = m.Close()
		}
	}()

	if m.DB, err = dbc.New(ctx, cfg.DB, dbc.Options{Metrics: cfg.Metrics.Enabled, Debug: cfg.Server.Debug}); err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	if cfg.Blob.Type == configs.BlobTypeS3 {
		if m.S3, err = s3c.New(ctx, cfg.S3); err != nil {
			return nil, fmt.Errorf("init s3: %w", err)
		}
	}

	if m.Blob, err = blob.New(cfg.Blob, cfg.CircuitBreaker, m.S3); err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	if m.KV, err = kv.NewKVClient(ctx, cfg.KV); err != nil {
		return nil, fmt.Errorf("init kv: %w", err)
	}

	mqOpts := mq.Options{}
	if cfg.Metrics.Enabled {
		mqOpts.Registry = metrics.GetRegistry()
	}

	if m.MQ, err = mq.New(ctx, cfg.MQ, mqOpts); err != nil {
		return nil, fmt.Errorf("init mq: %w", err)
	}

	nlog.Logger().Info().
		Str("blob", string(cfg.Blob.Type)).
		Str("kv", cfg.KV.Type).
		Str("mq", string(cfg.MQ.Type)).
		Msg("storage manager initialized")

	return m, nil
}

// Close 关闭所有已初始化的连接.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
