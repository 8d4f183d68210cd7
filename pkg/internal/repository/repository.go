// Package repository 提供账号与资源元数据的类型化访问，默认实现基于 GORM.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/photoarchive/pkg/internal/model"
)

// ErrNotFound 记录不存在.
var ErrNotFound = errors.New("repository: record not found")

// ErrDuplicate 唯一约束冲突.
var ErrDuplicate = errors.New("repository: duplicate key")

// ProfileUpdate 资料更新，nil 字段保持不变.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Bio      *string
}

// AccountRepository 账号存储.
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id uint) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	GetByIdentifier(ctx context.Context, identifier string) (*model.Account, error)
	// UsernameTaken / EmailTaken 检查是否被其他账号占用（含已注销账号），excludeID 为 0 时不排除.
	UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error)
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	// SetPendingNotes 仅当账号仍为待验证状态时写入 notes，返回是否写入.
	SetPendingNotes(ctx context.Context, id uint, notes string) (bool, error)
	// Activate 原子地 5 -> 1：设置默认组并清空 notes，返回是否发生了状态变化.
	Activate(ctx context.Context, id uint, group string) (bool, error)
	// Deactivate 设置为 4，返回原状态.
	Deactivate(ctx context.Context, id uint) (model.AccountStatus, error)
	UpdateProfile(ctx context.Context, id uint, upd ProfileUpdate) error
	SetAvatar(ctx context.Context, id uint, path string) error
	TouchLogin(ctx context.Context, id uint, at time.Time) error
}

// ResourceRepository 资源元数据存储.
type ResourceRepository interface {
	Create(ctx context.Context, res *model.Resource) error
	GetByID(ctx context.Context, id uint) (*model.Resource, error)
	ContentIDExists(ctx context.Context, contentID string) (bool, error)
	// FindLiveByRelation 同一类型、同一关联记录下的存活资源.
	FindLiveByRelation(ctx context.Context, resourceType, relatedTable, relatedID string) ([]model.Resource, error)
	// GetLiveByStorageName 返回引用该存储名的存活资源.
	GetLiveByStorageName(ctx context.Context, storageName string) (*model.Resource, error)
	// SoftDelete 1 -> 0，返回是否发生了状态变化.
	SoftDelete(ctx context.Context, id uint) (bool, error)
	MarkBytesRemoved(ctx context.Context, id uint) error
	// ListPendingByteRemoval 已删除但字节尚未清理的资源.
	ListPendingByteRemoval(ctx context.Context, limit int) ([]model.Resource, error)
}
