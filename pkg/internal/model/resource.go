package model

import (
	"time"

	"github.com/bytedance/sonic"
)

// ResourceStatus 资源状态.
type ResourceStatus int

const (
	ResourceDeleted ResourceStatus = 0 // 已删除或被替换，永不再提供
	ResourceLive    ResourceStatus = 1
)

// Resource 资源元数据，字节保存在 blob 存储的 StorageName 下.
type Resource struct {
	ID      uint `gorm:"primaryKey"     json:"id"`
	OwnerID uint `gorm:"index;not null" json:"owner_id"`
	// ContentID 内容标识，每个存储对象唯一
	ContentID    string `gorm:"size:128;uniqueIndex" json:"content_id"`
	StorageName  string `gorm:"size:512;index"       json:"storage_name"`
	ResourceType string `gorm:"size:64;index"        json:"resource_type"`
	// 关联的业务记录，例如 accounts/42
	RelatedTable string `gorm:"size:64;index:idx_related" json:"related_table,omitempty"`
	RelatedID    string `gorm:"size:64;index:idx_related" json:"related_id,omitempty"`
	Public       bool   `json:"public"`
	// ACL：组授权与显式账号列表（JSON 数组）
	ACLGroup      string         `gorm:"size:64"             json:"acl_group,omitempty"`
	ACLPrincipals string         `gorm:"type:text"           json:"-"`
	Status        ResourceStatus `gorm:"index;not null"      json:"status"`
	BytesRemoved  bool           `gorm:"index;default:false" json:"-"`
	Size          int64          `json:"size"`
	ContentType   string         `gorm:"size:255"            json:"content_type"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName 表名.
func (Resource) TableName() string { return "resources" }

// Live 是否可被提供.
func (r *Resource) Live() bool { return r.Status == ResourceLive }

// Principals 解析 ACL 账号列表，格式错误视为空列表.
func (r *Resource) Principals() []uint {
	if r.ACLPrincipals == "" {
		return nil
	}

	var ids []uint
	if err := sonic.UnmarshalString(r.ACLPrincipals, &ids); err != nil {
		return nil
	}

	return ids
}

// SetPrincipals 以 JSON 数组保存 ACL 账号列表.
func (r *Resource) SetPrincipals(ids []uint) error {
	if len(ids) == 0 {
		r.ACLPrincipals = ""
		return nil
	}

	s, err := sonic.MarshalString(ids)
	if err != nil {
		return err
	}

	r.ACLPrincipals = s

	return nil
}

// AllModels 返回需要迁移的模型.
func AllModels() []any {
	return []any{&Account{}, &Resource{}}
}
