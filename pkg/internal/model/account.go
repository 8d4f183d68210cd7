package model

import "time"

// AccountStatus 账号状态.
type AccountStatus int

const (
	AccountActive      AccountStatus = 1 // 正常
	AccountRestricted  AccountStatus = 2 // 受限但可用
	AccountRestricted2 AccountStatus = 3 // 受限但可用
	AccountDeactivated AccountStatus = 4 // 已注销，终态
	AccountPending     AccountStatus = 5 // 注册后待验证
)

// Usable 只有 1/2/3 状态的账号可以拥有或访问资源.
func (s AccountStatus) Usable() bool {
	return s == AccountActive || s == AccountRestricted || s == AccountRestricted2
}

// Account 账号模型.
type Account struct {
	ID           uint          `gorm:"primaryKey"                json:"id"`
	Username     string        `gorm:"size:64;uniqueIndex"       json:"username"`
	Email        string        `gorm:"size:255;uniqueIndex"      json:"email"`
	PasswordHash string        `gorm:"size:255"                  json:"-"`
	Status       AccountStatus `gorm:"index;not null;default:5"  json:"status"`
	// PermissionGroup 用于创建权限与 ACL 组授权
	PermissionGroup string `gorm:"size:64;index" json:"permission_group"`
	// Notes 保存验证码等短期数据（JSON），激活时清空
	Notes string `gorm:"type:text" json:"-"`
	// UniqueIdentifier 验证链接中使用的稳定标识（uuid v4）
	UniqueIdentifier string     `gorm:"size:64;uniqueIndex" json:"-"`
	Avatar           string     `gorm:"size:512"            json:"avatar"`
	Bio              string     `gorm:"type:text"           json:"bio"`
	RegisteredAt     time.Time  `gorm:"autoCreateTime"      json:"registered_at"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName 表名.
func (Account) TableName() string { return "accounts" }
