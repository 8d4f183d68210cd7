package types

import (
	"time"

	"github.com/yeisme/photoarchive/pkg/internal/model"
)

// RegisterRequest 注册请求.
type RegisterRequest struct {
	Username string `json:"username" rule:"required,username"`
	Email    string `json:"email"    rule:"required,email,max=255"`
	Password string `json:"password" rule:"required,min=8,max=72"`
}

// RegisterResponse 注册结果，账号处于待验证状态.
type RegisterResponse struct {
	Account  *model.Account `json:"account"`
	Enhanced bool           `json:"enhanced"` // 是否需要在登录后提交验证码
	Warnings []string       `json:"warnings,omitempty"`
}

// LoginRequest 登录请求.
type LoginRequest struct {
	Username string `json:"username" rule:"required,max=64"`
	Password string `json:"password" rule:"required,max=72"`
}

// LoginResponse 登录结果.
type LoginResponse struct {
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
	ExpiresAt time.Time      `json:"expires_at"`
	Account   *model.Account `json:"account"`
}

// FieldChange 资料字段变化.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// UpdateProfileResponse 资料更新结果.
type UpdateProfileResponse struct {
	Account  *model.Account `json:"account"`
	Changes  []FieldChange  `json:"changes"`
	Warnings []string       `json:"warnings,omitempty"`
}

// AvatarResponse 头像上传结果.
type AvatarResponse struct {
	Avatar            string `json:"avatar"` // 公开访问路径
	ResourceID        uint   `json:"resource_id"`
	StoragePath       string `json:"storage_path"`
	ContentIdentifier string `json:"content_identifier"`
}
