package types

import "github.com/yeisme/photoarchive/pkg/internal/model"

// VerifyCodeRequest 链接+验证码协议的提交.
type VerifyCodeRequest struct {
	Identifier string `json:"identifier" rule:"required,max=64"`
	Code       string `json:"code"       rule:"required,max=16"`
}

// VerifyResponse 验证成功.
type VerifyResponse struct {
	Message string         `json:"message"`
	Account *model.Account `json:"account"`
}
