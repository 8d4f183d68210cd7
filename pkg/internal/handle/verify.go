package handle

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photoarchive/pkg/internal/service"
	"github.com/yeisme/photoarchive/pkg/internal/types"
)

// snapshotBodyLimit 安全事件快照最多读取的请求体字节数.
const snapshotBodyLimit = 4096

// VerifyLink 仅链接协议的激活入口，不需要登录.
//
//	@Summary		链接验证
//	@Description	仅链接协议下激活账号；启用验证码的部署收到此请求会拒绝并通知管理员
//	@Tags			验证
//	@Produce		json
//	@Param			identifier	path		string	true	"验证标识"
//	@Success		200			{object}	types.VerifyResponse
//	@Failure		403			{object}	types.ErrorResponse	"安全事件"
//	@Failure		404			{object}	types.ErrorResponse
//	@Failure		410			{object}	types.ErrorResponse	"链接已使用"
//	@Router			/api/v1/verify/{identifier} [get]
func (h *Handlers) VerifyLink(c *gin.Context) {
	account, err := h.Verification.VerifyLink(c.Request.Context(), c.Param("identifier"), snapshot(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.VerifyResponse{Message: "account activated", Account: account})
}

// VerifyCode 链接+验证码协议，提交邮件中的标识与验证码.
//
//	@Summary		验证码验证
//	@Description	任何不匹配（标识、验证码、过期、次数超限）都返回同一个 400
//	@Tags			验证
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		types.VerifyCodeRequest	true	"标识与验证码"
//	@Success		200		{object}	types.VerifyResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		410		{object}	types.ErrorResponse
//	@Router			/api/v1/verify [post]
func (h *Handlers) VerifyCode(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req types.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	account, err := h.Verification.VerifyCode(c.Request.Context(), p.ID, req.Identifier, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.VerifyResponse{Message: "account activated", Account: account})
}

// ResendVerification 重新发送验证信息.
//
//	@Summary	重发验证信息
//	@Tags		验证
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	types.MessageResponse
//	@Failure	410	{object}	types.ErrorResponse	"账号已验证"
//	@Router		/api/v1/verify/resend [post]
func (h *Handlers) ResendVerification(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	warnings, err := h.Verification.Resend(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "verification sent", Warnings: warnings})
}

// snapshot 记录请求现场，供安全事件告警使用.
func snapshot(c *gin.Context) service.RequestSnapshot {
	snap := service.RequestSnapshot{
		RemoteIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Headers:   c.Request.Header.Clone(),
	}

	if c.Request.Body != nil {
		body, _ := io.ReadAll(io.LimitReader(c.Request.Body, snapshotBodyLimit))
		snap.Body = string(body)
	}

	return snap
}
