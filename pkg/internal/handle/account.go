package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photoarchive/pkg/internal/types"
)

// Register 注册账号.
//
//	@Summary		注册账号
//	@Description	创建待验证账号并发送验证邮件；邮件发送失败只在 warnings 中提示
//	@Tags			账号
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.RegisterRequest	true	"注册信息"
//	@Success		201		{object}	types.RegisterResponse
//	@Failure		400		{object}	types.ErrorResponse	"参数错误或用户名、邮箱已占用"
//	@Router			/api/v1/accounts/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.Accounts.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login 用户名口令登录.
//
//	@Summary		登录
//	@Tags			账号
//	@Accept			json
//	@Produce		json
//	@Param			body	body		types.LoginRequest	true	"登录信息"
//	@Success		200		{object}	types.LoginResponse
//	@Failure		401		{object}	types.ErrorResponse
//	@Failure		403		{object}	types.ErrorResponse	"账号已注销"
//	@Router			/api/v1/accounts/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.Accounts.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me 当前账号资料.
//
//	@Summary	当前账号
//	@Tags		账号
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	model.Account
//	@Failure	401	{object}	types.ErrorResponse
//	@Router		/api/v1/me [get]
func (h *Handlers) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	account, err := h.Accounts.Me(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// UpdateMe 更新资料，只接受 username、email、bio.
//
//	@Summary		更新资料
//	@Description	avatar 与 password 不能在此修改（403），其余未知字段返回 400
//	@Tags			账号
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		object	true	"要修改的字段"
//	@Success		200		{object}	types.UpdateProfileResponse
//	@Failure		400		{object}	types.ErrorResponse
//	@Failure		403		{object}	types.ErrorResponse
//	@Router			/api/v1/me [patch]
func (h *Handlers) UpdateMe(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.Accounts.UpdateProfile(c.Request.Context(), p.ID, fields)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UploadAvatar 上传头像，替换旧头像.
//
//	@Summary	上传头像
//	@Tags		账号
//	@Accept		multipart/form-data
//	@Produce	json
//	@Security	BearerAuth
//	@Param		file	formData	file	true	"头像图片"
//	@Success	200		{object}	types.AvatarResponse
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	403		{object}	types.ErrorResponse
//	@Router		/api/v1/me/avatar [put]
func (h *Handlers) UploadAvatar(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	name, contentType, data, err := h.readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.Accounts.UploadAvatar(c.Request.Context(), p.ID, name, contentType, data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Deactivate 注销当前账号.
//
//	@Summary	注销账号
//	@Tags		账号
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	types.MessageResponse
//	@Failure	410	{object}	types.ErrorResponse	"账号已注销"
//	@Router		/api/v1/me/deactivate [post]
func (h *Handlers) Deactivate(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	if err := h.Accounts.Deactivate(c.Request.Context(), p.ID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "account deactivated"})
}
