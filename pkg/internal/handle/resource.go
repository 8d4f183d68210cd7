package handle

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/photoarchive/pkg/errcode"
	"github.com/yeisme/photoarchive/pkg/internal/permission"
	"github.com/yeisme/photoarchive/pkg/internal/service"
	"github.com/yeisme/photoarchive/pkg/internal/types"
)

// CreateResource 上传资源.
//
//	@Summary		上传资源
//	@Description	按类型规则校验文件；单实例类型会替换同一关联下的旧资源
//	@Tags			资源
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file			formData	file	true	"文件"
//	@Param			type			formData	string	true	"资源类型，例如 avatar、general"
//	@Param			related_table	formData	string	false	"关联表"
//	@Param			related_id		formData	string	false	"关联记录"
//	@Param			acl_group		formData	string	false	"可访问的权限组"
//	@Param			acl_principals	formData	[]int	false	"可访问的账号 id"
//	@Param			public			formData	bool	false	"是否公开，缺省按类型规则"
//	@Success		201				{object}	types.ResourceResponse
//	@Failure		400				{object}	types.ErrorResponse
//	@Failure		403				{object}	types.ErrorResponse
//	@Router			/api/v1/resources [post]
func (h *Handlers) CreateResource(c *gin.Context) {
	h.store(c, permission.OpCreate, 0, http.StatusCreated)
}

// UpdateResource 用新文件替换资源，类型与关联默认沿用旧资源.
//
//	@Summary	替换资源
//	@Tags		资源
//	@Accept		multipart/form-data
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int		true	"资源 id"
//	@Param		file	formData	file	true	"文件"
//	@Success	200		{object}	types.ResourceResponse
//	@Failure	400		{object}	types.ErrorResponse
//	@Failure	403		{object}	types.ErrorResponse
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/api/v1/resources/{id} [put]
func (h *Handlers) UpdateResource(c *gin.Context) {
	id, ok := resourceID(c)
	if !ok {
		return
	}

	h.store(c, permission.OpUpdate, id, http.StatusOK)
}

func (h *Handlers) store(c *gin.Context, op permission.Operation, id uint, status int) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var form types.ResourceForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, err)
		return
	}

	name, contentType, data, err := h.readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.Resources.Execute(c.Request.Context(), service.Command{
		Operation:   op,
		PrincipalID: p.ID,
		ResourceID:  id,
		Payload: service.CreateRequest{
			ResourceType:  form.Type,
			FileName:      name,
			ContentType:   contentType,
			Data:          data,
			RelatedTable:  form.RelatedTable,
			RelatedID:     form.RelatedID,
			Public:        form.Public,
			ACLGroup:      form.ACLGroup,
			ACLPrincipals: form.ACLPrincipals,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(status, types.ResourceResponse{
		OK:                true,
		StoragePath:       res.StoragePath,
		ContentIdentifier: res.ContentID,
		Resource:          res.Resource,
		Superseded:        res.Superseded,
	})
}

// ReadResource 下载资源字节. 无权限与不存在都返回 404.
//
//	@Summary	读取资源
//	@Tags		资源
//	@Produce	octet-stream
//	@Security	BearerAuth
//	@Param		id	path	int	true	"资源 id"
//	@Success	200	{file}	binary
//	@Failure	404	{object}	types.ErrorResponse
//	@Failure	500	{object}	types.ErrorResponse	"元数据存在但文件缺失"
//	@Router		/api/v1/resources/{id} [get]
func (h *Handlers) ReadResource(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	id, ok := resourceID(c)
	if !ok {
		return
	}

	res, err := h.Resources.Execute(c.Request.Context(), service.Command{
		Operation:   permission.OpRead,
		PrincipalID: p.ID,
		ResourceID:  id,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("X-Content-Identifier", res.ContentID)
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, res.Resource.ContentType, res.Data)
}

// DeleteResource 删除资源.
//
//	@Summary	删除资源
//	@Tags		资源
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"资源 id"
//	@Success	200	{object}	types.MessageResponse
//	@Failure	403	{object}	types.ErrorResponse
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/v1/resources/{id} [delete]
func (h *Handlers) DeleteResource(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	id, ok := resourceID(c)
	if !ok {
		return
	}

	if _, err := h.Resources.Execute(c.Request.Context(), service.Command{
		Operation:   permission.OpDelete,
		PrincipalID: p.ID,
		ResourceID:  id,
	}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.MessageResponse{Message: "resource deleted"})
}

// StaticFile 匿名访问公开资源，路径为存储名.
//
//	@Summary	公开资源
//	@Tags		资源
//	@Produce	octet-stream
//	@Param		path	path	string	true	"存储名"
//	@Success	200		{file}	binary
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/static/{path} [get]
func (h *Handlers) StaticFile(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("path"), "/")

	obj, err := h.Resources.ReadPublic(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, obj.Resource.ContentType, obj.Data)
}

func resourceID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, errcode.NotFound("resource not found"))
		return 0, false
	}

	return uint(id), true
}
