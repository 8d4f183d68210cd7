// Package handle 提供 HTTP 请求处理器，负责参数绑定、调用 service 与渲染响应.
package handle

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/photoarchive/pkg/context"
	"github.com/yeisme/photoarchive/pkg/errcode"
	"github.com/yeisme/photoarchive/pkg/internal/service"
	"github.com/yeisme/photoarchive/pkg/internal/types"
	"github.com/yeisme/photoarchive/pkg/log"
	"github.com/yeisme/photoarchive/pkg/middleware"
	"github.com/yeisme/photoarchive/pkg/rule"
)

// Handlers 聚合各业务 service，由 app 层构造后交给 router 绑定.
type Handlers struct {
	Accounts     *service.AccountService
	Verification *service.VerificationService
	Resources    *service.ResourceService
	// MaxUploadBytes 单个上传文件的读取上限，超出直接拒绝
	MaxUploadBytes int64
}

// respondError 按 errcode 类别渲染错误. 5xx 与安全事件的原因只写日志.
func respondError(c *gin.Context, err error) {
	e := errcode.As(err)
	ctx := c.Request.Context()

	if e.Status >= http.StatusInternalServerError || e.Kind == errcode.KindSecurityEvent {
		logger := ctxPkg.WithTraceContext(ctx, log.Component("handle"))
		logger.Error().Err(err).Str("kind", string(e.Kind)).Str("path", c.Request.URL.Path).Msg("request failed")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(e.Status, types.ErrorResponse{
		Error:   string(e.Kind),
		Message: e.Message,
		Fields:  e.Fields,
		TraceID: ctxPkg.TraceID(ctx),
	})
}

// bindError 绑定或校验失败统一返回 400.
func bindError(c *gin.Context, err error) {
	if verrs := rule.Errors(err); verrs != nil {
		respondError(c, errcode.Validation("invalid request").WithFields(verrs))
		return
	}

	respondError(c, errcode.Validation("malformed request body"))
}

// principal 取出认证主体，路由缺少认证中间件时返回 401.
func principal(c *gin.Context) (ctxPkg.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, errcode.Unauthorized("authentication required"))
		return ctxPkg.Principal{}, false
	}

	return p, true
}

// readUpload 读取 multipart 中的 file 字段，返回文件名、声明类型与内容.
func (h *Handlers) readUpload(c *gin.Context) (string, string, []byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", "", nil, errcode.Validation("multipart field \"file\" is required")
	}

	if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
		return "", "", nil, errcode.Validation("upload exceeds the %d byte limit", h.MaxUploadBytes)
	}

	data, err := readPart(fh, h.MaxUploadBytes)
	if err != nil {
		return "", "", nil, err
	}

	return fh.Filename, fh.Header.Get("Content-Type"), data, nil
}

func readPart(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errcode.Validation("cannot read uploaded file")
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errcode.Validation("cannot read uploaded file")
	}

	if limit > 0 && int64(len(data)) > limit {
		return nil, errcode.Validation("upload exceeds the %d byte limit", limit)
	}

	return data, nil
}
