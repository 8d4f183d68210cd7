package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/photoarchive/pkg/context"
	"github.com/yeisme/photoarchive/pkg/errcode"
	"github.com/yeisme/photoarchive/pkg/internal/auth"
	"github.com/yeisme/photoarchive/pkg/internal/model"
	"github.com/yeisme/photoarchive/pkg/internal/repository"
	"github.com/yeisme/photoarchive/pkg/internal/types"
	"github.com/yeisme/photoarchive/pkg/log"
)

const bearerPrefix = "Bearer "

// AuthMiddleware 校验 Authorization: Bearer <jwt>，并把认证主体写入 request context.
//   - 令牌无效、账号不存在或已注销时返回 401
//   - 主体的权限组每次从账号表读取，令牌里不携带权限
func AuthMiddleware(tokens *auth.TokenManager, accounts repository.AccountRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(raw) <= len(bearerPrefix) || !strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(raw[len(bearerPrefix):]))
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		id, err := claims.AccountID()
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		account, err := accounts.GetByID(c.Request.Context(), id)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && account.Status == model.AccountDeactivated) {
			abortUnauthorized(c, "account is not available")
			return
		}

		if err != nil {
			log.Logger().Error().Err(err).Uint("account_id", id).Msg("failed to load principal")
			c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{
				Error:   string(errcode.KindInternal),
				Message: "internal server error",
			})

			return
		}

		p := ctxPkg.Principal{ID: account.ID, Username: account.Username, Group: account.PermissionGroup}
		c.Set(principalKey, p)
		c.Request = c.Request.WithContext(ctxPkg.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="photoarchive"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{
		Error:   string(errcode.KindUnauthorized),
		Message: msg,
	})
}
