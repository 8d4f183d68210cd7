package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/photoarchive/pkg/context"
	"github.com/yeisme/photoarchive/pkg/errcode"
	"github.com/yeisme/photoarchive/pkg/internal/types"
)

const principalKey = "principal"

// GetPrincipal 从 gin.Context 获取认证主体，回退到 request context.
func GetPrincipal(c *gin.Context) (ctxPkg.Principal, bool) {
	if v, ok := c.Get(principalKey); ok {
		if p, ok2 := v.(ctxPkg.Principal); ok2 {
			return p, true
		}
	}

	return ctxPkg.GetPrincipal(c.Request.Context())
}

// RequireGroup 要求主体属于给定权限组之一，需放在 AuthMiddleware 之后.
func RequireGroup(groups ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{
				Error:   string(errcode.KindUnauthorized),
				Message: "authentication required",
			})

			return
		}

		if !slices.Contains(groups, p.Group) {
			c.AbortWithStatusJSON(http.StatusForbidden, types.ErrorResponse{
				Error:   string(errcode.KindPermissionDenied),
				Message: "forbidden: insufficient permission group",
			})

			return
		}

		c.Next()
	}
}
