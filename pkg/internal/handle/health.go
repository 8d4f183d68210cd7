package handle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/photoarchive/pkg/context"
	"github.com/yeisme/photoarchive/pkg/internal/types"
	"github.com/yeisme/photoarchive/pkg/log"
)

const healthTimeout = 2 * time.Second

// blobProbeName 探测用的存储名，不要求真实存在.
const blobProbeName = ".healthcheck"

var errNotInitialized = errors.New("client not initialized")

// HealthDB 数据库健康检查.
//
//	@Summary	数据库健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/api/v1/health/db [get]
func HealthDB(c *gin.Context) {
	probe(c, "db", func(ctx context.Context) error {
		client := ctxPkg.GetDBClient(ctx)
		if client == nil {
			return errNotInitialized
		}

		return client.HealthCheck(ctx)
	})
}

// HealthBlob 文件字节存储健康检查.
//
//	@Summary	字节存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/api/v1/health/blob [get]
func HealthBlob(c *gin.Context) {
	probe(c, "blob", func(ctx context.Context) error {
		if mgr := ctxPkg.GetManager(ctx); mgr != nil && mgr.S3 != nil {
			return mgr.S3.HealthCheck(ctx)
		}

		store := ctxPkg.GetBlobStore(ctx)
		if store == nil {
			return errNotInitialized
		}

		_, err := store.Exists(ctx, blobProbeName)

		return err
	})
}

// HealthMQ 消息队列健康检查.
//
//	@Summary	消息队列健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/api/v1/health/mq [get]
func HealthMQ(c *gin.Context) {
	probe(c, "mq", func(ctx context.Context) error {
		client := ctxPkg.GetMQClient(ctx)
		if client == nil {
			return errNotInitialized
		}

		return client.HealthCheck(ctx)
	})
}

// probe 失败原因只写日志，响应里只给出状态.
func probe(c *gin.Context, component string, check func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := check(ctx); err != nil {
		log.Logger().Warn().Err(err).Str("component", component).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: component, Status: "unhealthy"})

		return
	}

	c.JSON(http.StatusOK, types.HealthResponse{Component: component, Status: "ok"})
}
