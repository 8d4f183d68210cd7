package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yeisme/photoarchive/docs"
	"github.com/yeisme/photoarchive/pkg/configs"
)

// RegisterSwaggerRoute 挂载 /swagger，文档中的 host 取当前监听地址.
func RegisterSwaggerRoute(r *gin.Engine, server configs.ServerConfig) {
	docs.SwaggerInfo.Host = server.Addr()
	docs.SwaggerInfo.Version = configs.AppVersion

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.DocExpansion("none"),
		ginSwagger.PersistAuthorization(true),
	))
}
