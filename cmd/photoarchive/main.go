// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/photoarchive/pkg/cmd"
)

//	@title			PhotoArchive API
//	@version		1.0
//	@description	PhotoArchive 提供账号注册与验证、权限组控制的图片上传、读取与删除服务。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
