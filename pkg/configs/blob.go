package configs

import "github.com/spf13/viper"

// BlobType 文件字节存储后端类型.
type BlobType string

const (
	BlobTypeS3 BlobType = "s3" // MinIO / S3 兼容对象存储
	BlobTypeFS BlobType = "fs" // 本地文件系统

	DefaultBlobType   = BlobTypeFS
	DefaultBlobFSRoot = "static"
)

// BlobConfig 选择上传文件字节的落盘位置.
type BlobConfig struct {
	Type   BlobType `mapstructure:"type"    rule:"oneof=s3 fs"`
	FSRoot string   `mapstructure:"fs_root"`
	// Breaker 为 true 时对后端调用包一层熔断器.
	Breaker bool `mapstructure:"breaker"`
}

func (c *BlobConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("blob.type", DefaultBlobType)
	v.SetDefault("blob.fs_root", DefaultBlobFSRoot)
	v.SetDefault("blob.breaker", false)
}
