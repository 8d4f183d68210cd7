package configs

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ResourceTypeAvatar 头像，每个账号只保留一份.
	ResourceTypeAvatar = "avatar"
	// ResourceTypeGeneral 普通上传.
	ResourceTypeGeneral = "general"

	defaultAvatarMaxSize  = 2 * 1024 * 1024 // 2MB
	defaultGeneralMaxSize = 5 * 1024 * 1024 // 5MB
)

// FileTypeRule 单个资源类型的上传规则.
type FileTypeRule struct {
	MimeTypes      []string `mapstructure:"mime_types"`
	Extensions     []string `mapstructure:"extensions"`
	MaxSizeBytes   int64    `mapstructure:"max_size_bytes"`
	IsImage        bool     `mapstructure:"is_image"`
	SingleInstance bool     `mapstructure:"single_instance"` // 固定文件名，更新时覆盖
	RelatedTable   string   `mapstructure:"related_table"`   // 单实例类型唯一允许的关联表
	Public         bool     `mapstructure:"public"`          // 是否允许 /static 匿名访问
	CreateGroups   []string `mapstructure:"create_groups"`   // 允许创建该类型资源的权限组
}

// AllowsMime 判断 MIME 类型是否在白名单内.
func (r FileTypeRule) AllowsMime(mime string) bool {
	return containsFold(r.MimeTypes, mime)
}

// AllowsExtension 判断扩展名（不含点）是否在白名单内.
func (r FileTypeRule) AllowsExtension(ext string) bool {
	return containsFold(r.Extensions, strings.TrimPrefix(ext, "."))
}

// AllowsGroup 判断权限组是否允许创建.
func (r FileTypeRule) AllowsGroup(group string) bool {
	return group != "" && containsFold(r.CreateGroups, group)
}

// FilesConfig 资源类型规则集合.
type FilesConfig struct {
	Rules map[string]FileTypeRule `mapstructure:"rules"`
}

// Rule 返回资源类型对应规则.
func (c FilesConfig) Rule(resourceType string) (FileTypeRule, bool) {
	r, ok := c.Rules[strings.ToLower(resourceType)]
	return r, ok
}

// MaxUploadBytes 所有类型中最大的大小上限，用于在读取请求体前拦截过大的上传.
func (c FilesConfig) MaxUploadBytes() int64 {
	var maxSize int64
	for _, r := range c.Rules {
		maxSize = max(maxSize, r.MaxSizeBytes)
	}

	return maxSize
}

func (c FilesConfig) validate() error {
	for name, r := range c.Rules {
		if r.MaxSizeBytes <= 0 {
			return fmt.Errorf("invalid config: files.rules.%s.max_size_bytes must be positive", name)
		}

		if len(r.MimeTypes) == 0 || len(r.Extensions) == 0 {
			return fmt.Errorf("invalid config: files.rules.%s needs mime_types and extensions", name)
		}

		if r.SingleInstance && r.RelatedTable == "" {
			return fmt.Errorf("invalid config: files.rules.%s is single_instance and needs related_table", name)
		}
	}

	return nil
}

func (c *FilesConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("files.rules", map[string]any{
		ResourceTypeAvatar: map[string]any{
			"mime_types":      []string{"image/jpeg", "image/png"},
			"extensions":      []string{"jpg", "jpeg", "png"},
			"max_size_bytes":  defaultAvatarMaxSize,
			"is_image":        true,
			"single_instance": true,
			"related_table":   "accounts",
			"public":          true,
			"create_groups":   []string{"user", "admin"},
		},
		ResourceTypeGeneral: map[string]any{
			"mime_types":      []string{"image/jpeg", "image/png"},
			"extensions":      []string{"jpg", "jpeg", "png"},
			"max_size_bytes":  defaultGeneralMaxSize,
			"is_image":        true,
			"single_instance": false,
			"public":          false,
			"create_groups":   []string{"user", "admin"},
		},
	})
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}

	return false
}
