package types

import "github.com/yeisme/photoarchive/pkg/internal/model"

// ResourceForm multipart 表单中除文件外的字段.
type ResourceForm struct {
	Type          string `form:"type"           rule:"omitempty,max=64"`
	RelatedTable  string `form:"related_table"  rule:"omitempty,token"`
	RelatedID     string `form:"related_id"     rule:"omitempty,token"`
	ACLGroup      string `form:"acl_group"      rule:"omitempty,max=64"`
	ACLPrincipals []uint `form:"acl_principals"`
	Public        *bool  `form:"public"`
}

// ResourceResponse 创建或更新结果.
type ResourceResponse struct {
	OK                bool            `json:"ok"`
	StoragePath       string          `json:"storage_path"`
	ContentIdentifier string          `json:"content_identifier"`
	Resource          *model.Resource `json:"resource"`
	Superseded        []uint          `json:"superseded,omitempty"`
}
