package queue

import "time"

// AccountRef 事件中引用的账号信息，不含凭据与验证标识.
type AccountRef struct {
	ID              uint   `json:"id"`
	Username        string `json:"username"`
	Status          int    `json:"status"`
	PermissionGroup string `json:"permission_group,omitempty"`
}

// AccountRegisteredPayload 注册完成.
type AccountRegisteredPayload struct {
	Account  AccountRef `json:"account"`
	Enhanced bool       `json:"enhanced"` // 是否采用 链接+验证码 协议
}

// AccountActivatedPayload 账号激活.
type AccountActivatedPayload struct {
	Account AccountRef `json:"account"`
	Mode    string     `json:"mode"` // link / code
}

// AccountDeactivatedPayload 账号注销.
type AccountDeactivatedPayload struct {
	Account        AccountRef `json:"account"`
	PreviousStatus int        `json:"previous_status"`
}

// ResourceRef 事件中引用的资源.
type ResourceRef struct {
	ID           uint   `json:"id"`
	OwnerID      uint   `json:"owner_id"`
	ContentID    string `json:"content_id"`
	StorageName  string `json:"storage_name"`
	ResourceType string `json:"resource_type"`
	RelatedTable string `json:"related_table,omitempty"`
	RelatedID    string `json:"related_id,omitempty"`
	Size         int64  `json:"size,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	Public       bool   `json:"public,omitempty"`
}

// ResourceStoredPayload 资源写入完成.
type ResourceStoredPayload struct {
	Resource   ResourceRef `json:"resource"`
	Superseded []uint      `json:"superseded,omitempty"` // 本次写入替换掉的资源
}

// ResourceDeletedPayload 资源软删除.
type ResourceDeletedPayload struct {
	Resource     ResourceRef `json:"resource"`
	Reason       string      `json:"reason"` // delete / superseded
	BytesRemoved bool        `json:"bytes_removed"`
}

// SecurityAlertPayload 安全事件，包含请求快照.
type SecurityAlertPayload struct {
	IncidentID string              `json:"incident_id"`
	Kind       string              `json:"kind"`
	Identifier string              `json:"identifier,omitempty"`
	RemoteIP   string              `json:"remote_ip,omitempty"`
	UserAgent  string              `json:"user_agent,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       string              `json:"body,omitempty"`
	DetectedAt time.Time           `json:"detected_at"`
}
