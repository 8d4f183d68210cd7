package queue

// 主题命名：photoarchive.<域>.<动作>.
const (
	TopicAccountRegistered  = "photoarchive.account.registered"  // 注册完成，账号处于待验证状态
	TopicAccountActivated   = "photoarchive.account.activated"   // 验证成功，5 -> 1
	TopicAccountDeactivated = "photoarchive.account.deactivated" // 用户自助注销，-> 4

	TopicResourceStored  = "photoarchive.resource.stored"  // 字节与元数据均已写入
	TopicResourceDeleted = "photoarchive.resource.deleted" // 软删除（删除或被替换）

	TopicSecurityAlert = "photoarchive.security.alert" // 安全事件，管理员已通知
)

// AllTopics 返回全部主题，供 CLI 与订阅方枚举.
func AllTopics() []string {
	return []string{
		TopicAccountRegistered,
		TopicAccountActivated,
		TopicAccountDeactivated,
		TopicResourceStored,
		TopicResourceDeleted,
		TopicSecurityAlert,
	}
}
