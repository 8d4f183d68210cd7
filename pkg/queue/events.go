package queue

import "github.com/ThreeDotsLabs/watermill/message"

// Publish 构造信封并发布到 topic.
func Publish[T any](pub message.Publisher, topic string, payload T, opts ...HeaderOption) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}

// PublishAccountRegistered 发布 photoarchive.account.registered.
func PublishAccountRegistered(pub message.Publisher, payload AccountRegisteredPayload, opts ...HeaderOption) error {
	return Publish(pub, TopicAccountRegistered, payload, opts...)
}

// PublishAccountActivated 发布 photoarchive.account.activated.
func PublishAccountActivated(pub message.Publisher, payload AccountActivatedPayload, opts ...HeaderOption) error {
	return Publish(pub, TopicAccountActivated, payload, opts...)
}

// PublishAccountDeactivated 发布 photoarchive.account.deactivated.
func PublishAccountDeactivated(pub message.Publisher, payload AccountDeactivatedPayload, opts ...HeaderOption) error {
	return Publish(pub, TopicAccountDeactivated, payload, opts...)
}

// PublishResourceStored 发布 photoarchive.resource.stored.
func PublishResourceStored(pub message.Publisher, payload ResourceStoredPayload, opts ...HeaderOption) error {
	return Publish(pub, TopicResourceStored, payload, opts...)
}

// PublishResourceDeleted 发布 photoarchive.resource.deleted.
func PublishResourceDeleted(pub message.Publisher, payload ResourceDeletedPayload, opts ...HeaderOption) error {
	return Publish(pub, TopicResourceDeleted, payload, opts...)
}

// PublishSecurityAlert 发布 photoarchive.security.alert.
func PublishSecurityAlert(pub message.Publisher, payload SecurityAlertPayload, opts ...HeaderOption) error {
	return Publish(pub, TopicSecurityAlert, payload, opts...)
}

// ParseSecurityAlert 解析安全事件消息.
func ParseSecurityAlert(msg *message.Message) (Message[SecurityAlertPayload], error) {
	return ParseWatermillMessage[SecurityAlertPayload](msg)
}

// ParseResourceStored 解析资源写入消息.
func ParseResourceStored(msg *message.Message) (Message[ResourceStoredPayload], error) {
	return ParseWatermillMessage[ResourceStoredPayload](msg)
}
